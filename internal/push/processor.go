package push

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/regpush/pushcore/internal/config"
	"github.com/regpush/pushcore/internal/dispatch"
	"github.com/regpush/pushcore/internal/generator"
	"github.com/regpush/pushcore/internal/inflight"
	"github.com/regpush/pushcore/internal/model"
	"github.com/regpush/pushcore/internal/pending"
	"github.com/regpush/pushcore/internal/retry"
	"github.com/regpush/pushcore/internal/subscriber"
	"github.com/regpush/pushcore/internal/transport"
	"github.com/regpush/pushcore/internal/watchdog"
)

// ErrStopped names the stop-push condition; it is informational, never an
// operational error. No function in this package returns it: FirePush still
// accepts intents while the switch is set, and they are simply not dispatched.
var ErrStopped = errors.New("pushcore: stop-push switch is set")

// Processor is the push dispatch core: it owns the pending buffer, in-flight
// registry, keyed dispatcher and watchdog, and implements the dispatch,
// freshness-check, retry and callback algorithm that turns a fired push
// intent into a delivered (or retried, or dropped) push.
type Processor struct {
	cfg       config.SessionServerConfig
	generator generator.Generator
	transport transport.ClientNodeService
	executor  *CallbackExecutor
	logger    *zap.Logger

	pending    *pending.Buffer
	inFlight   *inflight.Registry
	dispatcher *dispatch.Dispatcher
	watchdog   *watchdog.Watchdog
}

// New wires a Processor from its external collaborators and configuration.
// Callers must call Run in a goroutine to start the watchdog loop, and Stop
// on shutdown.
func New(cfg config.SessionServerConfig, gen generator.Generator, svc transport.ClientNodeService, logger *zap.Logger) *Processor {
	p := &Processor{
		cfg:       cfg,
		generator: gen,
		transport: svc,
		executor:  NewCallbackExecutor(2, 1000, 500, 50, logger),
		logger:    logger,
		inFlight:  inflight.New(),
	}
	p.dispatcher = dispatch.New(cfg.PushTaskExecutorPoolSize(), cfg.PushTaskExecutorQueueSize(), logger)
	p.watchdog = watchdog.New(p.tick)
	p.pending = pending.New(p.watchdog, logger)
	return p
}

// Run blocks running the watchdog loop until ctx is cancelled.
func (p *Processor) Run(ctx context.Context) {
	p.watchdog.Run(ctx)
}

// Stop releases the dispatcher and callback executor. In-flight pushes are
// allowed to run to completion.
func (p *Processor) Stop() {
	p.dispatcher.Stop()
	p.executor.Stop()
}

// PendingCount and InFlightCount back the admin stats surface.
func (p *Processor) PendingCount() int  { return p.pending.Len() }
func (p *Processor) InFlightCount() int { return p.inFlight.Len() }

// FirePush is the producer-facing entry point. It is non-blocking and reports
// whether the intent was accepted into the pending buffer. It returns an
// error only when the intent fails task validation (empty subscriber map,
// inverted fetch range, or subscribers that disagree on their conversation).
func (p *Processor) FirePush(noDelay bool, pushVersion int64, dataCenter, addr string, subscriberMap map[string]*subscriber.Subscriber, datumMap map[string]*model.Datum, fetchSeqStart, fetchSeqEnd int64) (bool, error) {
	task, err := model.NewTask(noDelay, pushVersion, dataCenter, addr, subscriberMap, datumMap, fetchSeqStart, fetchSeqEnd, p.cfg.PushDataTaskDebouncingMillis())
	if err != nil {
		return false, fmt.Errorf("constructing task: %w", err)
	}
	return p.pending.Fire(task), nil
}

// tick is the watchdog iteration body: transfer every ready pending task to
// the keyed dispatcher, unless dispatch is globally halted.
func (p *Processor) tick() {
	if p.cfg.IsStopPushSwitch() {
		return
	}

	for _, task := range p.pending.TransferReady(time.Now().UnixMilli()) {
		pk := task.PushingKeyOf()
		if err := p.dispatcher.Submit(pk, func() { p.runDispatch(task) }); err != nil {
			p.logger.Error("dispatcher submission failed",
				zap.String("pushingKey", pk.String()),
				zap.Error(err))
		}
	}
}

// runDispatch is the keyed-dispatcher task body: check whether the task may
// proceed, build its wire payload, stamp it in flight, and hand it to the
// transport.
func (p *Processor) runDispatch(task *model.Task) {
	if p.cfg.IsStopPushSwitch() {
		return
	}

	pk := task.PushingKeyOf()
	defer func() {
		if r := recover(); r != nil {
			p.inFlight.CompareAndRemove(pk, task)
			p.logger.Error("dispatch panicked",
				zap.String("pushingKey", pk.String()),
				zap.Any("recovered", r))
		}
	}()

	if !p.checkPushing(task, pk) {
		return
	}

	payload, err := p.buildPayload(task)
	if err != nil {
		p.logger.Error("building push payload failed",
			zap.String("pushingKey", pk.String()),
			zap.Error(err))
		p.inFlight.Remove(pk)
		return
	}

	task.UpdatePushTimestamp()
	p.inFlight.Put(pk, task)

	cb := &taskCallback{processor: p, task: task, pk: pk}
	p.transport.PushWithCallback(context.Background(), payload, task.Subscriber.SourceAddress, cb, p.executor)
}

func (p *Processor) buildPayload(task *model.Task) ([]byte, error) {
	merged, err := p.generator.MergeDatum(task.Subscriber, task.DataCenter, task.DatumMap)
	if err != nil {
		return nil, fmt.Errorf("merging datum: %w", err)
	}
	payload, err := p.generator.CreatePushData(merged, task.SubscriberMap, task.PushVersion)
	if err != nil {
		return nil, fmt.Errorf("encoding push data: %w", err)
	}
	return payload, nil
}

// checkPushing decides whether task may proceed to transport: against no
// prior in-flight occupant it checks that every subscriber hasn't already
// observed a newer snapshot; against a prior occupant it checks freshness,
// evicts a stuck one, or defers via retry.
func (p *Processor) checkPushing(task *model.Task, pk model.PushingKey) bool {
	prev, ok := p.inFlight.Get(pk)
	if !ok {
		for _, s := range task.SubscriberMap {
			if !s.CheckVersion(task.DataCenter, task.FetchSeqStart) {
				p.logger.Warn("subscriber already observed newer snapshot",
					zap.String("pushingKey", pk.String()),
					zap.String("subscriberId", s.ID))
				return false
			}
		}
		return true
	}

	if !task.AfterThan(prev) {
		return false
	}

	if prev.SpanMillis() > 2*int64(p.cfg.ClientNodeExchangeTimeOut().Milliseconds()) {
		p.logger.Warn("evicting stuck prior push",
			zap.String("pushingKey", pk.String()),
			zap.Int64("spanMillis", prev.SpanMillis()))
		p.inFlight.Remove(pk)
		return true
	}

	p.retry(task, "waiting")
	return false
}

// retry advances task's retry count and, if the retry budget isn't
// exhausted, re-fires it into the pending buffer after a back-off delay.
func (p *Processor) retry(task *model.Task, reason string) {
	r := task.IncrementRetry()
	if int(r) > p.cfg.PushTaskRetryTimes() {
		p.logger.Info("retry budget exhausted",
			zap.String("task", task.String()),
			zap.String("reason", reason))
		return
	}

	backoff := retry.BackoffMillis(int(r), p.cfg.PushDataTaskRetryFirstDelayMillis(), p.cfg.PushDataTaskRetryIncrementDelayMillis())
	task.ExpireAfter(backoff)
	if !p.pending.Fire(task) {
		p.logger.Info("retry superseded by fresher pending task",
			zap.String("task", task.String()),
			zap.String("reason", reason))
	}
}
