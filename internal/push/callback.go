package push

import (
	"errors"

	"go.uber.org/zap"

	"github.com/regpush/pushcore/internal/model"
	"github.com/regpush/pushcore/internal/transport"
)

// taskCallback is handed to transport.ClientNodeService.PushWithCallback for
// one dispatch. It carries the pushing-key rather than a back-pointer into
// the in-flight registry, so it can remove exactly the entry it put there
// without holding a reference the registry itself owns.
type taskCallback struct {
	processor *Processor
	task      *model.Task
	pk        model.PushingKey
}

// OnSuccess advances every subscriber's acknowledged version for the pushed
// data center and clears the task's in-flight entry.
func (c *taskCallback) OnSuccess(response any) {
	entryVersions := make(map[string]int64)
	if d, ok := c.task.DatumMap[c.task.DataCenter]; ok {
		entryVersions = d.EntryVersions()
	}

	for _, s := range c.task.SubscriberMap {
		advanced := s.CheckAndUpdateVersion(c.task.DataCenter, c.task.PushVersion, entryVersions, c.task.FetchSeqStart, c.task.FetchSeqEnd)
		if !advanced {
			c.processor.logger.Warn("version advance skipped, already superseded",
				zap.String("subscriberId", s.ID),
				zap.String("task", c.task.String()))
		}
	}

	c.processor.inFlight.CompareAndRemove(c.pk, c.task)
}

// OnException clears the task's in-flight entry, logs the failure, and
// retries the task unless the connection itself is gone.
func (c *taskCallback) OnException(err error, connected bool) {
	c.processor.inFlight.CompareAndRemove(c.pk, c.task)

	if errors.Is(err, transport.ErrInvokeTimeout) {
		c.processor.logger.Error("push invoke timed out",
			zap.String("task", c.task.String()),
			zap.Error(err))
	} else {
		c.processor.logger.Error("push transport exception",
			zap.String("task", c.task.String()),
			zap.Bool("connected", connected),
			zap.Error(err))
	}

	if !connected {
		c.processor.logger.Warn("channel disconnected, dropping task",
			zap.String("task", c.task.String()))
		return
	}
	c.processor.retry(c.task, "callbackErr")
}
