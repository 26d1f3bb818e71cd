package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/regpush/pushcore/internal/generator"
	"github.com/regpush/pushcore/internal/model"
	"github.com/regpush/pushcore/internal/push"
	"github.com/regpush/pushcore/internal/subscriber"
	"github.com/regpush/pushcore/internal/transport"
)

// simulateCmd fires a scripted burst of debounced push intents exercising
// coalescing end to end, then prints the resulting stats.
// It is a one-shot command, useful for smoke-testing a build without a real
// client node.
func simulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Fire a scripted burst of push intents and report the outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			gen, err := generator.New()
			if err != nil {
				return fmt.Errorf("creating generator: %w", err)
			}
			defer gen.Close()

			fake := transport.NewFake()
			defer fake.Close()

			proc := push.New(cfg, gen, fake, logger)
			go proc.Run(ctx)
			defer proc.Stop()

			addr := "demo://" + uuid.NewString()
			sub := subscriber.New(uuid.NewString(), "SPX", "zone", "full", "v1", addr)
			subs := map[string]*subscriber.Subscriber{sub.ID: sub}
			datum := &model.Datum{
				DataInfoID: "SPX",
				DataCenter: "dc-a",
				Entries:    map[string]model.Entry{"gamma": {Value: []byte("1.23"), Version: 3}},
			}
			datumMap := map[string]*model.Datum{"dc-a": datum}

			logger.Info("firing coalescing burst: seq [10,10], [11,11], [12,12]")
			for _, seq := range [][2]int64{{10, 10}, {11, 11}, {12, 12}} {
				accepted, err := proc.FirePush(false, 1, "dc-a", addr, subs, datumMap, seq[0], seq[1])
				if err != nil {
					return fmt.Errorf("firing push: %w", err)
				}
				logger.Info("fired", zap.Int64("fetchSeqStart", seq[0]), zap.Bool("accepted", accepted))
			}

			time.Sleep(250 * time.Millisecond)

			logger.Info("simulation complete",
				zap.Int("pending", proc.PendingCount()),
				zap.Int("inFlight", proc.InFlightCount()),
				zap.Int("transportCalls", len(fake.Calls())),
			)
			return nil
		},
	}
	return cmd
}
