package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/regpush/pushcore/internal/adminserver"
	"github.com/regpush/pushcore/internal/generator"
	"github.com/regpush/pushcore/internal/push"
	"github.com/regpush/pushcore/internal/transport"
)

func serveCmd() *cobra.Command {
	var useWebsocket bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the push dispatch core as a long-lived demo server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			gen, err := generator.New()
			if err != nil {
				return fmt.Errorf("creating generator: %w", err)
			}
			defer gen.Close()

			var svc transport.ClientNodeService
			if useWebsocket {
				svc = transport.NewWSNode(cfg.ClientNodeExchangeTimeOut(), logger)
			} else {
				svc = transport.NewFake()
			}

			proc := push.New(cfg, gen, svc, logger)

			watchdogCtx, cancelWatchdog := context.WithCancel(ctx)
			defer cancelWatchdog()
			go proc.Run(watchdogCtx)

			admin := adminserver.New(proc, cfg, logger)
			httpServer := &http.Server{
				Addr:         cfg.Admin.Addr,
				Handler:      admin.Handler(),
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
			}

			serveErrCh := make(chan error, 1)
			if cfg.Admin.Enabled {
				go func() {
					logger.Info("admin server listening", zap.String("addr", cfg.Admin.Addr))
					if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						serveErrCh <- err
						return
					}
					serveErrCh <- nil
				}()
			}

			logger.Info("push dispatch core started")

			select {
			case <-ctx.Done():
				logger.Info("shutting down")
			case err := <-serveErrCh:
				if err != nil {
					logger.Error("admin server error", zap.Error(err))
				}
			}

			cancelWatchdog()

			var errs error
			if cfg.Admin.Enabled {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer shutdownCancel()
				errs = multierr.Append(errs, httpServer.Shutdown(shutdownCtx))
			}
			proc.Stop()

			return errs
		},
	}

	cmd.Flags().BoolVar(&useWebsocket, "websocket", false, "use the websocket-backed transport instead of the in-memory fake")
	return cmd
}
