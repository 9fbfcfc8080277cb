package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/arena/brackets"
	"github.com/rustyeddy/arena/metrics"
	"github.com/rustyeddy/arena/pnl"
	"github.com/rustyeddy/arena/pricing"
	"github.com/rustyeddy/arena/server"
)

func newServeCmd(rc *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, if configured, the scheduled P&L loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rc.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			prices, err := a.priceService()
			if err != nil {
				return err
			}

			var m *metrics.Metrics
			var opts []pnl.Option
			if a.cfg.Server.Metrics {
				m = metrics.New()
				opts = append(opts, pnl.WithObserver(m.ObservePass))
			}
			engine := a.engine(opts...)

			srv := server.New(server.Deps{
				Engine:   engine,
				Brackets: brackets.NewService(a.store, a.log),
				Prices:   prices,
				Verifier: a.store,
				Metrics:  m,
				Logger:   a.log,
			})
			if err := srv.Start(a.cfg.Server.ListenAddr); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			interval, err := a.cfg.Engine.IntervalDuration()
			if err != nil {
				return err
			}
			if interval > 0 {
				var refresher *pricing.Refresher
				if a.cfg.Engine.RefreshPrices {
					refresher = pricing.NewRefresher(a.store, prices, pricing.SystemClock{}, a.log)
				}
				go schedule(ctx, interval, engine, refresher, a)
			}

			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

// schedule runs a pass every interval until ctx ends. Quotes are
// refreshed first when a refresher is supplied.
func schedule(ctx context.Context, interval time.Duration, engine *pnl.Engine, refresher *pricing.Refresher, a *app) {
	a.log.Info("scheduled passes enabled", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if refresher != nil {
			if _, err := refresher.Refresh(ctx); err != nil {
				a.log.Warn("refresh quotes", zap.Error(err))
			}
		}
		if _, err := engine.Run(ctx); err != nil {
			a.log.Error("scheduled pass", zap.Error(err))
		}
	}
}
