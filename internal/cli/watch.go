package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyike/CapitalGo/config"
	"github.com/spf13/cobra"
)

type watchOptions struct {
	interval    time.Duration
	metricsAddr string
	cycles      int
}

// newWatchCmd runs decision cycles on an interval until interrupted.
func newWatchCmd(o *rootOptions) *cobra.Command {
	wo := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run decision cycles on an interval",
		Long: `Run a decision cycle every interval. A fuel sale outside the cooldown is
reported and starts a new cooldown; sales inside it are reported as deferred.
With --config the file is watched and policy changes apply to the next cycle.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			if err := requireAccount(e.cfg); err != nil {
				return err
			}

			a, err := o.newApp(e)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return o.watch(ctx, cmd, e, a, wo)
		},
	}
	cmd.Flags().DurationVar(&wo.interval, "interval", 0, "Time between cycles (default from config)")
	cmd.Flags().StringVar(&wo.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9108")
	cmd.Flags().IntVar(&wo.cycles, "cycles", 0, "Stop after this many cycles (0 runs until interrupted)")
	return cmd
}

func (o *rootOptions) watch(ctx context.Context, cmd *cobra.Command, e *env, a *app, wo *watchOptions) error {
	log := e.logger.Logger
	interval := wo.interval
	if interval <= 0 {
		interval = e.cfg.WatchInterval()
	}

	addr := wo.metricsAddr
	if addr == "" {
		addr = e.cfg.MetricsAddr
	}
	if addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server stopped", "addr", addr, "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info("serving metrics", "addr", addr)
	}

	reloads := make(chan config.Config, 1)
	if e.manager != nil {
		err := e.manager.Watch(ctx, func(c config.Config) {
			o.applyOverrides(&c)
			select {
			case reloads <- c:
			default:
				// keep only the newest pending config
				select {
				case <-reloads:
				default:
				}
				reloads <- c
			}
		})
		if err != nil {
			log.Warn("config hot reload unavailable", "error", err)
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("watch started", "account", e.cfg.Account, "interval", interval.String())
	done := 0
	for {
		res, err := a.runCycle(ctx, true)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			printError(cmd.ErrOrStderr(), fmt.Sprintf("cycle failed: %v", err))
		} else if err := o.printCycle(cmd, res); err != nil {
			return err
		}

		done++
		if wo.cycles > 0 && done >= wo.cycles {
			return nil
		}

		if !o.awaitTick(ctx, log, a, wo, reloads, ticker, &interval) {
			log.Info("watch stopped")
			return nil
		}
	}
}

// awaitTick blocks until the next tick, applying config reloads meanwhile.
// A reload never starts a cycle on its own. It returns false once ctx is
// done.
func (o *rootOptions) awaitTick(ctx context.Context, log *slog.Logger, a *app, wo *watchOptions,
	reloads <-chan config.Config, ticker *time.Ticker, interval *time.Duration) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			return true
		case c := <-reloads:
			if err := c.Validate(); err != nil {
				log.Error("reloaded config rejected", "error", err)
				continue
			}
			a.setConfig(c)
			log.Info("config applied", "account", c.Account)
			if wo.interval <= 0 && c.WatchInterval() != *interval {
				*interval = c.WatchInterval()
				ticker.Reset(*interval)
			}
		}
	}
}
