// Command controller runs the dispatcher process (§6): it binds the
// well-known TCP port, accepts car and call connections, and routes hall
// calls via SCAN selection.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fathomworks/multicar-elevator/internal/config"
	"github.com/fathomworks/multicar-elevator/internal/dashboard"
	"github.com/fathomworks/multicar-elevator/internal/debugsrv"
	"github.com/fathomworks/multicar-elevator/internal/dispatcher"
	"github.com/fathomworks/multicar-elevator/internal/health"
	"github.com/fathomworks/multicar-elevator/internal/logging"
)

func main() {
	cfg, err := config.InitDispatcherConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logging.Init(cfg.LogLevel, "dispatcher")
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := dispatcher.New(logger, cfg.ReadTimeout)

	if cfg.DebugAddr != "" {
		debug := debugsrv.New(cfg.DebugAddr, logger)
		debug.RegisterChecker(health.NewComponentChecker("dispatcher_cars", func(context.Context) (bool, string, map[string]any) {
			cars := d.Registry().Snapshot()
			connected := 0
			for _, c := range cars {
				if c.Connected {
					connected++
				}
			}
			return true, fmt.Sprintf("%d/%d cars connected", connected, len(cars)), map[string]any{"cars": len(cars), "connected": connected}
		}))
		debug.Handle("/ws/status", dashboard.New(d.Registry(), logger,
			cfg.DashboardStatusInterval, cfg.DashboardPingInterval,
			cfg.DashboardWriteTimeout, cfg.DashboardReadTimeout))
		go func() {
			if err := debug.ListenAndServe(ctx); err != nil {
				logger.Warn("debug server stopped", slog.String("error", err.Error()))
			}
		}()
	}

	if err := d.Serve(ctx, cfg.ListenAddr); err != nil {
		logger.Error("dispatcher stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
