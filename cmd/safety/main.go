// Command safety runs one car's safety monitor process (§4.6, §6): it
// repeatedly asks the car to wait for a state change (or time out) and
// then run one cycle of the door-obstruction, emergency-stop, overload,
// and invariant checks, until SIGINT.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fathomworks/multicar-elevator/internal/config"
	"github.com/fathomworks/multicar-elevator/internal/ipc"
	"github.com/fathomworks/multicar-elevator/internal/logging"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: safety <name>")
		os.Exit(1)
	}
	name := os.Args[1]

	cfg, err := config.InitSafetyConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logging.Init(cfg.LogLevel, "safety")
	logger := slog.With(slog.String("car", name))

	socketPath := config.SocketPath(cfg.SocketDir, name)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := connectWithRetry(ctx, socketPath, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer client.Close()

	logger.Info("safety monitor started", slog.String("socket", socketPath))
	for ctx.Err() == nil {
		if _, err := client.WaitAndCycle(cfg.CycleTimeout); err != nil {
			logger.Warn("safety cycle failed; reconnecting", slog.String("error", err.Error()))
			client.Close()
			client, err = connectWithRetry(ctx, socketPath, logger)
			if err != nil {
				return
			}
		}
	}
}

// connectWithRetry dials the car's IPC socket, retrying with a short
// backoff until it succeeds or ctx is cancelled — the car process may
// still be starting up when the safety monitor is launched alongside it.
func connectWithRetry(ctx context.Context, socketPath string, logger *slog.Logger) (*ipc.Client, error) {
	for {
		client, err := ipc.Dial(socketPath, 2*time.Second)
		if err == nil {
			return client, nil
		}
		logger.Debug("car socket not ready yet", slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}
