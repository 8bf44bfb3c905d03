// Command car runs one elevator cabin process (§6): it creates the
// shared-state record, the door/motion state machine, the network
// thread that mirrors status to the dispatcher, and the IPC server that
// exposes the state record to button clients and the safety monitor.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fathomworks/multicar-elevator/internal/car"
	"github.com/fathomworks/multicar-elevator/internal/config"
	"github.com/fathomworks/multicar-elevator/internal/debugsrv"
	"github.com/fathomworks/multicar-elevator/internal/floor"
	"github.com/fathomworks/multicar-elevator/internal/logging"
)

func main() {
	if len(os.Args) != 5 {
		fmt.Fprintln(os.Stderr, "usage: car <name> <lowest> <highest> <delay_ms>")
		os.Exit(1)
	}
	name := os.Args[1]

	lowest, err := floor.Parse(os.Args[2])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	highest, err := floor.Parse(os.Args[3])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if floor.Compare(lowest, highest) >= 0 {
		fmt.Fprintln(os.Stderr, "lowest floor must be below highest floor")
		os.Exit(1)
	}

	delayMs, err := strconv.Atoi(os.Args[4])
	if err != nil || delayMs <= 0 {
		fmt.Fprintln(os.Stderr, "delay_ms must be a positive integer")
		os.Exit(1)
	}
	delay := time.Duration(delayMs) * time.Millisecond

	cfg, err := config.InitCarConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logging.Init(cfg.LogLevel, "car")
	logger := slog.With(slog.String("car", name))

	c, err := car.New(name, lowest, highest, delay, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DebugAddr != "" {
		debug := debugsrv.New(cfg.DebugAddr, logger)
		go func() {
			if err := debug.ListenAndServe(ctx); err != nil {
				logger.Warn("debug server stopped", slog.String("error", err.Error()))
			}
		}()
	}

	logger.Info("car starting", slog.String("lowest", lowest.String()), slog.String("highest", highest.String()), slog.Duration("delay", delay))
	c.Run(ctx)
}
