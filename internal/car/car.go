// Package car implements one elevator cabin: the door/motion state
// machine (§4.2), the network thread that mirrors status to the
// dispatcher (§4.3), and the IPC server that exposes the car's
// state.State to button clients and its safety monitor (SPEC_FULL.md §0).
package car

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fathomworks/multicar-elevator/internal/config"
	"github.com/fathomworks/multicar-elevator/internal/floor"
	"github.com/fathomworks/multicar-elevator/internal/ipc"
	"github.com/fathomworks/multicar-elevator/internal/state"
)

// Car owns one car's state record and the two cooperating tasks that
// drive it.
type Car struct {
	Name  string
	State *state.State

	delay      time.Duration
	cfg        *config.CarConfig
	logger     *slog.Logger
	socketPath string

	server *ipc.Server
	net    *networkThread

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a car spanning [lowest, highest] with door/floor timing
// delay (the CLI's delay_ms, §6) and binds its IPC socket, but does not
// yet start its background tasks; call Run for that.
func New(name string, lowest, highest floor.Label, delay time.Duration, cfg *config.CarConfig, logger *slog.Logger) (*Car, error) {
	st := state.New(name, lowest, highest)
	socketPath := config.SocketPath(cfg.SocketDir, name)

	c := &Car{
		Name:       name,
		State:      st,
		delay:      delay,
		cfg:        cfg,
		logger:     logger,
		socketPath: socketPath,
	}

	server, err := ipc.Listen(socketPath, ipcHandler(st, name, logger), logger)
	if err != nil {
		return nil, err
	}
	c.server = server
	// The network thread cycles on the same delay_ms as the door/floor
	// timers (§4.3: "Periodically (every delay_ms)"), not the car's
	// shorter idle poll interval.
	c.net = newNetworkThread(st, name, cfg.DispatcherAddr, delay, cfg.DialTimeout, cfg.NetworkPollTimeout,
		cfg.CircuitBreakerMaxFailures, cfg.CircuitBreakerResetTimeout, logger)

	return c, nil
}

// SocketPath returns the path this car's IPC server is listening on.
func (c *Car) SocketPath() string { return c.socketPath }

// Run starts the state machine, the network thread, and the IPC server,
// and blocks until ctx is cancelled.
func (c *Car) Run(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		runStateMachine(runCtx, c.State, c.delay, c.cfg.IdleTimeout)
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.net.run(runCtx)
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.server.Serve(); err != nil {
			c.logger.Error("ipc server stopped unexpectedly", slog.String("car", c.Name), slog.String("error", err.Error()))
		}
	}()

	<-runCtx.Done()
	c.Shutdown()
}

// Shutdown cancels the background tasks, closes the dispatcher
// connection, and unlinks the IPC socket, matching the source's
// unmap-and-unlink cleanup on SIGINT.
func (c *Car) Shutdown() {
	if c.cancel != nil {
		c.cancel()
	}
	_ = c.server.Close()
	c.wg.Wait()
}
