package car

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fathomworks/multicar-elevator/internal/config"
	"github.com/fathomworks/multicar-elevator/internal/floor"
	"github.com/fathomworks/multicar-elevator/internal/ipc"
	"github.com/fathomworks/multicar-elevator/internal/state"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustFloor(t *testing.T, s string) floor.Label {
	t.Helper()
	l, err := floor.Parse(s)
	require.NoError(t, err)
	return l
}

// newTestCar wires a car against a loopback dispatcher stub listening on
// dispatcherAddr, using aggressive testing-profile timings so the
// background loops complete several cycles within a test's deadline.
func newTestCar(t *testing.T, name string, dispatcherAddr string) *Car {
	t.Helper()
	cfg := &config.CarConfig{
		Environment:                config.Testing,
		DispatcherAddr:             dispatcherAddr,
		SocketDir:                  t.TempDir(),
		IdleTimeout:                5 * time.Millisecond,
		NetworkPollTimeout:         10 * time.Millisecond,
		DialTimeout:                200 * time.Millisecond,
		CircuitBreakerMaxFailures:  5,
		CircuitBreakerResetTimeout: time.Second,
	}

	c, err := New(name, mustFloor(t, "1"), mustFloor(t, "5"), 20*time.Millisecond, cfg, discardLogger())
	require.NoError(t, err)
	return c
}

func runCarInBackground(t *testing.T, c *Car) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

// fakeDispatcher accepts connections and discards everything sent on
// them, standing in for the dispatcher's TCP session in tests that only
// exercise the car's own state machine and IPC surface.
func fakeDispatcher(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go io.Copy(io.Discard, conn)
		}
	}()
	return ln.Addr().String()
}

func doOp(t *testing.T, client *ipc.Client, op string) {
	t.Helper()
	reply, err := client.Operation(op)
	require.NoError(t, err)
	require.Equal(t, ipc.ReplyOK, reply, "operation %s rejected: %s", op, reply)
}

func TestCarOpenCloseRoundTripViaIPC(t *testing.T) {
	addr := fakeDispatcher(t)
	c := newTestCar(t, "A", addr)
	runCarInBackground(t, c)

	client, err := ipc.Dial(c.SocketPath(), time.Second)
	require.NoError(t, err)
	defer client.Close()

	doOp(t, client, OpOpen)

	require.Eventually(t, func() bool {
		return c.State.Snapshot().Status == state.Open
	}, time.Second, 5*time.Millisecond)

	doOp(t, client, OpClose)

	require.Eventually(t, func() bool {
		return c.State.Snapshot().Status == state.Closed
	}, time.Second, 5*time.Millisecond)
}

func TestCarServiceModeMovesBetweenFloorsOnUpDown(t *testing.T) {
	addr := fakeDispatcher(t)
	c := newTestCar(t, "B", addr)
	runCarInBackground(t, c)

	client, err := ipc.Dial(c.SocketPath(), time.Second)
	require.NoError(t, err)
	defer client.Close()

	doOp(t, client, OpServiceOn)
	doOp(t, client, OpUp)

	require.Eventually(t, func() bool {
		snap := c.State.Snapshot()
		return snap.CurrentFloor.String() == "2" && snap.Status == state.Closed
	}, 2*time.Second, 5*time.Millisecond)
}

func TestCarUpRejectedOutsideServiceMode(t *testing.T) {
	addr := fakeDispatcher(t)
	c := newTestCar(t, "E", addr)
	runCarInBackground(t, c)

	client, err := ipc.Dial(c.SocketPath(), time.Second)
	require.NoError(t, err)
	defer client.Close()

	reply, err := client.Operation(OpUp)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(reply, "ERROR"), "expected rejection, got %s", reply)
}

func TestCarObstructionReversesClosingDoor(t *testing.T) {
	addr := fakeDispatcher(t)
	c := newTestCar(t, "C", addr)
	runCarInBackground(t, c)

	client, err := ipc.Dial(c.SocketPath(), time.Second)
	require.NoError(t, err)
	defer client.Close()

	doOp(t, client, OpOpen)
	require.Eventually(t, func() bool {
		return c.State.Snapshot().Status == state.Open
	}, time.Second, 5*time.Millisecond)

	_, err = client.SetObstruction(true)
	require.NoError(t, err)
	doOp(t, client, OpClose)
	require.Eventually(t, func() bool {
		return c.State.Snapshot().Status == state.Closing
	}, time.Second, 5*time.Millisecond)

	// A zero wait runs the cycle at once, while the door is still Closing;
	// a longer wait would first wake on the Closing->Closed transition.
	_, err = client.WaitAndCycle(0)
	require.NoError(t, err)

	snap := c.State.Snapshot()
	require.True(t, snap.Status == state.Opening || snap.Status == state.Open)
}

func TestCarEmergencyStopArmsEmergencyModeViaSafetyCycle(t *testing.T) {
	addr := fakeDispatcher(t)
	c := newTestCar(t, "D", addr)
	runCarInBackground(t, c)

	client, err := ipc.Dial(c.SocketPath(), time.Second)
	require.NoError(t, err)
	defer client.Close()

	doOp(t, client, OpStop)

	_, err = client.WaitAndCycle(50 * time.Millisecond)
	require.NoError(t, err)

	snap := c.State.Snapshot()
	require.True(t, snap.EmergencyMode)
}
