package car

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fathomworks/multicar-elevator/internal/floor"
	"github.com/fathomworks/multicar-elevator/internal/state"
	"github.com/fathomworks/multicar-elevator/internal/telemetry"
	"github.com/fathomworks/multicar-elevator/internal/wire"
	"github.com/fathomworks/multicar-elevator/metrics"
)

// networkThread is the car process's second cooperating task (§4.3): it
// owns the TCP session to the dispatcher and the safety_system heartbeat.
type networkThread struct {
	st             *state.State
	name           string
	lowest, highest string

	dispatcherAddr string
	cycle          time.Duration
	dialTimeout    time.Duration
	pollTimeout    time.Duration

	breaker *circuitBreaker
	logger  *slog.Logger
	tracer  trace.Tracer

	conn           net.Conn
	lastSentStatus string
}

func newNetworkThread(st *state.State, name string, dispatcherAddr string, cycle, dialTimeout, pollTimeout time.Duration, breakerMaxFailures int, breakerResetTimeout time.Duration, logger *slog.Logger) *networkThread {
	return &networkThread{
		st:             st,
		name:           name,
		lowest:         st.Lowest.String(),
		highest:        st.Highest.String(),
		dispatcherAddr: dispatcherAddr,
		cycle:          cycle,
		dialTimeout:    dialTimeout,
		pollTimeout:    pollTimeout,
		breaker:        newCircuitBreaker(breakerMaxFailures, breakerResetTimeout),
		logger:         logger,
		tracer:         telemetry.New("car").Tracer(),
	}
}

// run is the thread's main loop: one tick per cycle, using the shared
// condition variable for its own sleep so a Broadcast elsewhere (a button
// press, a safety cycle) can wake it early to mirror status sooner.
func (n *networkThread) run(ctx context.Context) {
	defer n.closeConn()

	for {
		if ctx.Err() != nil {
			return
		}

		n.tick()

		n.st.Lock()
		n.st.WaitTimeout(n.cycle)
		n.st.Unlock()
	}
}

func (n *networkThread) tick() {
	n.st.Lock()
	intendedConnected := (n.st.SafetySystem == 1 || n.st.SafetySystem == 2) &&
		!n.st.IndividualServiceMode && !n.st.EmergencyMode
	serviceMode := n.st.IndividualServiceMode
	n.st.Unlock()

	if intendedConnected && n.conn == nil {
		n.connect()
	}
	if !intendedConnected && n.conn != nil {
		if serviceMode {
			_ = wire.WriteString(n.conn, "INDIVIDUAL SERVICE")
		}
		n.closeConn()
	}
	if n.conn != nil {
		n.sendStatus()
	}
	if n.conn != nil {
		n.pollInbound()
	}

	n.st.Lock()
	n.st.SafetySystem++
	if n.st.SafetySystem > state.SafetyFailed {
		n.st.SafetySystem = state.SafetyFailed
	}
	saturated := n.st.SafetySystem == state.SafetyFailed
	if saturated && !n.st.EmergencyMode {
		n.st.EmergencyMode = true
		n.st.Broadcast()
	}
	conn := n.conn
	n.st.Unlock()

	if saturated {
		metrics.IncHeartbeatFailure(n.name)
		n.logger.Warn("safety heartbeat failed; entering emergency mode", slog.String("car", n.name))
		if conn != nil {
			_ = wire.WriteString(conn, "EMERGENCY")
			n.closeConn()
		}
	}
}

func (n *networkThread) connect() {
	err := n.breaker.Execute(context.Background(), func() error {
		conn, dialErr := net.DialTimeout("tcp", n.dispatcherAddr, n.dialTimeout)
		if dialErr != nil {
			return dialErr
		}
		if writeErr := wire.Fprintf(conn, "CAR %s %s %s", n.name, n.lowest, n.highest); writeErr != nil {
			conn.Close()
			return writeErr
		}
		n.conn = conn
		n.lastSentStatus = ""
		return nil
	})
	if err != nil {
		n.logger.Debug("dispatcher dial failed", slog.String("car", n.name), slog.String("error", err.Error()))
	}
}

func (n *networkThread) sendStatus() {
	snap := n.st.Snapshot()
	msg := fmt.Sprintf("STATUS %s %s %s", snap.Status, snap.CurrentFloor.String(), snap.DestinationFloor.String())
	if msg == n.lastSentStatus {
		return
	}
	if err := wire.WriteString(n.conn, msg); err != nil {
		n.closeConn()
		return
	}
	n.lastSentStatus = msg
}

func (n *networkThread) pollInbound() {
	if n.conn == nil {
		return
	}
	if err := n.conn.SetReadDeadline(time.Now().Add(n.pollTimeout)); err != nil {
		return
	}
	body, err := wire.ReadString(n.conn)
	_ = n.conn.SetReadDeadline(time.Time{})
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return
		}
		n.closeConn()
		return
	}

	label, ok := strings.CutPrefix(body, "FLOOR ")
	if !ok {
		return
	}
	target, err := floor.Parse(label)
	if err != nil {
		n.logger.Warn("dispatcher sent an invalid floor target", slog.String("car", n.name), slog.String("label", label))
		return
	}

	_, span := n.tracer.Start(context.Background(), "car.apply_scan_target")
	defer span.End()
	span.SetAttributes(attribute.String("car", n.name), attribute.String("target_floor", target.String()))

	n.st.Lock()
	if n.st.Status == state.Closed && floor.Compare(target, n.st.CurrentFloor) == 0 {
		n.st.SetStatus(state.Opening)
	} else {
		n.st.DestinationFloor = target
	}
	n.st.Broadcast()
	n.st.Unlock()
}

func (n *networkThread) closeConn() {
	if n.conn == nil {
		return
	}
	n.conn.Close()
	n.conn = nil
	n.lastSentStatus = ""
}
