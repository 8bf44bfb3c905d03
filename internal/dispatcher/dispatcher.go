package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fathomworks/multicar-elevator/internal/errs"
	"github.com/fathomworks/multicar-elevator/internal/floor"
	"github.com/fathomworks/multicar-elevator/internal/logging"
	"github.com/fathomworks/multicar-elevator/internal/state"
	"github.com/fathomworks/multicar-elevator/internal/telemetry"
	"github.com/fathomworks/multicar-elevator/internal/wire"
	"github.com/fathomworks/multicar-elevator/metrics"
)

// Dispatcher is the controller process's TCP server (§4.4). Each inbound
// connection is handled on its own goroutine; a single dispatcher-wide
// mutex inside Registry serialises all updates to car records and
// queues.
type Dispatcher struct {
	registry        *Registry
	logger          *slog.Logger
	listener        net.Listener
	callReadTimeout time.Duration
	tracer          trace.Tracer
}

// New creates a dispatcher with an empty car table. callReadTimeout
// bounds how long a one-shot CALL connection's initial read may block,
// so a client that connects without ever sending a request cannot pin a
// goroutine forever.
func New(logger *slog.Logger, callReadTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		registry:        NewRegistry(),
		logger:          logger,
		callReadTimeout: callReadTimeout,
		tracer:          telemetry.New("dispatcher").Tracer(),
	}
}

// Registry exposes the car table for the dashboard's status feed.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Serve binds addr and runs the accept loop until ctx is cancelled.
func (d *Dispatcher) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errs.NewInternal("failed to bind dispatcher listen address", err).WithContext("addr", addr)
	}
	d.logger.Info("dispatcher listening", slog.String("addr", addr))
	return d.serveListener(ctx, ln)
}

// serveListener runs the accept loop over an already-bound listener,
// split out from Serve so tests can bind an ephemeral port themselves.
func (d *Dispatcher) serveListener(ctx context.Context, ln net.Listener) error {
	d.listener = ln

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go d.handleConn(conn)
	}
}

// handleConn reads the first message to classify the peer, then hands
// off to the matching long-lived or one-shot handler (§4.4).
func (d *Dispatcher) handleConn(conn net.Conn) {
	defer conn.Close()

	if d.callReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(d.callReadTimeout))
	}
	body, err := wire.ReadString(conn)
	if err != nil {
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	switch {
	case strings.HasPrefix(body, "CAR "):
		d.handleCar(conn, body)
	case strings.HasPrefix(body, "CALL "):
		d.handleCall(conn, body)
	default:
		d.logger.Warn("dispatcher received an unrecognised first message", slog.String("body", body))
	}
}

// handleCar registers the car and then loops reading its status/
// emergency messages for the lifetime of the connection.
func (d *Dispatcher) handleCar(conn net.Conn, first string) {
	fields := strings.Fields(first)
	if len(fields) != 4 {
		d.logger.Warn("malformed CAR message", slog.String("body", first))
		return
	}
	name := fields[1]
	lowest, err := floor.Parse(fields[2])
	if err != nil {
		d.logger.Warn("CAR message has an invalid lowest floor", slog.String("car", name), slog.String("error", err.Error()))
		return
	}
	highest, err := floor.Parse(fields[3])
	if err != nil {
		d.logger.Warn("CAR message has an invalid highest floor", slog.String("car", name), slog.String("error", err.Error()))
		return
	}

	d.registry.Register(name, lowest, highest, conn)
	d.logger.Info("car connected", slog.String("car", name), slog.String("lowest", lowest.String()), slog.String("highest", highest.String()))
	defer d.registry.Disconnect(name)
	defer d.logger.Info("car disconnected", slog.String("car", name))

	for {
		body, err := wire.ReadString(conn)
		if err != nil {
			return
		}
		d.handleCarMessage(name, body)
	}
}

func (d *Dispatcher) handleCarMessage(name, body string) {
	switch {
	case strings.HasPrefix(body, "STATUS "):
		d.handleStatus(name, body)
	case body == "EMERGENCY":
		d.logger.Warn("car reported emergency", slog.String("car", name))
		d.registry.Disconnect(name)
	case body == "INDIVIDUAL SERVICE":
		d.logger.Info("car entered individual service mode", slog.String("car", name))
		d.registry.Disconnect(name)
	default:
		d.logger.Warn("unrecognised car message", slog.String("car", name), slog.String("body", body))
	}
}

func (d *Dispatcher) handleStatus(name, body string) {
	fields := strings.Fields(body)
	if len(fields) != 4 {
		d.logger.Warn("malformed STATUS message", slog.String("car", name), slog.String("body", body))
		return
	}
	status := state.Status(fields[1])
	current, err := floor.Parse(fields[2])
	if err != nil {
		return
	}
	destination, err := floor.Parse(fields[3])
	if err != nil {
		return
	}

	newHead, hasNewHead := d.registry.UpdateStatus(name, status, current, destination)
	if hasNewHead {
		d.sendFloor(context.Background(), name, newHead)
	}
}

// handleCall is the one-shot CALL client handler (§4.4's call-handling
// sequence).
func (d *Dispatcher) handleCall(conn net.Conn, body string) {
	callID := logging.NewCallID()
	ctx := logging.WithCallID(context.Background(), callID)
	ctx, span := d.tracer.Start(ctx, "dispatcher.handle_call")
	defer span.End()
	span.SetAttributes(attribute.String("call.id", callID))
	logger := d.logger.With(slog.String("call_id", callID))

	start := time.Now()
	defer func() { metrics.ObserveCallDuration(time.Since(start).Seconds()) }()

	fields := strings.Fields(body)
	if len(fields) != 3 {
		span.SetStatus(codes.Error, "malformed CALL message")
		logger.Warn("malformed CALL message", slog.String("body", body))
		_ = wire.WriteString(conn, "UNAVAILABLE")
		return
	}
	src, err := floor.Parse(fields[1])
	if err != nil {
		span.SetStatus(codes.Error, "invalid source floor")
		_ = wire.WriteString(conn, "UNAVAILABLE")
		return
	}
	dst, err := floor.Parse(fields[2])
	if err != nil {
		span.SetStatus(codes.Error, "invalid destination floor")
		_ = wire.WriteString(conn, "UNAVAILABLE")
		return
	}
	span.SetAttributes(attribute.String("call.src", src.String()), attribute.String("call.dst", dst.String()))

	name, newHead, headChanged, ok := d.registry.HandleCall(src, dst)
	if !ok {
		metrics.IncCallOutcome("unavailable")
		span.SetStatus(codes.Error, "no car available")
		logger.Info("call unavailable", slog.String("src", src.String()), slog.String("dst", dst.String()))
		_ = wire.WriteString(conn, "UNAVAILABLE")
		return
	}
	span.SetAttributes(attribute.String("call.assigned_car", name))
	logger.Info("call assigned", slog.String("src", src.String()), slog.String("dst", dst.String()), slog.String("car", name))

	metrics.IncCallOutcome("assigned")
	if headChanged {
		d.sendFloor(ctx, name, newHead)
	}
	for _, snap := range d.registry.Snapshot() {
		if snap.Name == name {
			metrics.SetQueueDepth(name, snap.QueueLen)
		}
	}
	_ = wire.WriteString(conn, fmt.Sprintf("CAR %s", name))
}

func (d *Dispatcher) sendFloor(ctx context.Context, name string, target floor.Label) {
	_, span := d.tracer.Start(ctx, "dispatcher.send_floor")
	defer span.End()
	span.SetAttributes(attribute.String("car", name), attribute.String("target_floor", target.String()))

	conn := d.registry.connOf(name)
	if conn == nil {
		span.SetStatus(codes.Error, "car not connected")
		return
	}
	if err := wire.Fprintf(conn, "FLOOR %s", target.String()); err != nil {
		span.SetStatus(codes.Error, err.Error())
		d.logger.Warn("failed to send FLOOR to car", slog.String("car", name), slog.String("error", err.Error()))
	}
}
