package car

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/fathomworks/multicar-elevator/internal/errs"
	"github.com/fathomworks/multicar-elevator/internal/floor"
	"github.com/fathomworks/multicar-elevator/internal/ipc"
	"github.com/fathomworks/multicar-elevator/internal/safety"
	"github.com/fathomworks/multicar-elevator/internal/state"
	"github.com/fathomworks/multicar-elevator/metrics"
)

// Operation names accepted by the `internal` CLI tool (§6).
const (
	OpOpen       = "open"
	OpClose      = "close"
	OpStop       = "stop"
	OpServiceOn  = "service_on"
	OpServiceOff = "service_off"
	OpUp         = "up"
	OpDown       = "down"
)

// ApplyOperation performs one of the seven documented button-client
// operations against s. up/down are only valid in service mode with the
// car Closed (§6); a rejected up/down explains why, per §7's single-line
// diagnostic requirement.
func ApplyOperation(s *state.State, op string) error {
	s.Lock()
	defer s.Unlock()

	switch op {
	case OpOpen:
		s.OpenButton = true
	case OpClose:
		s.CloseButton = true
	case OpStop:
		s.EmergencyStop = true
	case OpServiceOn:
		s.IndividualServiceMode = true
	case OpServiceOff:
		s.IndividualServiceMode = false
	case OpUp, OpDown:
		if !s.IndividualServiceMode {
			return errs.NewValidation("up/down require individual service mode", nil)
		}
		if s.Status != state.Closed {
			return errs.NewValidation("up/down require the car to be Closed", nil).
				WithContext("status", string(s.Status))
		}
		target := s.Lowest
		if op == OpUp {
			target = s.Highest
		}
		next, err := floor.NextToward(s.CurrentFloor, target, s.Lowest, s.Highest)
		if err != nil {
			return err
		}
		s.DestinationFloor = next
	default:
		return errs.NewValidation("unknown operation", nil).WithContext("operation", op)
	}

	s.Broadcast()
	return nil
}

// ipcHandler builds the request dispatcher the car's IPC server uses to
// service button clients, the safety monitor, and test simulation hooks.
func ipcHandler(s *state.State, name string, logger *slog.Logger) ipc.Handler {
	return func(req ipc.Request) string {
		switch req.Command {
		case ipc.CmdGet:
			return snapshotReply(s)

		case ipc.CmdOpen, ipc.CmdClose, ipc.CmdStop, ipc.CmdServiceOn, ipc.CmdServiceOff, ipc.CmdUp, ipc.CmdDown:
			op := operationFor(req.Command)
			if err := ApplyOperation(s, op); err != nil {
				return ipc.ReplyError(err)
			}
			metrics.IncCarOperation(name, op)
			return ipc.ReplyOK

		case ipc.CmdSetObstructed:
			return applyBoolFlag(req, func(on bool) { s.DoorObstruction = on })

		case ipc.CmdSetOverload:
			return applyBoolFlag(req, func(on bool) { s.Overload = on })

		case ipc.CmdWaitAndCycle:
			return waitAndCycle(s, name, logger, req.Args)

		default:
			return ipc.ReplyError(errs.NewProtocol("unknown IPC command", nil).WithContext("command", req.Command))
		}
	}
}

func operationFor(command string) string {
	switch command {
	case ipc.CmdOpen:
		return OpOpen
	case ipc.CmdClose:
		return OpClose
	case ipc.CmdStop:
		return OpStop
	case ipc.CmdServiceOn:
		return OpServiceOn
	case ipc.CmdServiceOff:
		return OpServiceOff
	case ipc.CmdUp:
		return OpUp
	default:
		return OpDown
	}
}

func applyBoolFlag(req ipc.Request, set func(bool)) string {
	if len(req.Args) != 1 {
		return ipc.ReplyError(errs.NewProtocol("expected exactly one argument", nil))
	}
	on, err := ipc.ParseBoolArg(req.Args[0])
	if err != nil {
		return ipc.ReplyError(err)
	}
	set(on)
	return ipc.ReplyOK
}

func waitAndCycle(s *state.State, name string, logger *slog.Logger, args []string) string {
	timeout := time.Second
	if len(args) == 1 {
		if ms, err := parseMillis(args[0]); err == nil {
			timeout = ms
		}
	}

	s.Lock()
	s.WaitTimeout(timeout)
	changed := safety.RunCycle(s, name, logger)
	if changed {
		s.Broadcast()
	}
	reply := formatSnapshot(s.SnapshotLocked())
	s.Unlock()

	return reply
}

func snapshotReply(s *state.State) string {
	return formatSnapshot(s.Snapshot())
}

func parseMillis(s string) (time.Duration, error) {
	ms, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func formatSnapshot(snap state.Snapshot) string {
	return ipc.FormatSnapshot(
		string(snap.Status),
		snap.CurrentFloor.String(),
		snap.DestinationFloor.String(),
		snap.OpenButton, snap.CloseButton, snap.DoorObstruction, snap.Overload,
		snap.EmergencyStop, snap.IndividualServiceMode, snap.EmergencyMode,
		snap.SafetySystem,
	)
}
