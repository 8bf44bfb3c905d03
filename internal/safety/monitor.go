// Package safety implements the independent safety monitor's per-cycle
// checks (§4.6). The monitor process itself (cmd/safety) holds a
// persistent IPC connection to its car and repeatedly asks the car to run
// RunCycle under its own lock — see SPEC_FULL.md §0 for why the 1s
// condvar-timed-wait of the source becomes a WAIT_AND_CYCLE round trip
// instead of a thread sharing the car's address space.
package safety

import (
	"log/slog"

	"github.com/fathomworks/multicar-elevator/internal/state"
	"github.com/fathomworks/multicar-elevator/metrics"
)

// RunCycle performs one safety-monitor cycle's checks (§4.6 steps 2-6)
// against s. The caller must hold s's lock; RunCycle never blocks and
// never calls Broadcast itself — callers broadcast once after RunCycle
// reports a change, matching step 7.
func RunCycle(s *state.State, carName string, logger *slog.Logger) (changed bool) {
	if s.SafetySystem != 1 {
		s.SafetySystem = 1
		changed = true
	}

	if s.DoorObstruction && s.Status == state.Closing {
		s.SetStatus(state.Opening)
		metrics.IncDoorReversal(carName)
		changed = true
	}

	if s.EmergencyStop && !s.EmergencyMode {
		logger.Warn("The emergency stop button has been pressed!", slog.String("car", carName))
		s.EmergencyStop = false
		s.EmergencyMode = true
		changed = true
	}

	if s.Overload && !s.EmergencyMode {
		logger.Warn("The overload sensor has been tripped!", slog.String("car", carName))
		s.EmergencyMode = true
		changed = true
	}

	if !s.EmergencyMode {
		if err := s.ValidateInvariants(); err != nil {
			logger.Warn("Data consistency error!", slog.String("car", carName), slog.String("error", err.Error()))
			s.EmergencyMode = true
			changed = true
		}
	}

	return changed
}
