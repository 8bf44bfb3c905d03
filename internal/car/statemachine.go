package car

import (
	"context"
	"time"

	"github.com/fathomworks/multicar-elevator/internal/floor"
	"github.com/fathomworks/multicar-elevator/internal/state"
)

// runStateMachine is the car's main loop (§4.2). Every iteration
// re-acquires the lock, re-reads Status fresh, and acts on exactly one
// transition before releasing the lock again — so a status changed out
// from under it by the network thread or an IPC-driven safety cycle is
// always observed on the very next pass, which is how preemption (e.g.
// the safety monitor reversing a Closing door) takes effect per §5's
// ordering guarantees.
func runStateMachine(ctx context.Context, s *state.State, delay, idleTimeout time.Duration) {
	for {
		if ctx.Err() != nil {
			return
		}

		s.Lock()
		var transitioned bool
		switch s.Status {
		case state.Closed:
			transitioned = stepClosed(s)
		case state.Opening:
			transitioned = stepOpening(s, delay)
		case state.Open:
			transitioned = stepOpen(s, delay)
		case state.Closing:
			transitioned = stepClosing(s, delay)
		case state.Between:
			transitioned = stepBetween(s, delay)
		}
		if !transitioned {
			s.WaitTimeout(idleTimeout)
		}
		s.Unlock()
	}
}

func stepClosed(s *state.State) bool {
	if s.ConsumeOpenButton() {
		s.SetStatus(state.Opening)
		s.Broadcast()
		return true
	}

	if floor.Compare(s.CurrentFloor, s.DestinationFloor) != 0 && !s.EmergencyMode {
		if floor.Compare(s.DestinationFloor, s.Lowest) < 0 || floor.Compare(s.DestinationFloor, s.Highest) > 0 {
			s.DestinationFloor = s.CurrentFloor
			return false
		}
		s.SetStatus(state.Between)
		s.Broadcast()
		return true
	}
	return false
}

func stepOpening(s *state.State, delay time.Duration) bool {
	if time.Since(s.PhaseStart) >= delay {
		s.SetStatus(state.Open)
		s.Broadcast()
		return true
	}
	return false
}

func stepOpen(s *state.State, delay time.Duration) bool {
	if s.ConsumeOpenButton() {
		s.PhaseStart = time.Now() // dwell extended
		return true
	}
	if s.ConsumeCloseButton() {
		s.SetStatus(state.Closing)
		s.Broadcast()
		return true
	}
	if !s.IndividualServiceMode && time.Since(s.PhaseStart) >= delay {
		s.SetStatus(state.Closing)
		s.Broadcast()
		return true
	}
	return false
}

func stepClosing(s *state.State, delay time.Duration) bool {
	if time.Since(s.PhaseStart) >= delay {
		s.SetStatus(state.Closed)
		s.Broadcast()
		return true
	}
	return false
}

func stepBetween(s *state.State, delay time.Duration) bool {
	if time.Since(s.PhaseStart) < delay {
		return false
	}

	next, err := floor.NextToward(s.CurrentFloor, s.DestinationFloor, s.Lowest, s.Highest)
	if err != nil {
		// The destination can't be reached from here; settle in place
		// rather than spin forever re-attempting an invalid step.
		s.DestinationFloor = s.CurrentFloor
		next = s.CurrentFloor
	}
	s.CurrentFloor = next
	s.PhaseStart = time.Now()

	if floor.Compare(s.CurrentFloor, s.DestinationFloor) == 0 {
		if s.IndividualServiceMode {
			s.SetStatus(state.Closed)
		} else {
			s.SetStatus(state.Opening)
		}
	}
	s.Broadcast()
	return true
}
