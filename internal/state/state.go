// Package state implements the per-car shared-state record (§3). The
// source places this record in cross-process shared memory guarded by a
// process-shared mutex and condition variable; SPEC_FULL.md §0 explains
// why this port instead keeps the record in the owning car process and
// exposes it to other processes (button clients, the safety monitor)
// through the IPC layer in internal/ipc, which serialises every remote
// mutation through the same in-process mutex used here.
package state

import (
	"sync"
	"time"

	"github.com/fathomworks/multicar-elevator/internal/errs"
	"github.com/fathomworks/multicar-elevator/internal/floor"
)

// Status is one of the five door/motion states a car can be in.
type Status string

const (
	Opening Status = "Opening"
	Open    Status = "Open"
	Closing Status = "Closing"
	Closed  Status = "Closed"
	Between Status = "Between"
)

// Valid reports whether s is one of the five named states.
func (s Status) Valid() bool {
	switch s {
	case Opening, Open, Closing, Closed, Between:
		return true
	}
	return false
}

// SafetySystem values: 0 uninitialised, 1-2 healthy, 3 failed.
const (
	SafetyUninitialised = 0
	SafetyFailed        = 3
)

// State is the shared-state record for one car. It is safe for concurrent
// use by the car's state-machine loop, its network thread, and the IPC
// handlers that service remote button clients and the safety monitor.
//
// Callers that need to inspect or mutate more than one field atomically
// must hold the lock across the whole sequence; Lock/Unlock are exported
// for exactly that reason instead of wrapping every field in its own
// synchronized getter/setter, matching §4.2's "under the shared-state
// mutex" discipline.
type State struct {
	mu sync.Mutex

	// changed is closed and replaced on every Broadcast, waking every
	// goroutine parked in WaitTimeout. This is the channel-based stand-in
	// for the source's condition variable; the car's own network thread
	// uses the same wake-on-channel idiom for its switch-on loop.
	changed chan struct{}

	Name            string
	Lowest, Highest floor.Label

	CurrentFloor     floor.Label
	DestinationFloor floor.Label
	Status           Status

	OpenButton            bool
	CloseButton           bool
	DoorObstruction       bool
	Overload              bool
	EmergencyStop         bool
	IndividualServiceMode bool
	EmergencyMode         bool

	SafetySystem int

	// PhaseStart is when Status last changed, the reference point for the
	// delay_ms timers in §4.2 (door dwell, floor-to-floor travel). Always
	// set through SetStatus so it never drifts out of sync with Status.
	PhaseStart time.Time
}

// New creates a state record for a car spanning [lowest, highest], parked
// at lowest with doors closed, matching the source's cold-start posture.
func New(name string, lowest, highest floor.Label) *State {
	return &State{
		changed:          make(chan struct{}),
		Name:             name,
		Lowest:           lowest,
		Highest:          highest,
		CurrentFloor:     lowest,
		DestinationFloor: lowest,
		Status:           Closed,
		PhaseStart:       time.Now(),
	}
}

// SetStatus changes Status and records the transition time in PhaseStart.
// The caller must hold the lock. Every writer that changes Status should
// go through SetStatus rather than assigning the field directly, so
// PhaseStart-based delay checks never read a stale timestamp.
func (s *State) SetStatus(status Status) {
	s.Status = status
	s.PhaseStart = time.Now()
}

// Lock acquires the state mutex.
func (s *State) Lock() { s.mu.Lock() }

// Unlock releases the state mutex.
func (s *State) Unlock() { s.mu.Unlock() }

// Broadcast wakes every goroutine currently parked in WaitTimeout. The
// caller must hold the lock.
func (s *State) Broadcast() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// WaitTimeout releases the lock, blocks until Broadcast is called or d
// elapses, then reacquires the lock before returning. The caller must
// hold the lock on entry, matching sync.Cond.Wait's contract.
func (s *State) WaitTimeout(d time.Duration) {
	ch := s.changed
	s.mu.Unlock()
	select {
	case <-ch:
	case <-time.After(d):
	}
	s.mu.Lock()
}

// ConsumeOpenButton reports and clears the open-button flag. Button flags
// are consumed on observation per §4.2.
func (s *State) ConsumeOpenButton() bool {
	pressed := s.OpenButton
	s.OpenButton = false
	return pressed
}

// ConsumeCloseButton reports and clears the close-button flag.
func (s *State) ConsumeCloseButton() bool {
	pressed := s.CloseButton
	s.CloseButton = false
	return pressed
}

// Snapshot is an immutable, lock-free copy of the record used to build
// STATUS wire messages and IPC responses without holding the mutex open
// across I/O.
type Snapshot struct {
	Name                  string
	CurrentFloor          floor.Label
	DestinationFloor      floor.Label
	Status                Status
	OpenButton            bool
	CloseButton           bool
	DoorObstruction       bool
	Overload              bool
	EmergencyStop         bool
	IndividualServiceMode bool
	EmergencyMode         bool
	SafetySystem          int
}

// Snapshot copies the current record under the lock.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.SnapshotLocked()
}

// SnapshotLocked copies the current record without acquiring the lock.
// The caller must already hold it; this exists for callers (like the IPC
// WAIT_AND_CYCLE handler) that need a snapshot as part of a larger
// already-locked sequence.
func (s *State) SnapshotLocked() Snapshot {
	return Snapshot{
		Name:                  s.Name,
		CurrentFloor:          s.CurrentFloor,
		DestinationFloor:      s.DestinationFloor,
		Status:                s.Status,
		OpenButton:            s.OpenButton,
		CloseButton:           s.CloseButton,
		DoorObstruction:       s.DoorObstruction,
		Overload:              s.Overload,
		EmergencyStop:         s.EmergencyStop,
		IndividualServiceMode: s.IndividualServiceMode,
		EmergencyMode:         s.EmergencyMode,
		SafetySystem:          s.SafetySystem,
	}
}

// ValidateInvariants checks the §3 invariants that apply at the record
// level (the no-duplicate-floors queue invariant lives in the dispatcher
// registry instead). The caller must hold the lock.
func (s *State) ValidateInvariants() error {
	if !s.Status.Valid() {
		return errs.NewInternal("status is not one of the five named states", nil).
			WithContext("status", string(s.Status))
	}
	if s.SafetySystem < 0 || s.SafetySystem > SafetyFailed {
		return errs.NewInternal("safety_system out of range", nil).
			WithContext("safety_system", s.SafetySystem)
	}
	if s.DoorObstruction && s.Status != Opening && s.Status != Closing {
		return errs.NewInternal("door_obstruction set outside Opening/Closing", nil).
			WithContext("status", string(s.Status))
	}
	if floor.Compare(s.CurrentFloor, s.Lowest) < 0 || floor.Compare(s.CurrentFloor, s.Highest) > 0 {
		return errs.NewInternal("current_floor out of car range", nil).
			WithContext("current_floor", s.CurrentFloor.String())
	}
	if floor.Compare(s.DestinationFloor, s.Lowest) < 0 || floor.Compare(s.DestinationFloor, s.Highest) > 0 {
		return errs.NewInternal("destination_floor out of car range", nil).
			WithContext("destination_floor", s.DestinationFloor.String())
	}
	return nil
}
