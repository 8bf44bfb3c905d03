package safety

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathomworks/multicar-elevator/internal/floor"
	"github.com/fathomworks/multicar-elevator/internal/state"
)

func newTestState(t *testing.T) *state.State {
	t.Helper()
	lo, err := floor.Parse("1")
	require.NoError(t, err)
	hi, err := floor.Parse("10")
	require.NoError(t, err)
	return state.New("A", lo, hi)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestRunCycleBootstrapsSafetySystemToOne(t *testing.T) {
	s := newTestState(t)
	s.Lock()
	s.SafetySystem = 0
	changed := RunCycle(s, "A", testLogger())
	s.Unlock()

	assert.True(t, changed)
	assert.Equal(t, 1, s.Snapshot().SafetySystem)
}

func TestRunCycleReversesObstructedClosingDoor(t *testing.T) {
	s := newTestState(t)
	s.Lock()
	s.SetStatus(state.Closing)
	s.DoorObstruction = true
	changed := RunCycle(s, "A", testLogger())
	s.Unlock()

	assert.True(t, changed)
	assert.Equal(t, state.Opening, s.Snapshot().Status)
}

func TestRunCycleArmsEmergencyModeOnStopButton(t *testing.T) {
	s := newTestState(t)
	s.Lock()
	s.EmergencyStop = true
	changed := RunCycle(s, "A", testLogger())
	s.Unlock()

	snap := s.Snapshot()
	assert.True(t, changed)
	assert.True(t, snap.EmergencyMode)
	assert.False(t, snap.EmergencyStop)
}

func TestRunCycleArmsEmergencyModeOnOverload(t *testing.T) {
	s := newTestState(t)
	s.Lock()
	s.Overload = true
	changed := RunCycle(s, "A", testLogger())
	s.Unlock()

	assert.True(t, changed)
	assert.True(t, s.Snapshot().EmergencyMode)
}

func TestRunCycleArmsEmergencyModeOnInvariantViolation(t *testing.T) {
	s := newTestState(t)
	s.Lock()
	s.SetStatus(state.Open)
	s.DoorObstruction = true // invalid outside Opening/Closing
	changed := RunCycle(s, "A", testLogger())
	s.Unlock()

	assert.True(t, changed)
	assert.True(t, s.Snapshot().EmergencyMode)
}

func TestRunCycleNeverClearsEmergencyMode(t *testing.T) {
	s := newTestState(t)
	s.Lock()
	s.SafetySystem = 1
	s.EmergencyMode = true
	changed := RunCycle(s, "A", testLogger())
	s.Unlock()

	assert.False(t, changed)
	assert.True(t, s.Snapshot().EmergencyMode)
}

func TestRunCycleIsNoOpOnHealthyState(t *testing.T) {
	s := newTestState(t)
	s.Lock()
	s.SafetySystem = 1
	changed := RunCycle(s, "A", testLogger())
	s.Unlock()

	assert.False(t, changed)
}
