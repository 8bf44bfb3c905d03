package state

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathomworks/multicar-elevator/internal/floor"
)

func mustFloor(t *testing.T, label string) floor.Label {
	t.Helper()
	l, err := floor.Parse(label)
	require.NoError(t, err)
	return l
}

func newTestState(t *testing.T) *State {
	t.Helper()
	lo := mustFloor(t, "1")
	hi := mustFloor(t, "10")
	return New("A", lo, hi)
}

func TestNewStateStartsClosedAtLowest(t *testing.T) {
	s := newTestState(t)
	snap := s.Snapshot()
	assert.Equal(t, Closed, snap.Status)
	assert.Equal(t, "1", snap.CurrentFloor.String())
	assert.Equal(t, "1", snap.DestinationFloor.String())
}

func TestConsumeButtonsResetsFlag(t *testing.T) {
	s := newTestState(t)
	s.Lock()
	s.OpenButton = true
	pressed := s.ConsumeOpenButton()
	again := s.ConsumeOpenButton()
	s.Unlock()

	assert.True(t, pressed)
	assert.False(t, again)
}

func TestValidateInvariantsCatchesObstructionOutsideDoorTransit(t *testing.T) {
	s := newTestState(t)
	s.Lock()
	s.Status = Open
	s.DoorObstruction = true
	err := s.ValidateInvariants()
	s.Unlock()

	require.Error(t, err)
}

func TestValidateInvariantsCatchesOutOfRangeFloor(t *testing.T) {
	s := newTestState(t)
	s.Lock()
	s.CurrentFloor = mustFloor(t, "99")
	err := s.ValidateInvariants()
	s.Unlock()

	require.Error(t, err)
}

func TestValidateInvariantsPassesOnFreshState(t *testing.T) {
	s := newTestState(t)
	s.Lock()
	err := s.ValidateInvariants()
	s.Unlock()
	require.NoError(t, err)
}

func TestWaitTimeoutWakesOnBroadcast(t *testing.T) {
	s := newTestState(t)

	var wg sync.WaitGroup
	wg.Add(1)
	woke := make(chan struct{})
	go func() {
		defer wg.Done()
		s.Lock()
		s.WaitTimeout(time.Second)
		s.Unlock()
		close(woke)
	}()

	time.Sleep(20 * time.Millisecond)
	s.Lock()
	s.Broadcast()
	s.Unlock()

	select {
	case <-woke:
	case <-time.After(time.Second):
		t.Fatal("WaitTimeout did not wake on Broadcast")
	}
	wg.Wait()
}

func TestWaitTimeoutExpiresWithoutBroadcast(t *testing.T) {
	s := newTestState(t)
	start := time.Now()
	s.Lock()
	s.WaitTimeout(30 * time.Millisecond)
	s.Unlock()
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}
