package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fathomworks/multicar-elevator/internal/state"
)

// TestSelectCarScenario reproduces §8 scenario 2: car A (1-10, at 1) and
// car B (1-10, at 5); call 6 8 selects B on ETA (1 vs 5).
func TestSelectCarScenario(t *testing.T) {
	cars := map[string]*carRecord{
		"A": {Name: "A", Lowest: lbl(t, "1"), Highest: lbl(t, "10"), Connected: true,
			Status: state.Closed, Current: lbl(t, "1"), Destination: lbl(t, "1")},
		"B": {Name: "B", Lowest: lbl(t, "1"), Highest: lbl(t, "10"), Connected: true,
			Status: state.Closed, Current: lbl(t, "5"), Destination: lbl(t, "5")},
	}

	got := selectCar(cars, lbl(t, "6"), lbl(t, "8"))
	require.NotNil(t, got)
	require.Equal(t, "B", got.Name)
}

func TestSelectCarSkipsDisconnectedAndOutOfRange(t *testing.T) {
	cars := map[string]*carRecord{
		"A": {Name: "A", Lowest: lbl(t, "1"), Highest: lbl(t, "10"), Connected: false,
			Status: state.Closed, Current: lbl(t, "1"), Destination: lbl(t, "1")},
		"B": {Name: "B", Lowest: lbl(t, "1"), Highest: lbl(t, "4"), Connected: true,
			Status: state.Closed, Current: lbl(t, "1"), Destination: lbl(t, "1")},
	}

	got := selectCar(cars, lbl(t, "6"), lbl(t, "8"))
	require.Nil(t, got)
}

func TestSelectCarTieBreaksOnLexicographicallySmallerName(t *testing.T) {
	cars := map[string]*carRecord{
		"Zeta": {Name: "Zeta", Lowest: lbl(t, "1"), Highest: lbl(t, "10"), Connected: true,
			Status: state.Closed, Current: lbl(t, "1"), Destination: lbl(t, "1")},
		"Alpha": {Name: "Alpha", Lowest: lbl(t, "1"), Highest: lbl(t, "10"), Connected: true,
			Status: state.Closed, Current: lbl(t, "1"), Destination: lbl(t, "1")},
	}

	got := selectCar(cars, lbl(t, "1"), lbl(t, "2"))
	require.NotNil(t, got)
	require.Equal(t, "Alpha", got.Name)
}
