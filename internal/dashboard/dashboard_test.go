package dashboard

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/fathomworks/multicar-elevator/internal/dispatcher"
	"github.com/fathomworks/multicar-elevator/internal/floor"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustFloor(t *testing.T, s string) floor.Label {
	t.Helper()
	f, err := floor.Parse(s)
	require.NoError(t, err)
	return f
}

func TestDashboardSendsInitialSnapshotThenUpdates(t *testing.T) {
	registry := dispatcher.NewRegistry()
	handler := New(registry, discardLogger(), 10*time.Millisecond, time.Minute, time.Second, time.Minute)

	srv := httptest.NewServer(handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var initial []dispatcher.CarSnapshot
	require.NoError(t, conn.ReadJSON(&initial))
	require.Empty(t, initial)

	registry.Register("A", mustFloor(t, "1"), mustFloor(t, "10"), nil)

	require.Eventually(t, func() bool {
		var snap []dispatcher.CarSnapshot
		if err := conn.ReadJSON(&snap); err != nil {
			return false
		}
		return len(snap) == 1 && snap[0].Name == "A"
	}, time.Second, 5*time.Millisecond)
}

func TestMarshalSnapshotRendersFloorsAsCanonicalStrings(t *testing.T) {
	snap := []dispatcher.CarSnapshot{{Name: "A", Lowest: mustFloor(t, "B1"), Highest: mustFloor(t, "10")}}
	out, err := MarshalSnapshot(snap)
	require.NoError(t, err)
	require.Contains(t, string(out), `"Lowest":"B1"`)
	require.Contains(t, string(out), `"Highest":"10"`)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Equal(t, "B1", decoded[0]["Lowest"])
}
