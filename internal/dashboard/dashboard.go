// Package dashboard serves a read-only live view of the car fleet over a
// WebSocket connection, grounded on the teacher's
// internal/http/server.go statusWebSocketHandler: an initial snapshot on
// connect, then a periodic push of the dispatcher's car table plus a
// ping/pong keep-alive, until the client disconnects or the server shuts
// down. Unlike the teacher's handler it has nothing to write back —
// cars and calls are mutated over the TCP/Unix-socket protocols, not
// through this HTTP surface — so the read pump only exists to notice
// the client going away.
package dashboard

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fathomworks/multicar-elevator/internal/dispatcher"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handler upgrades /ws/status requests into a live feed of the
// dispatcher's car table.
type Handler struct {
	registry *dispatcher.Registry
	logger   *slog.Logger

	statusInterval time.Duration
	pingInterval   time.Duration
	writeTimeout   time.Duration
	readTimeout    time.Duration
}

// New builds a dashboard handler over registry. Zero durations fall
// back to the teacher-derived defaults below.
func New(registry *dispatcher.Registry, logger *slog.Logger, statusInterval, pingInterval, writeTimeout, readTimeout time.Duration) *Handler {
	h := &Handler{
		registry:       registry,
		logger:         logger,
		statusInterval: statusInterval,
		pingInterval:   pingInterval,
		writeTimeout:   writeTimeout,
		readTimeout:    readTimeout,
	}
	if h.statusInterval <= 0 {
		h.statusInterval = time.Second
	}
	if h.pingInterval <= 0 {
		h.pingInterval = 20 * time.Second
	}
	if h.writeTimeout <= 0 {
		h.writeTimeout = 5 * time.Second
	}
	if h.readTimeout <= 0 {
		h.readTimeout = 60 * time.Second
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade dashboard connection", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	if err := ws.WriteJSON(h.registry.Snapshot()); err != nil {
		h.logger.Error("failed to send initial dashboard snapshot", slog.String("error", err.Error()))
		return
	}

	statusTicker := time.NewTicker(h.statusInterval)
	defer statusTicker.Stop()
	pingTicker := time.NewTicker(h.pingInterval)
	defer pingTicker.Stop()

	if err := ws.SetReadDeadline(time.Now().Add(h.readTimeout)); err != nil {
		return
	}
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(h.readTimeout))
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return

		case <-pingTicker.C:
			if err := ws.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil {
				return
			}
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-statusTicker.C:
			if err := ws.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil {
				return
			}
			if err := ws.WriteJSON(h.registry.Snapshot()); err != nil {
				return
			}
		}
	}
}

// MarshalSnapshot is exported for callers (tests, debug tooling) that
// want the same JSON shape the WebSocket feed sends without opening a
// connection.
func MarshalSnapshot(snap []dispatcher.CarSnapshot) ([]byte, error) {
	return json.Marshal(snap)
}
