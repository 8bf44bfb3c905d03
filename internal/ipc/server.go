package ipc

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"os"

	"github.com/fathomworks/multicar-elevator/internal/wire"
)

// Handler executes one parsed request and returns the reply frame body.
// Implementations live in internal/car, which closes over the car's
// state.State; ipc itself knows nothing about the state record's shape.
type Handler func(req Request) string

// Server is a Unix domain socket listener that frames requests/replies
// with internal/wire and dispatches them to a Handler. It plays the role
// of the named shared-memory segment's access point (SPEC_FULL.md §0).
type Server struct {
	path     string
	listener net.Listener
	handler  Handler
	logger   *slog.Logger
}

// Listen removes any stale socket at path and starts listening.
func Listen(path string, handler Handler, logger *slog.Logger) (*Server, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	l, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}

	return &Server{path: path, listener: l, handler: handler, logger: logger}, nil
}

// Serve accepts connections until the listener is closed, handling each
// on its own goroutine. It returns nil when Close causes the accept loop
// to unwind.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	for {
		body, err := wire.ReadMessage(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Debug("ipc connection closed", slog.String("error", err.Error()))
			}
			return
		}

		req, err := ParseRequest(string(body))
		var reply string
		if err != nil {
			reply = ReplyError(err)
		} else {
			reply = s.handler(req)
		}

		if err := wire.WriteString(conn, reply); err != nil {
			s.logger.Debug("ipc reply write failed", slog.String("error", err.Error()))
			return
		}
	}
}

// Close stops accepting connections and unlinks the socket file, matching
// the source's unlink-on-exit lifecycle for the shared-memory segment.
func (s *Server) Close() error {
	err := s.listener.Close()
	if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		if err == nil {
			err = rmErr
		}
	}
	return err
}
