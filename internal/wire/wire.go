// Package wire implements the length-prefixed ASCII framing shared by the
// dispatcher's TCP protocol and the car's local IPC protocol (see §0 of
// SPEC_FULL.md for why the latter reuses it instead of a second framer).
//
// Every message is a 2-byte unsigned big-endian length followed by that
// many bytes of ASCII text, with no terminator.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/fathomworks/multicar-elevator/internal/errs"
)

// MaxMessageLen is the largest body a 2-byte length prefix can describe.
const MaxMessageLen = 1<<16 - 1

// WriteMessage frames body and writes it to w, retrying on short writes.
func WriteMessage(w io.Writer, body []byte) error {
	if len(body) > MaxMessageLen {
		return errs.NewProtocol("message exceeds maximum frame length", nil).
			WithContext("length", len(body))
	}

	header := make([]byte, 2)
	binary.BigEndian.PutUint16(header, uint16(len(body)))

	if _, err := writeFull(w, header); err != nil {
		return err
	}
	if _, err := writeFull(w, body); err != nil {
		return err
	}
	return nil
}

// writeFull retries partial writes, the way the source's blocking sockets
// retry on EINTR/EWOULDBLOCK (§5).
func writeFull(w io.Writer, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := w.Write(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ReadMessage reads one length-prefixed frame from r. It blocks until a
// full frame (or an error) arrives; callers that want the car's
// non-blocking poll behaviour should run this with a deadline set on the
// underlying connection.
func ReadMessage(r io.Reader) ([]byte, error) {
	header := make([]byte, 2)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	n := binary.BigEndian.Uint16(header)
	body := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, err
		}
	}
	return body, nil
}

// WriteString is a convenience wrapper for framing a plain-text message.
func WriteString(w io.Writer, s string) error {
	return WriteMessage(w, []byte(s))
}

// ReadString is a convenience wrapper for ReadMessage that returns the
// frame body as a string.
func ReadString(r io.Reader) (string, error) {
	b, err := ReadMessage(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Fprintf frames fmt.Sprintf(format, args...) and writes it to w.
func Fprintf(w io.Writer, format string, args ...any) error {
	return WriteString(w, fmt.Sprintf(format, args...))
}
