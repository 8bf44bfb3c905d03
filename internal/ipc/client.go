package ipc

import (
	"fmt"
	"net"
	"time"

	"github.com/fathomworks/multicar-elevator/internal/wire"
)

// Client is a connection to a car's IPC server.
type Client struct {
	conn net.Conn
}

// Dial connects to the car listening at path.
func Dial(path string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, timeout)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

// Call sends one request and waits for its reply, used by one-shot
// button clients.
func (c *Client) Call(command string, args ...string) (string, error) {
	if err := wire.WriteString(c.conn, formatRequest(command, args)); err != nil {
		return "", err
	}
	return wire.ReadString(c.conn)
}

// CallWithDeadline is Call with a read deadline, used by the safety
// monitor's WAIT_AND_CYCLE loop so a wedged car process cannot hang it
// forever.
func (c *Client) CallWithDeadline(deadline time.Duration, command string, args ...string) (string, error) {
	if err := c.conn.SetDeadline(time.Now().Add(deadline)); err != nil {
		return "", err
	}
	defer c.conn.SetDeadline(time.Time{})
	return c.Call(command, args...)
}

func formatRequest(command string, args []string) string {
	out := command
	for _, a := range args {
		out += " " + a
	}
	return out
}

// Get fetches the car's current snapshot as a raw SNAPSHOT reply body.
func (c *Client) Get() (string, error) {
	return c.Call(CmdGet)
}

// Operation sends one of the seven documented internal operations
// (open/close/stop/service_on/service_off/up/down).
func (c *Client) Operation(op string) (string, error) {
	return c.Call(opCommand(op))
}

func opCommand(op string) string {
	switch op {
	case "open":
		return CmdOpen
	case "close":
		return CmdClose
	case "stop":
		return CmdStop
	case "service_on":
		return CmdServiceOn
	case "service_off":
		return CmdServiceOff
	case "up":
		return CmdUp
	case "down":
		return CmdDown
	default:
		return fmt.Sprintf("UNKNOWN_%s", op)
	}
}

// SetObstruction is a test/simulation hook (not part of the documented
// CLI surface) that drives the door_obstruction sensor flag directly,
// used to exercise §8 scenario 4 without a physical sensor.
func (c *Client) SetObstruction(on bool) (string, error) {
	return c.Call(CmdSetObstructed, boolField(on))
}

// SetOverload is the equivalent test/simulation hook for the overload
// sensor flag.
func (c *Client) SetOverload(on bool) (string, error) {
	return c.Call(CmdSetOverload, boolField(on))
}

// WaitAndCycle asks the car to run one safety cycle: wait up to
// timeout for a state change, then run the §4.6 checks atomically
// under the car's own lock, returning the resulting snapshot.
func (c *Client) WaitAndCycle(timeout time.Duration) (string, error) {
	ms := timeout.Milliseconds()
	return c.CallWithDeadline(timeout+5*time.Second, CmdWaitAndCycle, fmt.Sprintf("%d", ms))
}
