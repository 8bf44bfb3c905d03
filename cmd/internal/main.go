// Command internal is a one-shot IPC client for a car's button
// operations (§6): `internal <name> <operation>` where operation is one
// of open, close, stop, service_on, service_off, up, down.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fathomworks/multicar-elevator/internal/config"
	"github.com/fathomworks/multicar-elevator/internal/ipc"
)

var validOperations = map[string]bool{
	"open": true, "close": true, "stop": true,
	"service_on": true, "service_off": true,
	"up": true, "down": true,
}

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: internal <name> <operation>")
		os.Exit(1)
	}
	name, op := os.Args[1], os.Args[2]
	if !validOperations[op] {
		fmt.Fprintf(os.Stderr, "unknown operation %q; expected one of open|close|stop|service_on|service_off|up|down\n", op)
		os.Exit(1)
	}

	socketDir := os.Getenv("CAR_SOCKET_DIR")
	if socketDir == "" {
		socketDir = "/tmp"
	}
	socketPath := config.SocketPath(socketDir, name)

	client, err := ipc.Dial(socketPath, 2*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot reach car %q: %s\n", name, err)
		os.Exit(1)
	}
	defer client.Close()

	reply, err := client.Operation(op)
	if err != nil {
		fmt.Fprintf(os.Stderr, "request to car %q failed: %s\n", name, err)
		os.Exit(1)
	}

	if strings.HasPrefix(reply, "ERROR") {
		fmt.Fprintln(os.Stderr, strings.TrimPrefix(reply, "ERROR "))
		os.Exit(1)
	}
	fmt.Println(reply)
}
