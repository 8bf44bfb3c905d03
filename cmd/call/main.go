// Command call is a one-shot hall-call client (§6): it sends
// `CALL <src> <dst>` to the dispatcher and prints the outcome.
package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/fathomworks/multicar-elevator/internal/floor"
	"github.com/fathomworks/multicar-elevator/internal/wire"
)

const replyTimeout = 4 * time.Second

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: call <src> <dst>")
		os.Exit(1)
	}

	src, err := floor.Parse(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	dst, err := floor.Parse(os.Args[2])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	dispatcherAddr := os.Getenv("DISPATCHER_ADDR")
	if dispatcherAddr == "" {
		dispatcherAddr = "127.0.0.1:3000"
	}

	conn, err := net.DialTimeout("tcp", dispatcherAddr, 2*time.Second)
	if err != nil {
		fmt.Println("Sorry, no car is available to take this request.")
		os.Exit(1)
	}
	defer conn.Close()

	if err := wire.Fprintf(conn, "CALL %s %s", src.String(), dst.String()); err != nil {
		fmt.Println("Sorry, no car is available to take this request.")
		os.Exit(1)
	}

	_ = conn.SetReadDeadline(time.Now().Add(replyTimeout))
	reply, err := wire.ReadString(conn)
	if err != nil {
		fmt.Println("Sorry, no car is available to take this request.")
		os.Exit(1)
	}

	var name string
	if _, scanErr := fmt.Sscanf(reply, "CAR %s", &name); scanErr == nil && name != "" {
		fmt.Printf("Car %s is arriving.\n", name)
		return
	}
	fmt.Println("Sorry, no car is available to take this request.")
}
