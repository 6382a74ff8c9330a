// Command oneblog-cli is a terminal client for a oneblog server.
//
//	oneblog-cli [-server URL] [-credentials PATH] <command> [flags]
//
// The session token from "login" is kept in the credentials file, and the
// server last logged into becomes the default for later commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
