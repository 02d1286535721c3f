package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// ccctl drives the licensing, script and authorization modules against the
// configured backends without going through HTTP.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := execute(ctx, defaultRuntime, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
