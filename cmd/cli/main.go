// Package main is the entry point for plan-picker CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"plan-picker/cmd/cli/cmd"
	"plan-picker/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.Execute(ctx)
	stop()
	logging.Sync()
	if err != nil {
		os.Exit(1)
	}
}
