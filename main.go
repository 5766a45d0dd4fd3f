package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/delfianto/compose/cmd"
)

// exitInterrupted is the conventional status for a run cut short by SIGINT.
const exitInterrupted = 130

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.Execute(ctx)
	interrupted := ctx.Err() != nil
	stop()

	switch {
	case interrupted:
		os.Exit(exitInterrupted)
	case err != nil:
		os.Exit(1)
	}
}
