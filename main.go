package main

import (
	"context"
	"os"
	"os/signal"
	"runtime/debug"

	"github.com/crillab/sparsenum/cmd"
)

func main() {
	debug.SetGCPercent(300)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := cmd.NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
