package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/task-agents/native-host/cmd"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx, cmd.Metadata{Version: version, Commit: commit, Date: date}); err != nil {
		stop()
		os.Exit(1)
	}
}
