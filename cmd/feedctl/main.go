package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/storyfeed-backend/internal/cli"
	"github.com/yungbote/storyfeed-backend/internal/cli/colours"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(os.Stdout).ExecuteContext(ctx); err != nil {
		colours.Error.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
