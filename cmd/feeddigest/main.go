package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"FeedDigest/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Execute logs the error through the configured logger.
	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
