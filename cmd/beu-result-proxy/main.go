package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cmd "github.com/rohmanhakim/beu-result-proxy/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
