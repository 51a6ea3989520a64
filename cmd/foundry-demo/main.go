// Package main provides the entry point for the foundry-demo CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	foundry "github.com/foundry-agents/foundry-go"
	"github.com/foundry-agents/foundry-go/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if apiErr, ok := foundry.AsAPIError(err); ok && apiErr.RequestID != "" {
			fmt.Fprintf(os.Stderr, "Request ID: %s\n", apiErr.RequestID)
		}
		os.Exit(1)
	}
}
