// Package main provides the entry point for the plot digitizer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"plot-digitizer/internal/cli"
	"plot-digitizer/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cli.Execute(ctx); err != nil {
		if ctx.Err() != nil {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, "error:", errors.UserMessage(err))
		os.Exit(1)
	}
}
