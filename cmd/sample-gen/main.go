package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"agri-price-backend/internal/config"
	"agri-price-backend/pkg/samplegen"
)

func main() {
	if err := config.LoadEnvFiles(".env", ".env.local"); err != nil {
		fmt.Fprintf(os.Stderr, "sample-gen: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := samplegen.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "sample-gen failed: %v\n", err)
		os.Exit(1)
	}
}
