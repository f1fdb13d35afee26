package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"portal/internal/app"
	"portal/internal/config"
)

func main() {
	cfg, err := config.Load()
	must(err)

	a, err := app.New(cfg)
	must(err)
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(a.Server().Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
