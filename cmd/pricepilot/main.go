// Command pricepilot collects, reconciles and analyses retail prices.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/pricepilot/internal/adapters/driving/cli"
	"github.com/custodia-labs/pricepilot/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env file is fine; real environment variables still apply.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli.SetVersion(version)
	err := cli.Execute(ctx, buildServices)

	stop()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
