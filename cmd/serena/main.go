package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RiveroDeveloper/boat-ui-interface/internal/app"
	"github.com/RiveroDeveloper/boat-ui-interface/internal/config"
)

// Set at build time via -ldflags "-X main.Version=..."
var (
	Version   = "dev"
	BuildDate = "unknown"
)

func main() {
	configDir := flag.String("config", ".", "directory containing "+config.FileName)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, app.Options{
		ConfigDir: *configDir,
		Version:   Version + " (" + BuildDate + ")",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "serena: %v\n", err)
		stop()
		os.Exit(1)
	}
}
