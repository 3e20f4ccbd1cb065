package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"interceptor/internal/app"
	"interceptor/internal/apperr"
	"interceptor/internal/config"
	"interceptor/internal/infrastructure/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("storetracker-interface", flag.ExitOnError)
	logLevel := fs.String("log-level", "INFO", "log level: "+strings.Join(logger.Levels, ", "))
	switchIP := fs.String("switch-ip", app.DefaultSwitchIP, "Storetracker switch IP")
	switchPort := fs.Int("switch-port", app.DefaultSwitchPort, "Storetracker switch port")
	configDir := fs.String("config-dir", config.DefaultDir, "directory with switch_config.yaml")
	_ = fs.Parse(os.Args[1:])

	level, err := logger.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return apperr.ExitConfig
	}
	log := logger.New(os.Stderr, level, "storetracker-interface")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Starting Switch interface")
	a, err := app.New(ctx, "storetracker-interface", config.LoadRuntime(), log)
	if err != nil {
		log.Error("Error initializing the Switch interface", "error", err, "kind", apperr.Kind(err))
		return apperr.ExitCode(err)
	}
	defer a.Close()

	err = app.RunStoreTracker(ctx, a, app.StoreTrackerOptions{
		ConfigDir:  *configDir,
		SwitchIP:   *switchIP,
		SwitchPort: *switchPort,
	})
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		log.Info("Switch interface stopped")
	case errors.Is(err, app.ErrStartup):
		log.Error("Error initializing the Switch interface", "error", err, "kind", apperr.Kind(err))
	default:
		log.Error("Error running the Switch interface", "error", err, "kind", apperr.Kind(err))
	}
	return apperr.ExitCode(err)
}
