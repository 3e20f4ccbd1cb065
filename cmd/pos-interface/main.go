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
	"time"

	"interceptor/internal/app"
	"interceptor/internal/apperr"
	"interceptor/internal/config"
	"interceptor/internal/domain/ports"
	"interceptor/internal/infrastructure/logger"
)

// Пауза перед выходом при ошибке запуска, чтобы супервизор процессов не перезапускал нас в цикле
const startupFailureDelay = 5 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("pos-interface", flag.ExitOnError)
	logLevel := fs.String("log-level", "INFO", "log level: "+strings.Join(logger.Levels, ", "))
	posPort := fs.String("pos-port", config.DefaultPOSPort, "POS serial port")
	posBaud := fs.Int("pos-baud", config.DefaultBaud, "POS serial baud rate")
	printPort := fs.String("print-port", config.DefaultPrinterPort, "Printer serial port")
	printBaud := fs.Int("print-baud", config.DefaultBaud, "Printer serial baud rate")
	configDir := fs.String("config-dir", config.DefaultDir, "directory with pos_config.yaml and printer_config.yaml")
	_ = fs.Parse(os.Args[1:])

	level, err := logger.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return apperr.ExitConfig
	}
	log := logger.New(os.Stderr, level, "pos-interface")

	// Файл конфигурации главнее значений по умолчанию; явно заданный флаг главнее файла
	opts := app.POSOptions{ConfigDir: *configDir}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pos-port":
			opts.POSPort = *posPort
		case "pos-baud":
			opts.POSBaud = *posBaud
		case "print-port":
			opts.PrintPort = *printPort
		case "print-baud":
			opts.PrintBaud = *printBaud
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Starting POS interface")
	a, err := app.New(ctx, "pos-interface", config.LoadRuntime(), log)
	if err != nil {
		return fail(ctx, log, err)
	}
	defer a.Close()

	err = app.RunPOS(ctx, a, opts)
	if err != nil && errors.Is(err, app.ErrStartup) {
		return fail(ctx, log, err)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Error running the POS interface", "error", err, "kind", apperr.Kind(err))
	}
	log.Info("POS interface stopped")
	return apperr.ExitCode(err)
}

func fail(ctx context.Context, log ports.Logger, err error) int {
	if errors.Is(err, context.Canceled) {
		return apperr.ExitOK
	}
	log.Error("Error initializing the POS interface", "error", err, "kind", apperr.Kind(err))
	select {
	case <-ctx.Done():
	case <-time.After(startupFailureDelay):
	}
	return apperr.ExitCode(err)
}
