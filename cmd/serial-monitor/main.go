package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"interceptor/internal/config"
	"interceptor/internal/domain/models"
	"interceptor/internal/infrastructure/logger"
	"interceptor/internal/infrastructure/serialport"
	"interceptor/internal/service/monitor"
)

func main() {
	posPort := flag.String("pos-port", config.DefaultPOSPort, "POS serial port")
	printPort := flag.String("print-port", config.DefaultPrinterPort, "Printer serial port")
	baud := flag.Int("baud", config.DefaultBaud, "baud rate of both ports")
	framing := flag.String("serial-setting", config.DefaultSerialSetting, "byte size, parity and stop bits, e.g. 8N1")
	logLevel := flag.String("log-level", "INFO", "log level")
	flag.Parse()

	level, err := logger.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logger.New(os.Stderr, level, "serial-monitor")

	byteSize, parity, stopBits, err := models.ParseFraming(*framing)
	if err != nil {
		log.Error("Invalid serial setting", "error", err)
		os.Exit(2)
	}

	drv := serialport.NewDriver()
	var sources []monitor.Source
	for _, s := range []struct{ label, path string }{{"POS", *posPort}, {"Printer", *printPort}} {
		port, err := drv.Open(models.SerialEndpoint{
			Path: s.path, BaudRate: *baud, ByteSize: byteSize, Parity: parity, StopBits: stopBits, Enabled: true,
		})
		if err != nil {
			log.Error("Cannot open port", "label", s.label, "error", err)
			for _, src := range sources {
				src.Port.Close()
			}
			os.Exit(1)
		}
		sources = append(sources, monitor.Source{Label: s.label, Port: port})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := monitor.Tail(ctx, log, nil, sources...); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Monitoring stopped", "error", err)
		stop()
		os.Exit(1)
	}
}
