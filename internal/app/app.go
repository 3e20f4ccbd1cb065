// Package app wires the lane components into the two runnable processes.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"interceptor/internal/config"
	"interceptor/internal/domain/ports"
	"interceptor/internal/infrastructure/bus"
	"interceptor/internal/service/status"
	httptransport "interceptor/internal/transport/http"
)

// ErrStartup marks failures that happen before a process reaches its main loop.
var ErrStartup = errors.New("startup failed")

// App holds what both lane processes share: the bus, the readiness registry and the logger.
type App struct {
	Service string
	Runtime config.Runtime
	Log     *slog.Logger
	Bus     ports.Bus
	Status  *status.Registry
}

// New connects to the broker selected by rt. A nil log discards output.
func New(ctx context.Context, service string, rt config.Runtime, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	b, err := bus.Open(ctx, bus.Config{Kind: rt.BrokerKind, URL: rt.BrokerURL, Buffer: rt.BrokerBuffer}, service, log)
	if err != nil {
		return nil, fmt.Errorf("%w: broker: %w", ErrStartup, err)
	}
	return &App{
		Service: service,
		Runtime: rt,
		Log:     log,
		Bus:     b,
		Status:  status.NewRegistry(b, log),
	}, nil
}

// Close disconnects from the broker.
func (a *App) Close() error {
	return a.Bus.Close()
}

// run executes loop and, when configured, the status endpoint. The first error stops both.
func (a *App) run(ctx context.Context, loop func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop(gctx) })

	if a.Runtime.StatusAddr != "" {
		h := httptransport.NewRouter(a.Service, a.Status, a.Log)
		g.Go(func() error {
			if err := httptransport.Serve(gctx, a.Runtime.StatusAddr, h, a.Log); err != nil {
				return fmt.Errorf("status endpoint: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}

func startup(err error) error {
	return fmt.Errorf("%w: %w", ErrStartup, err)
}
