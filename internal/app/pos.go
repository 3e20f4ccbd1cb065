package app

import (
	"context"
	"time"

	"interceptor/internal/config"
	"interceptor/internal/domain/models"
	"interceptor/internal/domain/ports"
	"interceptor/internal/infrastructure/serialport"
	"interceptor/internal/service/pos"
	"interceptor/internal/service/supervisor"
)

// POSOptions configures the pos-interface process.
type POSOptions struct {
	ConfigDir string

	// Command-line overrides; zero values keep the config file setting.
	POSPort   string
	POSBaud   int
	PrintPort string
	PrintBaud int

	PollInterval time.Duration      // 0 means supervisor.DefaultPollInterval
	Opener       ports.SerialOpener // nil means the system ports
	Lister       ports.PortLister
}

// RunPOS opens the POS and printer links and runs the bridge until it fails or ctx is done.
// Failures before the bridge starts wrap ErrStartup.
func RunPOS(ctx context.Context, a *App, opts POSOptions) error {
	log := a.Log

	posCfg, err := config.LoadPOS(opts.ConfigDir)
	if err != nil {
		return startup(err)
	}
	printCfg, err := config.LoadPrinter(opts.ConfigDir)
	if err != nil {
		return startup(err)
	}
	applyOverride(&posCfg.Endpoint, opts.POSPort, opts.POSBaud)
	applyOverride(&printCfg.Endpoint, opts.PrintPort, opts.PrintBaud)
	log.Debug("Loaded POS config", "service", posCfg.Service, "endpoint", posCfg.Endpoint.String())
	log.Debug("Loaded Printer config", "service", printCfg.Service, "enabled", printCfg.Endpoint.Enabled)

	dec, err := pos.NewDecoder(posCfg.Encoding)
	if err != nil {
		return startup(err)
	}

	if err := a.Status.Follow(ctx, a.Bus, models.DeviceSwitch); err != nil {
		return startup(err)
	}

	opener, lister := opts.Opener, opts.Lister
	if opener == nil || lister == nil {
		drv := serialport.NewDriver()
		if opener == nil {
			opener = drv
		}
		if lister == nil {
			lister = drv
		}
	}
	sup := supervisor.New(opener, lister, a.Status, log, supervisor.Config{PollInterval: opts.PollInterval})

	posPort, err := sup.Open(ctx, models.DevicePOS, posCfg.Endpoint)
	if err != nil {
		return startup(err)
	}

	printer := openPrinter(ctx, a, sup, printCfg.Endpoint)
	if ctx.Err() != nil {
		posPort.Close()
		if printer != nil {
			printer.Close()
		}
		return ctx.Err()
	}

	bridge := pos.New(posPort, printer, a.Bus, posCfg.Rules, dec, log)
	return a.run(ctx, bridge.Run)
}

// openPrinter returns nil when printing is disabled or the printer could not be opened.
// The final printer readiness is published either way.
func openPrinter(ctx context.Context, a *App, sup *supervisor.Supervisor, ep models.SerialEndpoint) ports.SerialPort {
	st := models.ReadinessStatus{Device: models.DevicePrinter}

	if !ep.Enabled {
		a.Log.Info("Printer interface not enabled, moving on!")
		st.Reason = "disabled"
		a.Status.Report(ctx, st)
		return nil
	}

	port, err := sup.Open(ctx, models.DevicePrinter, ep)
	if err != nil {
		a.Log.Error("Printer unavailable, printing disabled", "path", ep.Path, "error", err)
		st.Reason = err.Error()
		a.Status.Report(ctx, st)
		return nil
	}

	st.Ready = true
	a.Status.Report(ctx, st)
	return port
}

func applyOverride(ep *models.SerialEndpoint, path string, baud int) {
	if path != "" {
		ep.Path = path
	}
	if baud > 0 {
		ep.BaudRate = baud
	}
}
