package app

import (
	"context"
	"net"
	"strconv"
	"time"

	"interceptor/internal/config"
	"interceptor/internal/domain/models"
	"interceptor/internal/service/storetracker"
)

// Defaults of the store-tracker address flags.
const (
	DefaultSwitchIP   = "192.168.0.2"
	DefaultSwitchPort = 25803
)

// StoreTrackerOptions configures the storetracker-interface process.
type StoreTrackerOptions struct {
	ConfigDir  string
	SwitchIP   string
	SwitchPort int

	Timeout  time.Duration // 0 means storetracker.DefaultTimeout
	Attempts int           // 0 means storetracker.DefaultAttempts
}

// RunStoreTracker checks the store-tracker once and then forwards successful sales to it
// until ctx is done. Failures before the event loop starts wrap ErrStartup.
func RunStoreTracker(ctx context.Context, a *App, opts StoreTrackerOptions) error {
	log := a.Log

	swCfg, err := config.LoadSwitch(opts.ConfigDir)
	if err != nil {
		return startup(err)
	}
	log.Debug("Loaded Switch config", "service", swCfg.Service, "checkout_id", swCfg.CheckoutID)

	addr := net.JoinHostPort(opts.SwitchIP, strconv.Itoa(opts.SwitchPort))
	d, err := storetracker.New(storetracker.Config{
		Address:    addr,
		CheckoutID: swCfg.CheckoutID,
		AutoScan:   swCfg.AutoScan,
		Timeout:    opts.Timeout,
		Attempts:   opts.Attempts,
	}, a.Status, log)
	if err != nil {
		return startup(err)
	}
	log.Info("Using static TCP address", "address", addr)

	if err := a.Status.Follow(ctx, a.Bus, models.DevicePOS, models.DevicePrinter); err != nil {
		return startup(err)
	}
	events, err := a.Bus.Subscribe(ctx, models.TopicPOSBilling)
	if err != nil {
		return startup(err)
	}

	if err := d.Start(ctx); err != nil {
		return startup(err)
	}
	return a.run(ctx, func(ctx context.Context) error {
		return d.Run(ctx, events)
	})
}
