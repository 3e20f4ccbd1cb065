// Package config loads the lane YAML files and the broker environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"interceptor/internal/apperr"
	"interceptor/internal/domain/models"
)

// File names inside the config directory.
const (
	POSFile     = "pos_config.yaml"
	PrinterFile = "printer_config.yaml"
	SwitchFile  = "switch_config.yaml"
)

// Defaults of the serial links, the same as the command-line defaults.
const (
	DefaultDir           = "./config"
	DefaultPOSPort       = "/dev/ttyUSB0"
	DefaultPrinterPort   = "/dev/ttyUSB1"
	DefaultBaud          = 38400
	DefaultSerialSetting = "8N1"
)

// POS is the configuration of the POS link and its classification strings.
type POS struct {
	Service  string
	Endpoint models.SerialEndpoint
	Encoding string
	Rules    models.ClassificationRules
}

// Printer is the configuration of the receipt printer link. Endpoint.Enabled is false
// when printing is switched off.
type Printer struct {
	Service  string
	Endpoint models.SerialEndpoint
}

// Switch is the configuration of the store-tracker side.
type Switch struct {
	Service    string
	AutoScan   bool
	CheckoutID int
}

type serialFile struct {
	StaticPort    string `yaml:"static_port"`
	Baud          int    `yaml:"baud"`
	SerialSetting string `yaml:"serial_setting"`
}

type posFile struct {
	Service  string `yaml:"service"`
	Settings struct {
		Serial   serialFile `yaml:"SERIAL"`
		Encoding string     `yaml:"encoding"`
	} `yaml:"SETTINGS"`
	Generic []string `yaml:"GENERIC_STRINGS"`
	Success []string `yaml:"SUCCESS_STRINGS"`
	Failure []string `yaml:"FAILURE_STRINGS"`
}

type printerFile struct {
	Service  string `yaml:"service"`
	Enabled  *bool  `yaml:"enabled"`
	Settings struct {
		Serial serialFile `yaml:"SERIAL"`
	} `yaml:"SETTINGS"`
}

type switchFile struct {
	Service  string `yaml:"service"`
	Settings struct {
		AutoScan   bool `yaml:"auto_scan"`
		CheckoutID *int `yaml:"checkout_id"`
	} `yaml:"SETTINGS"`
}

// LoadPOS reads pos_config.yaml from dir. A missing file is an error.
func LoadPOS(dir string) (POS, error) {
	path := filepath.Join(dir, POSFile)
	var f posFile
	if err := readYAML(path, &f); err != nil {
		return POS{}, err
	}

	ep, err := endpoint(path, f.Settings.Serial, DefaultPOSPort)
	if err != nil {
		return POS{}, err
	}
	ep.Enabled = true

	cfg := POS{
		Service:  orDefault(f.Service, "pos-interface"),
		Endpoint: ep,
		Encoding: strings.TrimSpace(f.Settings.Encoding),
		Rules: models.ClassificationRules{
			Generic: f.Generic,
			Success: f.Success,
			Failure: f.Failure,
		}.Normalized(),
	}
	if len(cfg.Rules.Success) == 0 && len(cfg.Rules.Failure) == 0 {
		return POS{}, fmt.Errorf("%w: %s: no SUCCESS_STRINGS or FAILURE_STRINGS", apperr.ErrInvalidConfig, path)
	}
	return cfg, nil
}

// LoadPrinter reads printer_config.yaml from dir. A missing file disables printing.
// Without an "enabled" key the printer is enabled.
func LoadPrinter(dir string) (Printer, error) {
	path := filepath.Join(dir, PrinterFile)
	var f printerFile
	if err := readYAML(path, &f); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Printer{Service: "printer-interface", Endpoint: models.SerialEndpoint{Path: DefaultPrinterPort}}, nil
		}
		return Printer{}, err
	}

	cfg := Printer{Service: orDefault(f.Service, "printer-interface")}
	enabled := f.Enabled == nil || *f.Enabled
	if !enabled {
		cfg.Endpoint = models.SerialEndpoint{Path: orDefault(f.Settings.Serial.StaticPort, DefaultPrinterPort)}
		return cfg, nil
	}

	ep, err := endpoint(path, f.Settings.Serial, DefaultPrinterPort)
	if err != nil {
		return Printer{}, err
	}
	ep.Enabled = true
	cfg.Endpoint = ep
	return cfg, nil
}

// LoadSwitch reads switch_config.yaml from dir. A missing file is an error.
func LoadSwitch(dir string) (Switch, error) {
	path := filepath.Join(dir, SwitchFile)
	var f switchFile
	if err := readYAML(path, &f); err != nil {
		return Switch{}, err
	}
	if f.Settings.CheckoutID == nil {
		return Switch{}, fmt.Errorf("%w: %s: SETTINGS.checkout_id is required", apperr.ErrInvalidConfig, path)
	}
	id := *f.Settings.CheckoutID
	if id < 0 || id > models.MaxCheckoutID {
		return Switch{}, fmt.Errorf("%w: %s: checkout_id %d out of range 0..%d", apperr.ErrInvalidConfig, path, id, models.MaxCheckoutID)
	}
	return Switch{
		Service:    orDefault(f.Service, "storetracker-interface"),
		AutoScan:   f.Settings.AutoScan,
		CheckoutID: id,
	}, nil
}

func readYAML(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: parse config %s: %v", apperr.ErrInvalidConfig, path, err)
	}
	return nil
}

func endpoint(path string, s serialFile, defaultPort string) (models.SerialEndpoint, error) {
	byteSize, parity, stopBits, err := models.ParseFraming(orDefault(s.SerialSetting, DefaultSerialSetting))
	if err != nil {
		return models.SerialEndpoint{}, fmt.Errorf("%w: %s: %v", apperr.ErrInvalidConfig, path, err)
	}
	baud := s.Baud
	if baud == 0 {
		baud = DefaultBaud
	}
	ep := models.SerialEndpoint{
		Path:     orDefault(s.StaticPort, defaultPort),
		BaudRate: baud,
		ByteSize: byteSize,
		Parity:   parity,
		StopBits: stopBits,
	}
	if err := ep.Validate(); err != nil {
		return models.SerialEndpoint{}, fmt.Errorf("%w: %s: %v", apperr.ErrInvalidConfig, path, err)
	}
	return ep, nil
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}
