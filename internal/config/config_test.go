package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interceptor/internal/apperr"
	"interceptor/internal/domain/models"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadPOS(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, POSFile, `
service: pos-interface
SETTINGS:
  SERIAL:
    static_port: /dev/ttyS3
    baud: 9600
    serial_setting: 7E2
  encoding: cp866
GENERIC_STRINGS: ["RECEIPT", ""]
SUCCESS_STRINGS: ["TXN APPROVED"]
FAILURE_STRINGS: ["TXN DECLINED"]
`)

	cfg, err := LoadPOS(dir)
	require.NoError(t, err)
	assert.Equal(t, "pos-interface", cfg.Service)
	assert.Equal(t, models.SerialEndpoint{
		Path: "/dev/ttyS3", BaudRate: 9600, ByteSize: 7, Parity: models.ParityEven, StopBits: 2, Enabled: true,
	}, cfg.Endpoint)
	assert.Equal(t, "cp866", cfg.Encoding)
	assert.Equal(t, []string{"RECEIPT"}, cfg.Rules.Generic)
	assert.Equal(t, []string{"TXN APPROVED"}, cfg.Rules.Success)
	assert.Equal(t, []string{"TXN DECLINED"}, cfg.Rules.Failure)
}

func TestLoadPOSDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, POSFile, "SUCCESS_STRINGS: [OK]\n")

	cfg, err := LoadPOS(dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultPOSPort, cfg.Endpoint.Path)
	assert.Equal(t, DefaultBaud, cfg.Endpoint.BaudRate)
	assert.Equal(t, "8N1", cfg.Endpoint.Framing())
	assert.Empty(t, cfg.Encoding)
}

func TestLoadPOSErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		invalid bool
	}{
		{name: "missing file"},
		{name: "bad yaml", body: "SETTINGS: [", invalid: true},
		{name: "bad framing", body: "SETTINGS: {SERIAL: {serial_setting: 9X1}}\nSUCCESS_STRINGS: [OK]\n", invalid: true},
		{name: "no outcome strings", body: "GENERIC_STRINGS: [RECEIPT]\nSUCCESS_STRINGS: ['']\n", invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.body != "" {
				writeFile(t, dir, POSFile, tt.body)
			}
			_, err := LoadPOS(dir)
			require.Error(t, err)
			if tt.invalid {
				assert.ErrorIs(t, err, apperr.ErrInvalidConfig)
			} else {
				assert.ErrorIs(t, err, os.ErrNotExist)
			}
		})
	}
}

func TestLoadPrinter(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, PrinterFile, `
service: printer-interface
enabled: true
SETTINGS:
  SERIAL: {static_port: /dev/ttyUSB1, baud: 38400, serial_setting: 8N1}
`)
		cfg, err := LoadPrinter(dir)
		require.NoError(t, err)
		assert.True(t, cfg.Endpoint.Enabled)
		assert.Equal(t, "/dev/ttyUSB1@38400/8N1", cfg.Endpoint.String())
	})

	t.Run("disabled ignores serial settings", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, PrinterFile, "enabled: false\nSETTINGS: {SERIAL: {serial_setting: bogus}}\n")
		cfg, err := LoadPrinter(dir)
		require.NoError(t, err)
		assert.False(t, cfg.Endpoint.Enabled)
	})

	t.Run("missing file disables printing", func(t *testing.T) {
		cfg, err := LoadPrinter(t.TempDir())
		require.NoError(t, err)
		assert.False(t, cfg.Endpoint.Enabled)
	})
}

func TestLoadSwitch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, SwitchFile, "service: storetracker-interface\nSETTINGS:\n  auto_scan: false\n  checkout_id: 7\n")

	cfg, err := LoadSwitch(dir)
	require.NoError(t, err)
	assert.Equal(t, Switch{Service: "storetracker-interface", CheckoutID: 7}, cfg)

	writeFile(t, dir, SwitchFile, "SETTINGS: {auto_scan: true, checkout_id: 1}\n")
	cfg, err = LoadSwitch(dir)
	require.NoError(t, err)
	assert.True(t, cfg.AutoScan)

	writeFile(t, dir, SwitchFile, "SETTINGS: {auto_scan: false}\n")
	_, err = LoadSwitch(dir)
	assert.ErrorIs(t, err, apperr.ErrInvalidConfig)

	writeFile(t, dir, SwitchFile, "SETTINGS: {checkout_id: 12345}\n")
	_, err = LoadSwitch(dir)
	assert.ErrorIs(t, err, apperr.ErrInvalidConfig)
}

func TestShippedConfigsLoad(t *testing.T) {
	dir := filepath.Join("..", "..", "config")

	pos, err := LoadPOS(dir)
	require.NoError(t, err)
	assert.Equal(t, models.ClassSuccess, pos.Rules.Classify("TXN APPROVED\n"))

	printer, err := LoadPrinter(dir)
	require.NoError(t, err)
	assert.True(t, printer.Endpoint.Enabled)

	sw, err := LoadSwitch(dir)
	require.NoError(t, err)
	assert.False(t, sw.AutoScan)
}

func TestLoadRuntime(t *testing.T) {
	t.Setenv(EnvBrokerKind, "")
	t.Setenv(EnvBrokerURL, "")
	t.Setenv(EnvBrokerBuffer, "")
	t.Setenv(EnvStatusAddr, "")
	assert.Equal(t, Runtime{BrokerKind: "mqtt", BrokerBuffer: 16}, LoadRuntime())

	t.Setenv(EnvBrokerKind, "Redis")
	t.Setenv(EnvBrokerURL, "redis://cache:6379/0")
	t.Setenv(EnvBrokerBuffer, "nope")
	t.Setenv(EnvStatusAddr, ":8080")
	assert.Equal(t, Runtime{
		BrokerKind:   "redis",
		BrokerURL:    "redis://cache:6379/0",
		BrokerBuffer: 16,
		StatusAddr:   ":8080",
	}, LoadRuntime())
}
