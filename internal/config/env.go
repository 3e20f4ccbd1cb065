package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variables read by both processes.
const (
	EnvBrokerKind   = "BROKER_KIND"
	EnvBrokerURL    = "BROKER_URL"
	EnvBrokerBuffer = "BROKER_BUFFER"
	EnvStatusAddr   = "STATUS_ADDR"
)

// Runtime holds the settings that come from the environment rather than the YAML files.
type Runtime struct {
	BrokerKind   string // mqtt, redis or memory
	BrokerURL    string // empty means the broker kind's default
	BrokerBuffer int    // subscription queue size
	StatusAddr   string // listen address of the status endpoint, empty disables it
}

// LoadRuntime reads the environment over the defaults.
func LoadRuntime() Runtime {
	return Runtime{
		BrokerKind:   strings.ToLower(envOrDefault(EnvBrokerKind, "mqtt")),
		BrokerURL:    envOrDefault(EnvBrokerURL, ""),
		BrokerBuffer: envInt(EnvBrokerBuffer, 16),
		StatusAddr:   envOrDefault(EnvStatusAddr, ""),
	}
}

func envOrDefault(name, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
