// Package bus provides the publish/subscribe adapters the lane processes talk through.
package bus

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"interceptor/internal/apperr"
	"interceptor/internal/domain/ports"
)

// Supported broker kinds.
const (
	KindMQTT   = "mqtt"
	KindRedis  = "redis"
	KindMemory = "memory"
)

// Config selects and parametrizes the broker.
type Config struct {
	Kind   string // mqtt, redis or memory
	URL    string // Broker address; a per-kind default is used when empty
	Buffer int    // Subscription queue size
}

// DefaultURL returns the broker address used when none is configured.
func DefaultURL(kind string) string {
	switch kind {
	case KindRedis:
		return "localhost:6379"
	case KindMQTT:
		return "tcp://localhost:1883"
	default:
		return ""
	}
}

// ClientID returns a broker client id unique to this process, e.g. "pos-interface-3f2a…".
func ClientID(service string) string {
	return service + "-" + uuid.NewString()
}

// Open connects to the configured broker.
func Open(ctx context.Context, cfg Config, service string, log ports.Logger) (ports.Bus, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Kind))
	if kind == "" {
		kind = KindMQTT
	}
	url := cfg.URL
	if url == "" {
		url = DefaultURL(kind)
	}

	switch kind {
	case KindMQTT:
		return NewMQTT(ctx, MQTTConfig{BrokerURL: url, ClientID: ClientID(service), Buffer: cfg.Buffer}, log)
	case KindRedis:
		return NewRedis(ctx, url, ClientID(service), cfg.Buffer, log)
	case KindMemory:
		return NewMemory(cfg.Buffer), nil
	default:
		return nil, fmt.Errorf("%w: unknown broker kind %q", apperr.ErrInvalidConfig, cfg.Kind)
	}
}
