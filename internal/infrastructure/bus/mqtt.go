package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"interceptor/internal/domain/ports"
)

// MQTTConfig holds the broker connection settings.
type MQTTConfig struct {
	BrokerURL      string        // e.g. "tcp://localhost:1883"
	ClientID       string        // Unique per process
	KeepAlive      time.Duration // 60s when zero
	ConnectTimeout time.Duration // 10s when zero
	QoS            byte
	Buffer         int // Subscription queue size
}

// MQTT is a ports.Bus backed by an MQTT broker.
type MQTT struct {
	cfg    MQTTConfig
	client mqtt.Client
	log    ports.Logger

	mu   sync.Mutex
	subs map[string]*subscription
	stop chan struct{}
	once sync.Once
}

// NewMQTT connects to the broker and starts the network loop.
func NewMQTT(ctx context.Context, cfg MQTTConfig, log ports.Logger) (*MQTT, error) {
	if cfg.KeepAlive == 0 {
		cfg.KeepAlive = 60 * time.Second
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	b := &MQTT{
		cfg:  cfg,
		log:  ports.OrNop(log),
		subs: make(map[string]*subscription),
		stop: make(chan struct{}),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetKeepAlive(cfg.KeepAlive).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetAutoReconnect(true).
		SetOrderMatters(true).
		SetOnConnectHandler(b.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			b.log.Warn("Lost connection to message broker", "broker", cfg.BrokerURL, "error", err)
		})

	b.client = mqtt.NewClient(opts)
	if err := wait(ctx, b.client.Connect()); err != nil {
		return nil, fmt.Errorf("connect mqtt broker %s: %w", cfg.BrokerURL, err)
	}
	return b, nil
}

// onConnect restores subscriptions after a reconnect; the broker session is clean.
func (b *MQTT) onConnect(c mqtt.Client) {
	b.log.Debug("Connected to message broker", "broker", b.cfg.BrokerURL)

	b.mu.Lock()
	defer b.mu.Unlock()
	for topic, s := range b.subs {
		c.Subscribe(topic, b.cfg.QoS, b.handler(s))
	}
}

func (b *MQTT) handler(s *subscription) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		s.deliver(msg.Payload(), b.stop)
	}
}

// Publish sends payload to topic and waits for the client to hand it to the broker.
func (b *MQTT) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := wait(ctx, b.client.Publish(topic, b.cfg.QoS, false, payload)); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe supports one consumer per topic and client.
func (b *MQTT) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	b.mu.Lock()
	if _, exists := b.subs[topic]; exists {
		b.mu.Unlock()
		return nil, fmt.Errorf("subscribe %s: already subscribed", topic)
	}
	s := newSubscription(b.cfg.Buffer)
	b.subs[topic] = s
	b.mu.Unlock()

	if err := wait(ctx, b.client.Subscribe(topic, b.cfg.QoS, b.handler(s))); err != nil {
		b.drop(topic)
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	go func() {
		select {
		case <-ctx.Done():
			b.client.Unsubscribe(topic)
		case <-s.done:
		case <-b.stop:
		}
		b.drop(topic)
	}()
	return s.ch, nil
}

func (b *MQTT) drop(topic string) {
	b.mu.Lock()
	s, ok := b.subs[topic]
	delete(b.subs, topic)
	b.mu.Unlock()
	if ok {
		s.close()
	}
}

// Close stops all subscriptions and disconnects, giving in-flight work 250ms.
func (b *MQTT) Close() error {
	b.once.Do(func() {
		close(b.stop)
		b.mu.Lock()
		topics := make([]string, 0, len(b.subs))
		for topic := range b.subs {
			topics = append(topics, topic)
		}
		b.mu.Unlock()
		for _, topic := range topics {
			b.drop(topic)
		}
		b.client.Disconnect(250)
	})
	return nil
}

// wait blocks until the token completes or ctx is done.
func wait(ctx context.Context, tok mqtt.Token) error {
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
