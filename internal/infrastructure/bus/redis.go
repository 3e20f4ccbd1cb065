package bus

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"interceptor/internal/domain/ports"
)

// Redis is a ports.Bus backed by Redis pub/sub.
type Redis struct {
	client *redis.Client
	buffer int
	log    ports.Logger

	mu     sync.Mutex
	pubsub []*redis.PubSub
	closed bool
}

// RedisOptions accepts either a redis:// URL or a host:port address.
func RedisOptions(redisURL string) (*redis.Options, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opt, nil
	}
	return &redis.Options{Addr: redisURL}, nil
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, redisURL, clientName string, buffer int, log ports.Logger) (*Redis, error) {
	opt, err := RedisOptions(redisURL)
	if err != nil {
		return nil, err
	}
	opt.ClientName = clientName

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opt.Addr, err)
	}
	return &Redis{client: client, buffer: buffer, log: ports.OrNop(log)}, nil
}

func (r *Redis) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := r.client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (r *Redis) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	r.mu.Unlock()

	ps := r.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	r.mu.Lock()
	r.pubsub = append(r.pubsub, ps)
	r.mu.Unlock()

	s := newSubscription(r.buffer)
	in := ps.Channel()
	go func() {
		defer s.close()
		for {
			select {
			case <-ctx.Done():
				_ = ps.Close()
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				if !s.deliver([]byte(msg.Payload), ctx.Done()) {
					return
				}
			}
		}
	}()
	return s.ch, nil
}

// Close closes every subscription and the client.
func (r *Redis) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	subs := r.pubsub
	r.pubsub = nil
	r.mu.Unlock()

	for _, ps := range subs {
		if err := ps.Close(); err != nil {
			r.log.Debug("Closing redis subscription", "error", err)
		}
	}
	return r.client.Close()
}
