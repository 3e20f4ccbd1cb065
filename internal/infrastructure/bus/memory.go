package bus

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by operations on a closed bus.
var ErrClosed = errors.New("bus: closed")

// Memory is an in-process bus. Both lane halves can share it when they run in one
// process, and tests use it in place of a broker.
type Memory struct {
	buffer int

	mu     sync.Mutex
	subs   map[string][]*subscription
	closed bool
}

// NewMemory creates an in-process bus whose subscriptions hold up to buffer messages.
func NewMemory(buffer int) *Memory {
	return &Memory{
		buffer: buffer,
		subs:   make(map[string][]*subscription),
	}
}

// Publish delivers payload to every current subscriber of topic, in subscription order.
// It blocks while a subscriber's queue is full, until ctx is done.
func (m *Memory) Publish(ctx context.Context, topic string, payload []byte) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	subs := append([]*subscription(nil), m.subs[topic]...)
	m.mu.Unlock()

	for _, s := range subs {
		if !s.deliver(payload, ctx.Done()) && ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe registers a consumer for topic until ctx is done or the bus is closed.
func (m *Memory) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	s := newSubscription(m.buffer)
	m.subs[topic] = append(m.subs[topic], s)

	go func() {
		select {
		case <-ctx.Done():
		case <-s.done:
		}
		m.remove(topic, s)
		s.close()
	}()
	return s.ch, nil
}

func (m *Memory) remove(topic string, target *subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.subs[topic]
	for i, s := range list {
		if s == target {
			m.subs[topic] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(m.subs[topic]) == 0 {
		delete(m.subs, topic)
	}
}

// Close closes every subscription. Further calls are no-ops.
func (m *Memory) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	var all []*subscription
	for _, list := range m.subs {
		all = append(all, list...)
	}
	m.mu.Unlock()

	for _, s := range all {
		s.close()
	}
	return nil
}
