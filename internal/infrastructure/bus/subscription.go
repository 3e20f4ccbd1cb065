package bus

import "sync"

// DefaultBuffer is the capacity of a subscription channel.
const DefaultBuffer = 16

// subscription is a bounded single-consumer queue for one topic.
// Delivery blocks while the queue is full, so messages keep their order.
type subscription struct {
	ch   chan []byte
	done chan struct{}

	mu   sync.RWMutex
	once sync.Once
}

func newSubscription(buffer int) *subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &subscription{
		ch:   make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

// deliver queues a copy of payload. It returns false once the subscription is closed
// or stop fires first.
func (s *subscription) deliver(payload []byte, stop <-chan struct{}) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	select {
	case <-s.done:
		return false
	default:
	}

	msg := make([]byte, len(payload))
	copy(msg, payload)

	select {
	case s.ch <- msg:
		return true
	case <-s.done:
		return false
	case <-stop:
		return false
	}
}

// close stops delivery and closes the consumer channel.
// Pending deliveries are released through done before ch is closed.
func (s *subscription) close() {
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		close(s.ch)
		s.mu.Unlock()
	})
}
