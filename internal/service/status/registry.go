// Package status keeps the last known readiness of the lane devices and mirrors it on the bus.
package status

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"interceptor/internal/domain/models"
	"interceptor/internal/domain/ports"
)

// Registry is the readiness sink of one process. Local reports are published on the
// device's init topic; peer topics followed on the bus update the same table.
type Registry struct {
	pub ports.Publisher
	log ports.Logger
	now func() time.Time

	mu    sync.RWMutex
	state map[models.Device]models.ReadinessStatus
}

// NewRegistry creates a registry publishing through pub.
func NewRegistry(pub ports.Publisher, log ports.Logger) *Registry {
	return &Registry{
		pub:   pub,
		log:   ports.OrNop(log),
		now:   time.Now,
		state: make(map[models.Device]models.ReadinessStatus),
	}
}

// Report records a local readiness result and publishes it as "True"/"False".
// A publish failure is logged; the local table is updated regardless.
func (r *Registry) Report(ctx context.Context, st models.ReadinessStatus) {
	if st.At.IsZero() {
		st.At = r.now()
	}
	st.Local = true
	r.store(st)

	if err := r.pub.Publish(ctx, st.Device.Topic(), models.BoolPayload(st.Ready)); err != nil {
		r.log.Error("Publishing readiness failed", "device", st.Device, "ready", st.Ready, "error", err)
		return
	}
	r.log.Debug("Readiness published", "device", st.Device, "ready", st.Ready)
}

// Follow subscribes to the readiness topics of devices owned by other processes.
// Updates run until ctx is done.
func (r *Registry) Follow(ctx context.Context, bus ports.Bus, devices ...models.Device) error {
	for _, d := range devices {
		ch, err := bus.Subscribe(ctx, d.Topic())
		if err != nil {
			return fmt.Errorf("follow %s readiness: %w", d, err)
		}
		go r.consume(d, ch)
	}
	return nil
}

func (r *Registry) consume(d models.Device, ch <-chan []byte) {
	for payload := range ch {
		r.log.Debug("Received message", "topic", d.Topic(), "payload", string(payload))
		ready, err := models.ParseBoolPayload(payload)
		if err != nil {
			r.log.Error("Unknown message on topic", "topic", d.Topic(), "payload", string(payload))
			continue
		}
		r.store(models.ReadinessStatus{Device: d, Ready: ready, At: r.now()})
	}
}

func (r *Registry) store(st models.ReadinessStatus) {
	r.mu.Lock()
	r.state[st.Device] = st
	r.mu.Unlock()
}

// Get returns the last known status of d.
func (r *Registry) Get(d models.Device) (models.ReadinessStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.state[d]
	return st, ok
}

// Snapshot returns all known statuses ordered by device name.
func (r *Registry) Snapshot() []models.ReadinessStatus {
	r.mu.RLock()
	out := make([]models.ReadinessStatus, 0, len(r.state))
	for _, st := range r.state {
		out = append(out, st)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Device < out[j].Device })
	return out
}

// Ready reports whether every locally reported device is ready.
func (r *Registry) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, st := range r.state {
		if st.Local && !st.Ready {
			return false
		}
	}
	return true
}
