package supervisor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interceptor/internal/apperr"
	"interceptor/internal/domain/models"
	"interceptor/internal/domain/ports"
	"interceptor/internal/infrastructure/logger"
)

// nopPort заглушка открытого порта
type nopPort struct {
	bytes.Buffer
}

func (*nopPort) Close() error { return nil }

// MockOpener мок открытия порта
type MockOpener struct {
	mu     sync.Mutex
	calls  int
	OnOpen func(call int, ep models.SerialEndpoint) (ports.SerialPort, error)
}

func (m *MockOpener) Open(ep models.SerialEndpoint) (ports.SerialPort, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.mu.Unlock()
	return m.OnOpen(call, ep)
}

func (m *MockOpener) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockLister мок списка портов
type MockLister struct {
	mu     sync.Mutex
	calls  int
	OnList func(call int) ([]string, error)
}

func (m *MockLister) ListPorts() ([]string, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.mu.Unlock()
	return m.OnList(call)
}

func (m *MockLister) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type recordingSink struct {
	mu      sync.Mutex
	reports []models.ReadinessStatus
}

func (r *recordingSink) Report(_ context.Context, st models.ReadinessStatus) {
	r.mu.Lock()
	r.reports = append(r.reports, st)
	r.mu.Unlock()
}

func (r *recordingSink) readiness() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]bool, 0, len(r.reports))
	for _, st := range r.reports {
		out = append(out, st.Ready)
	}
	return out
}

var endpoint = models.SerialEndpoint{
	Path:     "/dev/ttyUSB0",
	BaudRate: 38400,
	ByteSize: 8,
	Parity:   models.ParityNone,
	StopBits: 1,
	Enabled:  true,
}

var errNotFound = errors.New("no such file or directory")

func newSupervisor(opener *MockOpener, lister *MockLister, sink *recordingSink) *Supervisor {
	return New(opener, lister, sink, logger.Discard(), Config{PollInterval: time.Millisecond})
}

func TestOpenDirect(t *testing.T) {
	opener := &MockOpener{OnOpen: func(int, models.SerialEndpoint) (ports.SerialPort, error) {
		return &nopPort{}, nil
	}}
	lister := &MockLister{OnList: func(int) ([]string, error) { return nil, nil }}
	sink := &recordingSink{}
	s := newSupervisor(opener, lister, sink)

	port, err := s.Open(context.Background(), models.DevicePOS, endpoint)
	require.NoError(t, err)
	require.NotNil(t, port)

	assert.Equal(t, []bool{true}, sink.readiness())
	assert.Equal(t, 0, lister.Calls())
	assert.Equal(t, StateOpen, s.State(models.DevicePOS))
}

func TestOpenWaitsForDeviceThenReopens(t *testing.T) {
	opener := &MockOpener{OnOpen: func(call int, _ models.SerialEndpoint) (ports.SerialPort, error) {
		if call == 1 {
			return nil, errNotFound
		}
		return &nopPort{}, nil
	}}
	lister := &MockLister{OnList: func(call int) ([]string, error) {
		switch call {
		case 1:
			return []string{"/dev/ttyS0"}, nil
		case 2:
			return nil, errors.New("udev busy")
		default:
			return []string{"/dev/ttyS0", "/dev/ttyUSB0"}, nil
		}
	}}
	sink := &recordingSink{}
	s := newSupervisor(opener, lister, sink)

	port, err := s.Open(context.Background(), models.DevicePOS, endpoint)
	require.NoError(t, err)
	require.NotNil(t, port)

	assert.Equal(t, 2, opener.Calls())
	assert.Equal(t, 3, lister.Calls())
	assert.Equal(t, []bool{false, true}, sink.readiness())
	assert.Equal(t, StateOpen, s.State(models.DevicePOS))
}

func TestOpenFailsAfterDiscovery(t *testing.T) {
	opener := &MockOpener{OnOpen: func(int, models.SerialEndpoint) (ports.SerialPort, error) {
		return nil, errors.New("permission denied")
	}}
	lister := &MockLister{OnList: func(int) ([]string, error) {
		return []string{"/dev/ttyUSB0"}, nil
	}}
	sink := &recordingSink{}
	s := newSupervisor(opener, lister, sink)

	_, err := s.Open(context.Background(), models.DevicePrinter, endpoint)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrDeviceUnavailable)
	assert.Equal(t, []bool{false, false}, sink.readiness())
	assert.Equal(t, StateFailed, s.State(models.DevicePrinter))
}

func TestDiscoveryIsCancellable(t *testing.T) {
	opener := &MockOpener{OnOpen: func(int, models.SerialEndpoint) (ports.SerialPort, error) {
		return nil, errNotFound
	}}
	lister := &MockLister{OnList: func(int) ([]string, error) { return []string{}, nil }}
	sink := &recordingSink{}
	s := newSupervisor(opener, lister, sink)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := s.Open(ctx, models.DevicePOS, endpoint)
		errCh <- err
	}()

	require.Eventually(t, func() bool {
		return s.State(models.DevicePOS) == StateDiscovering && lister.Calls() >= 3
	}, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("discovery loop did not stop")
	}
	assert.Equal(t, 1, opener.Calls())
	assert.Equal(t, []bool{false}, sink.readiness())
}

func TestOpenRejectsInvalidEndpoint(t *testing.T) {
	opener := &MockOpener{OnOpen: func(int, models.SerialEndpoint) (ports.SerialPort, error) {
		t.Fatal("open must not be called")
		return nil, nil
	}}
	s := newSupervisor(opener, &MockLister{}, &recordingSink{})

	bad := endpoint
	bad.StopBits = 3
	_, err := s.Open(context.Background(), models.DevicePOS, bad)
	assert.ErrorIs(t, err, apperr.ErrInvalidConfig)
}

func TestDefaultPollInterval(t *testing.T) {
	s := New(nil, nil, nil, logger.Discard(), Config{})
	assert.Equal(t, 5*time.Second, s.interval)
}

var _ io.ReadWriteCloser = (*nopPort)(nil)

func TestNilLoggerDiscards(t *testing.T) {
	opener := &MockOpener{OnOpen: func(call int, _ models.SerialEndpoint) (ports.SerialPort, error) {
		if call == 1 {
			return nil, errNotFound
		}
		return &nopPort{}, nil
	}}
	lister := &MockLister{OnList: func(int) ([]string, error) { return []string{"/dev/ttyS0", endpoint.Path}, nil }}
	s := New(opener, lister, &recordingSink{}, nil, Config{PollInterval: time.Millisecond})

	var port ports.SerialPort
	require.NotPanics(t, func() {
		var err error
		port, err = s.Open(context.Background(), models.DevicePOS, endpoint)
		require.NoError(t, err)
	})
	assert.NotNil(t, port)
	assert.Equal(t, 2, opener.Calls())
}
