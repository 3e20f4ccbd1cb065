// Package supervisor открывает последовательные порты полосы и ожидает подключения устройств.
package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"interceptor/internal/apperr"
	"interceptor/internal/domain/models"
	"interceptor/internal/domain/ports"
)

// DefaultPollInterval задает период опроса списка портов при ожидании устройства
const DefaultPollInterval = 5 * time.Second

// State определяет состояние надзора за портом одного устройства
type State int

const (
	StateIdle State = iota
	StateOpening
	StateDiscovering
	StateOpen
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateDiscovering:
		return "discovering"
	case StateOpen:
		return "open"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Config содержит конфигурацию опроса
type Config struct {
	PollInterval time.Duration // Интервал опроса списка портов
}

// Supervisor открывает порты; если порт недоступен, опрашивает список устройств ОС,
// пока нужное устройство не появится. Каждая попытка открытия сообщается в StatusSink.
type Supervisor struct {
	opener   ports.SerialOpener
	lister   ports.PortLister
	sink     ports.StatusSink
	log      ports.Logger
	interval time.Duration

	mu     sync.Mutex
	states map[models.Device]State
}

// New создает новый экземпляр супервизора
func New(opener ports.SerialOpener, lister ports.PortLister, sink ports.StatusSink, log ports.Logger, cfg Config) *Supervisor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Supervisor{
		opener:   opener,
		lister:   lister,
		sink:     sink,
		log:      ports.OrNop(log),
		interval: cfg.PollInterval,
		states:   make(map[models.Device]State),
	}
}

// Open открывает ep для устройства. При неудаче блокируется, пока путь устройства не
// появится в списке ОС, и пробует еще раз. Ожидание не ограничено по времени, его
// прерывает только ctx. Неудачная вторая попытка возвращает ErrDeviceUnavailable;
// фатальна ли она, решает вызывающий.
func (s *Supervisor) Open(ctx context.Context, device models.Device, ep models.SerialEndpoint) (ports.SerialPort, error) {
	if err := ep.Validate(); err != nil {
		s.setState(device, StateFailed)
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrInvalidConfig, device, err)
	}

	s.log.Debug("Attempting to connect", "device", device, "endpoint", ep.String())
	port, err := s.attempt(ctx, device, ep)
	if err == nil {
		return port, nil
	}

	s.log.Error("Serial port not found, waiting for it", "device", device, "path", ep.Path, "error", err)
	s.setState(device, StateDiscovering)
	if err := s.WaitForDevice(ctx, ep.Path); err != nil {
		s.setState(device, StateFailed)
		return nil, err
	}

	port, err = s.attempt(ctx, device, ep)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %w", device, ep.Path, apperr.ErrDeviceUnavailable, err)
	}
	return port, nil
}

func (s *Supervisor) attempt(ctx context.Context, device models.Device, ep models.SerialEndpoint) (ports.SerialPort, error) {
	s.setState(device, StateOpening)
	port, err := s.opener.Open(ep)

	st := models.ReadinessStatus{Device: device, Ready: err == nil}
	if err != nil {
		st.Reason = err.Error()
		s.setState(device, StateFailed)
		s.log.Error("Error connecting to serial port", "device", device, "path", ep.Path, "error", err)
	} else {
		s.setState(device, StateOpen)
		s.log.Info("Connected to serial port", "device", device, "path", ep.Path)
	}
	s.sink.Report(ctx, st)
	return port, err
}

// WaitForDevice опрашивает список устройств с периодом PollInterval и возвращается, как
// только path появится в списке. Если ctx завершится раньше, возвращает ctx.Err().
func (s *Supervisor) WaitForDevice(ctx context.Context, path string) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if s.listed(path) {
			s.log.Info("Serial device appeared", "path", path)
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Supervisor) listed(path string) bool {
	s.log.Info("Looking for port", "path", path)
	list, err := s.lister.ListPorts()
	if err != nil {
		s.log.Warn("Listing serial ports failed", "error", err)
		return false
	}
	for _, p := range list {
		s.log.Debug("Device", "path", p)
		if p == path {
			return true
		}
	}
	return false
}

// State возвращает состояние надзора за устройством
func (s *Supervisor) State(device models.Device) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[device]
}

func (s *Supervisor) setState(device models.Device, st State) {
	s.mu.Lock()
	s.states[device] = st
	s.mu.Unlock()
}
