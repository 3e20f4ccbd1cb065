// Package storetracker превращает события оплаты из шины в ACC команды для
// store-tracker полосы.
package storetracker

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"interceptor/internal/apperr"
	"interceptor/internal/domain/models"
	"interceptor/internal/domain/ports"
)

// State определяет состояние связи диспетчера
type State int

const (
	StateUnchecked State = iota
	StateChecking
	StateReady
	StateUnreachable
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateReady:
		return "ready"
	case StateUnreachable:
		return "unreachable"
	default:
		return "unchecked"
	}
}

// Config содержит конфигурацию диспетчера
type Config struct {
	Address    string        // host:port store-tracker
	CheckoutID int           // Номер кассы, 0..9999
	AutoScan   bool          // Автопоиск адреса (не поддерживается)
	Timeout    time.Duration // Таймаут одной попытки
	Attempts   int           // Количество попыток на команду
}

// Validate проверяет адрес и номер кассы
func (c Config) Validate() error {
	if c.AutoScan {
		return fmt.Errorf("%w: switch auto scan", apperr.ErrConfigurationUnsupported)
	}
	host, port, err := net.SplitHostPort(c.Address)
	if err != nil {
		return fmt.Errorf("%w: switch address %q: %v", apperr.ErrInvalidConfig, c.Address, err)
	}
	if host == "" {
		return fmt.Errorf("%w: switch address %q: empty host", apperr.ErrInvalidConfig, c.Address)
	}
	if p, err := strconv.Atoi(port); err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("%w: switch port %q", apperr.ErrInvalidConfig, port)
	}
	if c.CheckoutID < 0 || c.CheckoutID > models.MaxCheckoutID {
		return fmt.Errorf("%w: checkout id %d out of range 0..%d", apperr.ErrInvalidConfig, c.CheckoutID, models.MaxCheckoutID)
	}
	return nil
}

// Dispatcher один раз проверяет store-tracker при запуске, затем отправляет по одной ACC
// команде на каждую успешную продажу.
type Dispatcher struct {
	cfg       Config
	transport Transport
	sink      ports.StatusSink
	log       ports.Logger
	clock     func() time.Time

	mu    sync.Mutex
	state State
}

// Option настраивает Dispatcher
type Option func(*Dispatcher)

// WithTransport заменяет TCP транспорт
func WithTransport(t Transport) Option {
	return func(d *Dispatcher) { d.transport = t }
}

// WithClock задает источник времени для ACC команд
func WithClock(clock func() time.Time) Option {
	return func(d *Dispatcher) { d.clock = clock }
}

// New проверяет cfg и создает диспетчер. Автопоиск возвращает
// ErrConfigurationUnsupported.
func New(cfg Config, sink ports.StatusSink, log ports.Logger, opts ...Option) (*Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Dispatcher{
		cfg:   cfg,
		sink:  sink,
		log:   ports.OrNop(log),
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.transport == nil {
		d.transport = NewTCPTransport(cfg.Timeout, cfg.Attempts, d.log)
	}
	return d, nil
}

// State возвращает текущее состояние связи
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Dispatcher) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// CheckReachable подключается к store-tracker и закрывает соединение, ничего не отправляя
func (d *Dispatcher) CheckReachable(ctx context.Context) bool {
	if err := d.transport.Probe(ctx, d.cfg.Address); err != nil {
		d.log.Debug("Store-tracker probe failed", "address", d.cfg.Address, "error", err)
		return false
	}
	return true
}

// Start один раз проверяет доступность и сообщает готовность switch.
// Недоступный адрес повторно не проверяется.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.setState(StateChecking)
	d.log.Info("Checking for connectivity", "address", d.cfg.Address)

	ok := d.CheckReachable(ctx)
	st := models.ReadinessStatus{Device: models.DeviceSwitch, Ready: ok}
	if ok {
		d.setState(StateReady)
		d.log.Info("Connection available", "address", d.cfg.Address)
	} else {
		d.setState(StateUnreachable)
		st.Reason = "unreachable"
		d.log.Error("Connection not available", "address", d.cfg.Address)
	}
	if d.sink != nil {
		d.sink.Report(ctx, st)
	}

	if !ok {
		return fmt.Errorf("%w: %s", apperr.ErrNetworkUnreachable, d.cfg.Address)
	}
	return nil
}

// Run обрабатывает события оплаты строго по одному, вместе с повторами, пока events не
// закрыт или ctx не завершен. Закрытый канал при живом ctx возвращает nil. Нефатальные
// ошибки отправки только логируются.
func (d *Dispatcher) Run(ctx context.Context, events <-chan []byte) error {
	d.log.Info("Waiting for billing events", "topic", models.TopicPOSBilling)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-events:
			if !ok {
				// Подписка закрывается и при отмене ctx, и при закрытии шины
				return ctx.Err()
			}
			if err := d.handle(ctx, payload); apperr.Fatal(err) {
				return err
			}
		}
	}
}

// handle возвращает ошибку отправки; нефатальные уже залогированы
func (d *Dispatcher) handle(ctx context.Context, payload []byte) error {
	ev, err := models.ParseBillingEvent(payload)
	if err != nil {
		d.log.Error("Unknown billing payload", "payload", string(payload), "error", err)
		return nil
	}

	if ev.Outcome != models.OutcomeSuccess {
		d.log.Info("Billing failed, nothing to send")
		return nil
	}

	cmd := models.NewAccCommand(d.cfg.CheckoutID, d.clock())
	_, err = d.Send(ctx, cmd)
	if err != nil && !apperr.Fatal(err) {
		d.log.Error("Sending ACC command failed", "command", cmd.String(), "error", err, "kind", apperr.Kind(err))
	}
	return err
}

// Send отправляет cmd и возвращает ответ store-tracker
func (d *Dispatcher) Send(ctx context.Context, cmd models.AccCommand) (string, error) {
	d.log.Info("Sending command", "command", cmd.String(), "address", d.cfg.Address)

	reply, err := d.transport.Send(ctx, d.cfg.Address, cmd.Bytes())
	if err != nil {
		return "", err
	}
	d.log.Info("Response received", "reply", string(reply))
	return string(reply), nil
}
