package storetracker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"interceptor/internal/apperr"
	"interceptor/internal/domain/ports"
)

const (
	// DefaultTimeout ограничивает одну попытку целиком: подключение, запись и чтение ответа
	DefaultTimeout = 500 * time.Millisecond
	// DefaultAttempts задает количество соединений на одну команду
	DefaultAttempts = 5
	// ReplySize задает максимальный размер ответа за попытку
	ReplySize = 1024
)

var errEmptyReply = errors.New("empty reply")

// Transport определяет интерфейс транспорта до store-tracker
type Transport interface {
	// Probe открывает и сразу закрывает соединение, ничего не отправляя
	Probe(ctx context.Context, address string) error

	// Send отправляет команду и возвращает первый непустой ответ
	Send(ctx context.Context, address string, message []byte) ([]byte, error)
}

// TCPTransport реализует транспорт на основе TCP: новое соединение на каждую попытку
type TCPTransport struct {
	timeout  time.Duration
	attempts int
	log      ports.Logger
	dial     func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewTCPTransport создает новый TCP транспорт. Нулевые значения заменяются значениями по умолчанию.
func NewTCPTransport(timeout time.Duration, attempts int, log ports.Logger) *TCPTransport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	return &TCPTransport{
		timeout:  timeout,
		attempts: attempts,
		log:      ports.OrNop(log),
		dial:     (&net.Dialer{}).DialContext,
	}
}

// Probe реализует проверку доступности
func (t *TCPTransport) Probe(ctx context.Context, address string) error {
	dctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	conn, err := t.dial(dctx, "tcp", address)
	if err != nil {
		return err
	}
	return conn.Close()
}

// Send делает до attempts попыток. Каждая попытка начинается с нового соединения и
// нового буфера ответа. Если все попытки неудачны, последняя ошибка оборачивается в
// ErrDispatchExhausted.
func (t *TCPTransport) Send(ctx context.Context, address string, message []byte) ([]byte, error) {
	var lastErr error

	for i := 1; i <= t.attempts; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		reply, err := t.exchange(ctx, address, message)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		t.log.Warn("Dispatch attempt failed", "attempt", i, "of", t.attempts, "address", address, "error", err)
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", apperr.ErrDispatchExhausted, t.attempts, lastErr)
}

// exchange выполняет одну попытку: подключение, одна запись, одно чтение.
// Все три шага укладываются в один общий срок timeout.
func (t *TCPTransport) exchange(ctx context.Context, address string, message []byte) ([]byte, error) {
	deadline := time.Now().Add(t.timeout)
	dctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	conn, err := t.dial(dctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	n, err := conn.Write(message)
	if err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	if n != len(message) {
		return nil, fmt.Errorf("write: short write %d/%d", n, len(message))
	}

	buf := make([]byte, ReplySize)
	n, err = conn.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return nil, errEmptyReply
}
