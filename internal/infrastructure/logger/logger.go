package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Levels содержит допустимые значения --log-level
var Levels = []string{"CRITICAL", "ERROR", "WARNING", "INFO", "DEBUG"}

// ParseLevel преобразует значение --log-level в уровень slog.
// У CRITICAL нет аналога в slog, он соответствует уровню error.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "CRITICAL", "ERROR":
		return slog.LevelError, nil
	case "WARNING", "WARN":
		return slog.LevelWarn, nil
	case "INFO", "":
		return slog.LevelInfo, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want one of %s)", name, strings.Join(Levels, ", "))
	}
}

// New создает текстовый slog-логгер с меткой сервиса.
func New(w io.Writer, level slog.Level, service string) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("service", service)
}

// Discard возвращает логгер, который ничего не пишет (для тестов и nil-зависимостей).
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
