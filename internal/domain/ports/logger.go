package ports

import "log/slog"

// Logger определяет интерфейс для абстракции логирования.
// Аргументы после сообщения передаются парами ключ-значение, как в log/slog;
// *slog.Logger удовлетворяет интерфейсу без адаптеров.
type Logger interface {
	// Debug выводит отладочную информацию
	Debug(msg string, args ...any)

	// Info выводит информационные сообщения
	Info(msg string, args ...any)

	// Warn выводит предупреждения
	Warn(msg string, args ...any)

	// Error выводит ошибки
	Error(msg string, args ...any)
}

// OrNop возвращает log, а вместо nil (в том числе nil *slog.Logger) логгер, который ничего не пишет
func OrNop(log Logger) Logger {
	if log == nil {
		return slog.New(slog.DiscardHandler)
	}
	if l, ok := log.(*slog.Logger); ok && l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return log
}
