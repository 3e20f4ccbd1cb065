package ports

import "context"

// Bus определяет интерфейс брокера сообщений (publish/subscribe).
// Реализации находятся в слое Infrastructure (MQTT, Redis, in-memory).
type Bus interface {
	// Publish публикует payload в топик
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe подписывается на топик. Сообщения доставляются по одному в
	// ограниченный канал с единственным потребителем; канал закрывается при
	// отмене ctx или закрытии шины.
	Subscribe(ctx context.Context, topic string) (<-chan []byte, error)

	// Close разрывает соединение с брокером
	Close() error
}

// Publisher определяет только публикующую часть Bus
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}
