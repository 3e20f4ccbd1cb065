package ports

import (
	"io"

	"interceptor/internal/domain/models"
)

// SerialPort определяет открытый последовательный порт
type SerialPort interface {
	io.ReadWriteCloser
}

// SerialOpener открывает порт с параметрами кадра из SerialEndpoint
type SerialOpener interface {
	Open(ep models.SerialEndpoint) (SerialPort, error)
}

// PortLister возвращает список последовательных устройств, подключенных к системе
type PortLister interface {
	ListPorts() ([]string, error)
}
