package ports

import (
	"context"

	"interceptor/internal/domain/models"
)

// StatusSink принимает изменения готовности устройств
type StatusSink interface {
	Report(ctx context.Context, st models.ReadinessStatus)
}
