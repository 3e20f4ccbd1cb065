// Package httptransport exposes the readiness of a lane process over HTTP.
package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"interceptor/internal/domain/models"
	"interceptor/internal/domain/ports"
)

const shutdownTimeout = 2 * time.Second

// StatusSource is the read side of the readiness registry.
type StatusSource interface {
	Snapshot() []models.ReadinessStatus
	Ready() bool
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Service string                   `json:"service"`
	Ready   bool                     `json:"ready"`
	Devices []models.ReadinessStatus `json:"devices"`
}

// NewRouter registers /healthz and /status.
func NewRouter(service string, src StatusSource, log ports.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(Logging(log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})

	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, StatusResponse{
			Service: service,
			Ready:   src.Ready(),
			Devices: src.Snapshot(),
		})
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve runs an HTTP server on addr until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, log ports.Logger) error {
	log = ports.OrNop(log)
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Status endpoint listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
