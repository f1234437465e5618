// Package api exposes the timestamp-conversion HTTP surface. Every
// handler runs its work through the recovery coordinator so a failing
// dependency degrades gracefully instead of surfacing raw errors.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/iwangdonghui/tsconv-sub005/internal/core/domain"
	"github.com/iwangdonghui/tsconv-sub005/internal/infra/cache"
	"github.com/iwangdonghui/tsconv-sub005/internal/infra/storage"
	"github.com/iwangdonghui/tsconv-sub005/internal/metrics"
	"github.com/iwangdonghui/tsconv-sub005/internal/resilience/breaker"
	"github.com/iwangdonghui/tsconv-sub005/internal/resilience/bulkhead"
	"github.com/iwangdonghui/tsconv-sub005/internal/resilience/recovery"
)

// Server serves the conversion API.
type Server struct {
	coord   *recovery.Coordinator
	cache   *cache.Client
	archive storage.FailureArchiveRepository
	log     *slog.Logger
	server  *http.Server
}

// NewServer creates the API server. cache may be nil (lookups are
// computed every time); archive may be nil (admin errors shows the
// rolling history only).
func NewServer(
	coord *recovery.Coordinator,
	cacheClient *cache.Client,
	archive storage.FailureArchiveRepository,
	port int,
	log *slog.Logger,
) *Server {
	if log == nil {
		log = slog.Default()
	}

	mux := http.NewServeMux()
	s := &Server{
		coord:   coord,
		cache:   cacheClient,
		archive: archive,
		log:     log,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("POST /api/convert", s.handleConvert)
	mux.HandleFunc("GET /api/now", s.handleNow)
	mux.HandleFunc("GET /api/timezone", s.handleTimezone)
	mux.HandleFunc("GET /api/admin/stats", s.handleAdminStats)
	mux.HandleFunc("GET /api/admin/errors", s.handleAdminErrors)
	mux.HandleFunc("POST /api/admin/reset", s.handleAdminReset)

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

// errorBody is the JSON error envelope.
type errorBody struct {
	ID          string   `json:"id"`
	Category    string   `json:"category"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, endpoint string, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Warn("failed to encode response", "endpoint", endpoint, "error", err)
	}
	metrics.ConversionRequests.
		WithLabelValues(endpoint, fmt.Sprintf("%d", status)).Inc()
}

// writeFailure renders a classified failure. Rejections raised by the
// resilience layer itself mean the dependency is unavailable rather than
// the request being wrong, so they map to 503 regardless of category.
func (s *Server) writeFailure(
	w http.ResponseWriter,
	endpoint string,
	rec *domain.FailureRecord,
	err error,
) {
	status := rec.StatusCode
	message := rec.UserMessage
	if isRejection(err) {
		status = http.StatusServiceUnavailable
		message = "The service is temporarily overloaded. Please try again shortly."
	}

	s.writeJSON(w, endpoint, status, map[string]errorBody{"error": {
		ID:          rec.ID,
		Category:    string(rec.Category),
		Message:     message,
		Suggestions: rec.Suggestions,
	}})
}

func isRejection(err error) bool {
	return errors.Is(err, breaker.ErrCircuitOpen) ||
		errors.Is(err, breaker.ErrTooManyTrialCalls) ||
		errors.Is(err, bulkhead.ErrQueueFull) ||
		errors.Is(err, bulkhead.ErrQueueTimeout)
}
