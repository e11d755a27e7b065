package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pkalnins/shelf/internal/models"
	"github.com/pkalnins/shelf/internal/store"
	"github.com/pkalnins/shelf/internal/undo"
)

// ServerConfig holds configurable limits for the server.
type ServerConfig struct {
	DefaultPageSize   int
	MaxPageSize       int
	BatchListLimit    int
	RequestsPerMinute int // rate limit on the revert endpoints
}

// DefaultServerConfig returns reasonable defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		DefaultPageSize:   50,
		MaxPageSize:       200,
		BatchListLimit:    100,
		RequestsPerMinute: 60,
	}
}

// Handler creates the HTTP handler with all routes and middleware.
// The returned cleanup function stops background goroutines and should
// be called on server shutdown.
func Handler(st *store.Store, engine *undo.Engine, cfg *ServerConfig, logger *slog.Logger) (http.Handler, func()) {
	if cfg == nil {
		cfg = DefaultServerConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	rl := newRateLimiter(cfg.RequestsPerMinute)
	h := &handlers{store: st, engine: engine, cfg: cfg}

	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("not ready: log store unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Operation log queries
	mux.HandleFunc("GET /api/v1/operations", h.listOperations)
	mux.HandleFunc("GET /api/v1/operations/count", h.countOperations)
	mux.HandleFunc("GET /api/v1/batches", h.listBatches)

	// Revert triggers, rate limited
	mux.Handle("POST /api/v1/operations/{id}/revert", rl.middleware(http.HandlerFunc(h.revertOperation)))
	mux.Handle("POST /api/v1/batches/{id}/revert", rl.middleware(http.HandlerFunc(h.revertBatch)))

	// Revert progress polling
	mux.HandleFunc("GET /api/v1/batches/{id}/revert/progress", h.revertProgress)

	handler := applyMiddleware(mux,
		recoveryMiddleware(logger),
		loggingMiddleware(logger),
		requestIDMiddleware,
	)

	cleanup := func() {
		rl.Stop()
	}

	return handler, cleanup
}

type handlers struct {
	store  *store.Store
	engine *undo.Engine
	cfg    *ServerConfig
}

// parseKind validates the optional kind query parameter.
func parseKind(r *http.Request) (models.OperationKind, error) {
	raw := r.URL.Query().Get("kind")
	if raw == "" {
		return "", nil
	}
	kind := models.OperationKind(raw)
	if !kind.Valid() {
		return "", fmt.Errorf("unknown kind %q, want MOVE or RENAME", raw)
	}
	return kind, nil
}

func (h *handlers) listOperations(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request", "message": err.Error()})
		return
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if page, err = strconv.Atoi(raw); err != nil || page < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request", "message": "page must be a positive integer"})
			return
		}
	}

	pageSize := h.cfg.DefaultPageSize
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		if pageSize, err = strconv.Atoi(raw); err != nil || pageSize < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request", "message": "page_size must be a positive integer"})
			return
		}
		if pageSize > h.cfg.MaxPageSize {
			pageSize = h.cfg.MaxPageSize
		}
	}

	ops, err := h.store.List(page, pageSize, kind)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error", "message": err.Error()})
		return
	}
	if ops == nil {
		ops = []*models.Operation{}
	}
	writeJSON(w, http.StatusOK, ops)
}

func (h *handlers) countOperations(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request", "message": err.Error()})
		return
	}

	n, err := h.store.Count(kind)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error", "message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"total": n})
}

func (h *handlers) listBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.store.ListBatches(h.cfg.BatchListLimit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error", "message": err.Error()})
		return
	}
	if batches == nil {
		batches = []*models.BatchSummary{}
	}
	writeJSON(w, http.StatusOK, batches)
}

// revertOutcomeStatus maps a revert outcome to an HTTP status code.
func revertOutcomeStatus(outcome models.RevertOutcome) int {
	switch outcome.Result {
	case models.Reverted, models.AlreadyReverted:
		return http.StatusOK
	}
	switch outcome.Reason {
	case models.TargetMissing, models.SourceOccupied:
		return http.StatusConflict
	case models.VolumeUnreachable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *handlers) revertOperation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request", "message": "operation id must be an integer"})
		return
	}

	outcome, err := h.engine.RevertOne(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error":   "not_found",
				"message": fmt.Sprintf("operation %d not found", id),
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error", "message": err.Error()})
		return
	}

	writeJSON(w, revertOutcomeStatus(outcome), outcome)
}

func (h *handlers) revertBatch(w http.ResponseWriter, r *http.Request) {
	batchID := r.PathValue("id")

	total, err := h.engine.RevertBatch(r.Context(), batchID)
	if err != nil {
		if errors.Is(err, undo.ErrNoRevertibleOperations) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error":   "not_found",
				"message": "batch has no revertible operations",
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error", "message": err.Error()})
		return
	}

	// Work proceeds in the background; observe it via the progress poll.
	writeJSON(w, http.StatusAccepted, map[string]any{
		"batch_id": batchID,
		"total":    total,
	})
}

func (h *handlers) revertProgress(w http.ResponseWriter, r *http.Request) {
	batchID := r.PathValue("id")

	progress, ok := h.engine.Tracker().Get(batchID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error":   "not_found",
			"message": "no batch revert in progress for this batch",
		})
		return
	}
	writeJSON(w, http.StatusOK, progress)
}
