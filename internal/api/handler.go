package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eugenenazirov/batch-picker/internal/inventory"
	"github.com/eugenenazirov/batch-picker/internal/metrics"
	"github.com/eugenenazirov/batch-picker/internal/search"
	"github.com/eugenenazirov/batch-picker/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Searcher runs a single frontier search.
type Searcher interface {
	Search(ctx context.Context, catalog *inventory.Catalog, target, window int) (search.Result, error)
}

// Handler wires search and storage dependencies into HTTP handlers.
type Handler struct {
	searcher Searcher
	storage  storage.Storage
	logger   *zap.Logger

	defaultWindow int
	searchTimeout time.Duration

	clock func() time.Time

	mu               sync.RWMutex
	batchesUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithDefaultWindow sets the window used when a search request omits one.
func WithDefaultWindow(window int) HandlerOption {
	return func(h *Handler) {
		h.defaultWindow = window
	}
}

// WithSearchTimeout bounds how long a single search may run.
func WithSearchTimeout(timeout time.Duration) HandlerOption {
	return func(h *Handler) {
		h.searchTimeout = timeout
	}
}

// WithHandlerLogger sets the logger used for search outcomes.
func WithHandlerLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(searcher Searcher, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		searcher:      searcher,
		storage:       store,
		logger:        zap.NewNop(),
		defaultWindow: search.DefaultWindow,
		searchTimeout: 30 * time.Second,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.batchesUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetBatches(w http.ResponseWriter, r *http.Request) {
	_ = r
	catalog, err := h.storage.GetCatalog()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.batchesResponse(catalog, ""))
}

func (h *Handler) handlePutBatches(w http.ResponseWriter, r *http.Request) {
	var req batchesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if len(req.Batches) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid batches", "batches must contain at least one batch")
		return
	}

	if err := h.storage.SetBatches(req.Batches); err != nil {
		if errors.Is(err, storage.ErrInvalidBatches) {
			writeError(w, http.StatusBadRequest, "Invalid batches", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markBatchesUpdated()

	catalog, err := h.storage.GetCatalog()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.batchesResponse(catalog, "Batches updated successfully"))
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if req.Target <= 0 {
		metrics.RecordSearchFailure("invalid")
		writeError(w, http.StatusBadRequest, "Invalid request", "target must be a positive integer")
		return
	}

	window := h.defaultWindow
	if req.Window != nil {
		window = *req.Window
	}

	catalog, err := h.storage.GetCatalog()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.searchTimeout)
	defer cancel()

	searchID := uuid.NewString()
	start := time.Now()
	result, searchErr := h.searcher.Search(ctx, catalog, req.Target, window)
	elapsed := time.Since(start)

	if searchErr != nil {
		h.logger.Warn("search failed",
			zap.String("search_id", searchID),
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.Int("target", req.Target),
			zap.Error(searchErr),
		)
		switch {
		case errors.Is(searchErr, search.ErrInvalidTarget), errors.Is(searchErr, search.ErrInvalidWindow):
			metrics.RecordSearchFailure("invalid")
			writeError(w, http.StatusBadRequest, "Invalid request", searchErr.Error())
		case errors.Is(searchErr, context.DeadlineExceeded):
			metrics.RecordSearchFailure("timeout")
			writeError(w, http.StatusGatewayTimeout, "Search timed out", searchErr.Error(), "Reduce the window or split the inventory")
		case errors.Is(searchErr, search.ErrCanceled):
			metrics.RecordSearchFailure("canceled")
			writeError(w, http.StatusServiceUnavailable, "Search canceled", searchErr.Error())
		default:
			metrics.RecordSearchFailure("error")
			writeInternalError(w, searchErr)
		}
		return
	}

	metrics.RecordSearch(result)
	h.logger.Info("search completed",
		zap.String("search_id", searchID),
		zap.Stringer("outcome", result.Outcome),
		zap.Int("target", req.Target),
		zap.Int("window", window),
		zap.Int64("expansions", result.Stats.Expansions),
	)

	resp := searchResponse{
		SearchID:          searchID,
		Status:            result.Outcome.String(),
		Target:            result.Target,
		Window:            result.Window,
		BestQuantity:      result.BestQuantity,
		Stats:             newStatsResponse(result.Stats),
		CalculationTimeMs: elapsed.Milliseconds(),
	}

	if !result.Found() {
		resp.Suggestion = fmt.Sprintf("No exact selection within window %d; retry with a wider window", window)
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	resp.Selection = make([]pickResponse, 0, len(result.Selection))
	for _, pick := range result.Selection {
		b, err := catalog.Batch(pick.BatchID)
		if err != nil {
			writeInternalError(w, err)
			return
		}
		quantity := pick.Count * b.UnitSize
		resp.TotalQuantity += quantity
		resp.TotalPackages += pick.Count
		resp.Selection = append(resp.Selection, pickResponse{
			BatchID:    b.ID,
			UnitSize:   b.UnitSize,
			Count:      pick.Count,
			Available:  b.UnitCount,
			Quantity:   quantity,
			WholeBatch: pick.Count == b.UnitCount,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) batchesResponse(catalog *inventory.Catalog, message string) batchesResponse {
	batches := make([]batchResponse, 0, catalog.Len())
	catalog.Each(func(b inventory.Batch) bool {
		batches = append(batches, batchResponse{
			ID:            b.ID,
			UnitSize:      b.UnitSize,
			UnitCount:     b.UnitCount,
			TotalQuantity: b.TotalQuantity(),
		})
		return true
	})

	return batchesResponse{
		Batches:       batches,
		TotalQuantity: catalog.TotalQuantity(),
		UpdatedAt:     h.currentBatchesUpdatedAt(),
		Message:       message,
	}
}

func (h *Handler) currentBatchesUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.batchesUpdatedAt
}

func (h *Handler) markBatchesUpdated() {
	h.mu.Lock()
	h.batchesUpdatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type batchesRequest struct {
	Batches []inventory.Spec `json:"batches"`
}

type searchRequest struct {
	Target int  `json:"target"`
	Window *int `json:"window,omitempty"`
}

type batchResponse struct {
	ID            int `json:"id"`
	UnitSize      int `json:"unitSize"`
	UnitCount     int `json:"unitCount"`
	TotalQuantity int `json:"totalQuantity"`
}

type batchesResponse struct {
	Batches       []batchResponse `json:"batches"`
	TotalQuantity int             `json:"totalQuantity"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Message       string          `json:"message,omitempty"`
}

type pickResponse struct {
	BatchID    int  `json:"batchId"`
	UnitSize   int  `json:"unitSize"`
	Count      int  `json:"count"`
	Available  int  `json:"available"`
	Quantity   int  `json:"quantity"`
	WholeBatch bool `json:"wholeBatch"`
}

type statsResponse struct {
	Batches      int   `json:"batches"`
	Expansions   int64 `json:"expansions"`
	Insertions   int64 `json:"insertions"`
	Prunes       int   `json:"prunes"`
	Pruned       int64 `json:"pruned"`
	PeakFrontier int   `json:"peakFrontier"`
	ExpandTimeMs int64 `json:"expandTimeMs"`
	PruneTimeMs  int64 `json:"pruneTimeMs"`
	ElapsedMs    int64 `json:"elapsedMs"`
}

func newStatsResponse(s search.Stats) statsResponse {
	return statsResponse{
		Batches:      s.Batches,
		Expansions:   s.Expansions,
		Insertions:   s.Insertions,
		Prunes:       s.Prunes,
		Pruned:       s.Pruned,
		PeakFrontier: s.PeakFrontier,
		ExpandTimeMs: s.ExpandTime.Milliseconds(),
		PruneTimeMs:  s.PruneTime.Milliseconds(),
		ElapsedMs:    s.Elapsed.Milliseconds(),
	}
}

type searchResponse struct {
	SearchID          string         `json:"searchId"`
	Status            string         `json:"status"`
	Target            int            `json:"target"`
	Window            int            `json:"window"`
	Selection         []pickResponse `json:"selection,omitempty"`
	TotalQuantity     int            `json:"totalQuantity,omitempty"`
	TotalPackages     int            `json:"totalPackages,omitempty"`
	BestQuantity      int            `json:"bestQuantity"`
	Suggestion        string         `json:"suggestion,omitempty"`
	Stats             statsResponse  `json:"stats"`
	CalculationTimeMs int64          `json:"calculationTimeMs"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
