package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"reachgraph/internal/codec"
	"reachgraph/internal/domain"
	"reachgraph/internal/registry"
	"reachgraph/internal/scheduler"
	"reachgraph/internal/service"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 16

// Monitor is the command surface the handler drives
type Monitor interface {
	Add(address string) service.Result
	Remove(address string) service.Result
	Nodes() []domain.Node
	Snapshot() domain.Snapshot
	TriggerRound(ctx context.Context) (scheduler.RoundResult, error)
	Stats() (scheduler.Stats, error)
}

// MonitorHandler handles the monitor API
type MonitorHandler struct {
	svc    Monitor
	logger *slog.Logger
}

// NewMonitorHandler creates a new monitor handler
func NewMonitorHandler(svc Monitor, logger *slog.Logger) *MonitorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MonitorHandler{svc: svc, logger: logger.With("component", "http")}
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// AddRequest is the body of POST /api/nodes
type AddRequest struct {
	Address string `json:"address"`
}

// ResultResponse reports a mutation outcome
type ResultResponse struct {
	Op      service.Op `json:"op"`
	Address string     `json:"address"`
	Message string     `json:"message"`
}

// StatusResponse is the body of GET /api/status
type StatusResponse struct {
	Nodes     int             `json:"nodes"`
	Sequence  uint64          `json:"sequence"`
	Scheduler scheduler.Stats `json:"scheduler"`
}

// Register adds the API routes to mux. events serves the SSE stream and may
// be nil.
func (h *MonitorHandler) Register(mux *http.ServeMux, events http.Handler) {
	mux.HandleFunc("GET /api/snapshot", h.GetSnapshot)
	mux.HandleFunc("GET /api/nodes", h.ListNodes)
	mux.HandleFunc("POST /api/nodes", h.AddNode)
	mux.HandleFunc("DELETE /api/nodes/{address}", h.RemoveNode)
	mux.HandleFunc("POST /api/rounds", h.TriggerRound)
	mux.HandleFunc("GET /api/status", h.Status)
	mux.HandleFunc("GET /healthz", h.Healthz)
	if events != nil {
		mux.Handle("GET /events", events)
	}
}

// GetSnapshot returns the latest snapshot in the requested format
func (h *MonitorHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	exporter, err := codec.ForFormat(format)
	if err != nil {
		h.writeError(w, "Invalid format", err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", contentType(exporter.Format()))
	if err := exporter.Export(h.svc.Snapshot(), w); err != nil {
		h.logger.Error("failed to export snapshot", "format", format, "error", err)
	}
}

// ListNodes returns the monitored nodes
func (h *MonitorHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.svc.Nodes(), http.StatusOK)
}

// AddNode starts monitoring an address
func (h *MonitorHandler) AddNode(w http.ResponseWriter, r *http.Request) {
	var req AddRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	res := h.svc.Add(req.Address)
	if !res.OK() {
		h.writeResultError(w, res)
		return
	}
	h.writeJSON(w, toResponse(res), http.StatusCreated)
}

// RemoveNode stops monitoring an address
func (h *MonitorHandler) RemoveNode(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	if strings.TrimSpace(address) == "" {
		h.writeError(w, "Invalid address", "address is required", http.StatusBadRequest)
		return
	}

	res := h.svc.Remove(address)
	if !res.OK() {
		h.writeResultError(w, res)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TriggerRound runs one probing round and returns its summary
func (h *MonitorHandler) TriggerRound(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.TriggerRound(r.Context())
	switch {
	case err == nil:
		h.writeJSON(w, res, http.StatusOK)
	case errors.Is(err, scheduler.ErrRoundInFlight):
		h.writeError(w, "Round in flight", err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrNoScheduler):
		h.writeError(w, "Scheduler unavailable", err.Error(), http.StatusServiceUnavailable)
	default:
		h.writeError(w, "Round failed", err.Error(), http.StatusInternalServerError)
	}
}

// Status returns scheduler counters
func (h *MonitorHandler) Status(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats()
	if err != nil {
		h.writeError(w, "Scheduler unavailable", err.Error(), http.StatusServiceUnavailable)
		return
	}

	snap := h.svc.Snapshot()
	h.writeJSON(w, StatusResponse{
		Nodes:     snap.Spokes(),
		Sequence:  snap.Sequence,
		Scheduler: stats,
	}, http.StatusOK)
}

// Healthz reports that the process is serving
func (h *MonitorHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// Helper methods

func toResponse(res service.Result) ResultResponse {
	return ResultResponse{Op: res.Op, Address: res.Address, Message: res.String()}
}

func (h *MonitorHandler) writeResultError(w http.ResponseWriter, res service.Result) {
	switch {
	case errors.Is(res.Err, registry.ErrInvalidAddress):
		h.writeError(w, "Invalid address", res.Err.Error(), http.StatusBadRequest)
	case errors.Is(res.Err, registry.ErrDuplicateAddress):
		h.writeError(w, "Duplicate address", res.Err.Error(), http.StatusConflict)
	case errors.Is(res.Err, registry.ErrNotFound):
		h.writeError(w, "Not found", res.Err.Error(), http.StatusNotFound)
	default:
		h.writeError(w, "Command failed", res.Err.Error(), http.StatusInternalServerError)
	}
}

func (h *MonitorHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *MonitorHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	h.writeJSON(w, ErrorResponse{Error: error, Details: details}, statusCode)
}

func contentType(format string) string {
	switch format {
	case "yaml":
		return "application/yaml"
	case "table":
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}
