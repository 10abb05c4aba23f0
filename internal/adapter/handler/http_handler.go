package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/rl1809/warehouse-slotting/internal/core/domain"
	"github.com/rl1809/warehouse-slotting/internal/core/service"
)

// HTTPHandler is the operator-facing surface: goods-in intake, scan
// confirmation sessions, registry reads, stats and maintenance.
type HTTPHandler struct {
	items     *service.ItemService
	locations *service.LocationService
	sessions  *service.SessionManager
	txm       *service.TransactionManager
	stats     *service.StatsService
	log       zerolog.Logger
}

func NewHTTPHandler(
	items *service.ItemService,
	locations *service.LocationService,
	sessions *service.SessionManager,
	txm *service.TransactionManager,
	stats *service.StatsService,
	log zerolog.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		items:     items,
		locations: locations,
		sessions:  sessions,
		txm:       txm,
		stats:     stats,
		log:       log,
	}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("POST /api/items", h.ReceiveItem)
	mux.HandleFunc("GET /api/items", h.ListItems)
	mux.HandleFunc("GET /api/locations", h.ListLocations)
	mux.HandleFunc("GET /api/movements", h.ListMovements)
	mux.HandleFunc("GET /api/stats", h.Stats)
	mux.HandleFunc("POST /api/repair", h.Repair)
	mux.HandleFunc("POST /api/sessions/placement", h.StartPlacement)
	mux.HandleFunc("POST /api/sessions/retrieval", h.StartRetrieval)
	mux.HandleFunc("POST /api/sessions/{id}/scan", h.Scan)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.CancelSession)
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// writeError maps the engine's error taxonomy onto HTTP statuses.
func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	kind := "internal"
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrValidation):
		status, kind = http.StatusUnprocessableEntity, "validation"
	case errors.Is(err, domain.ErrConflict):
		status, kind = http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrNoCapacity):
		status, kind = http.StatusGone, "no_capacity"
	case errors.Is(err, domain.ErrCodeMismatch):
		status, kind = http.StatusBadRequest, "code_mismatch"
	}
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("request failed")
		writeJSON(w, status, errorResponse{Error: "internal error", Kind: kind})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type receiveItemRequest struct {
	ReferenceCode string  `json:"reference_code"`
	Description   string  `json:"description"`
	Weight        float64 `json:"weight"`
	Category      string  `json:"category"`
}

func (h *HTTPHandler) ReceiveItem(w http.ResponseWriter, r *http.Request) {
	var req receiveItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: "bad_request"})
		return
	}
	item, err := h.items.Receive(r.Context(), req.ReferenceCode, req.Description, req.Weight, req.Category)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.log.Info().Str("item", item.SystemCode).Float64("weight", item.Weight).Msg("item received")
	writeJSON(w, http.StatusCreated, item)
}

func (h *HTTPHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	status := domain.ItemStatus(r.URL.Query().Get("status"))
	items, err := h.items.ListByStatus(r.Context(), status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *HTTPHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("available_for"); raw != "" {
		weight, err := strconv.ParseFloat(raw, 64)
		if err != nil || weight <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid available_for weight", Kind: "bad_request"})
			return
		}
		locations, err := h.locations.AvailableFor(r.Context(), weight)
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, locations)
		return
	}

	status := domain.LocationStatus(r.URL.Query().Get("status"))
	var locations []domain.Location
	var err error
	if status != "" {
		locations, err = h.locations.ByStatus(r.Context(), status)
	} else {
		locations, err = h.locations.All(r.Context())
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, locations)
}

func (h *HTTPHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	direction := domain.Direction(r.URL.Query().Get("direction"))
	movements, err := h.items.Movements(r.Context(), direction)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, movements)
}

func (h *HTTPHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Dashboard(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *HTTPHandler) Repair(w http.ResponseWriter, r *http.Request) {
	repaired, err := h.txm.RepairLocations(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.log.Info().Int("repaired", repaired).Msg("location repair finished")
	writeJSON(w, http.StatusOK, map[string]int{"repaired": repaired})
}

type startSessionRequest struct {
	ItemID   string `json:"item_id"`
	Operator string `json:"operator"`
}

type startSessionResponse struct {
	SessionID string `json:"session_id"`
}

func (h *HTTPHandler) StartPlacement(w http.ResponseWriter, r *http.Request) {
	h.startSession(w, r, h.sessions.StartPlacement)
}

func (h *HTTPHandler) StartRetrieval(w http.ResponseWriter, r *http.Request) {
	h.startSession(w, r, h.sessions.StartRetrieval)
}

func (h *HTTPHandler) startSession(w http.ResponseWriter, r *http.Request,
	start func(ctx context.Context, itemID, operator string) (string, error)) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ItemID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "item_id is required", Kind: "bad_request"})
		return
	}
	id, err := start(r.Context(), req.ItemID, req.Operator)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, startSessionResponse{SessionID: id})
}

type scanRequest struct {
	Code string `json:"code"`
}

type scanResponse struct {
	OK             bool   `json:"ok"`
	Phase          string `json:"phase"`
	TargetLocation string `json:"target_location,omitempty"`
	Done           bool   `json:"done"`
	Message        string `json:"message,omitempty"`
}

func (h *HTTPHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "code is required", Kind: "bad_request"})
		return
	}
	result, err := h.sessions.Scan(r.Context(), r.PathValue("id"), req.Code)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scanResponse{
		OK:             true,
		Phase:          result.Phase.String(),
		TargetLocation: result.TargetLocation,
		Done:           result.Done,
		Message:        result.Message,
	})
}

func (h *HTTPHandler) CancelSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Cancel(r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
