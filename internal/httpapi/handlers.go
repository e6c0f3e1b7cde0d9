package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/JihedeMedini/rfid-verify/internal/storage"
	"github.com/JihedeMedini/rfid-verify/internal/verifier"
	"github.com/JihedeMedini/rfid-verify/pkg/types"
)

// Handler exposes the verification engine over JSON HTTP
type Handler struct {
	engine *verifier.Verifier
	store  storage.Storage
	log    *zap.SugaredLogger
}

// NewHandler creates the HTTP handler set
func NewHandler(engine *verifier.Verifier, store storage.Storage, log *zap.SugaredLogger) *Handler {
	return &Handler{engine: engine, store: store, log: log}
}

// Router builds the API router with logging and metrics middleware applied
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()

	// Orders
	api.HandleFunc("/orders", h.CreateOrder).Methods("POST")
	api.HandleFunc("/orders", h.ListOrders).Methods("GET")
	api.HandleFunc("/orders/{id}", h.GetOrder).Methods("GET")

	// Verification
	api.HandleFunc("/orders/{id}/scan", h.Scan).Methods("POST")
	api.HandleFunc("/orders/{id}/submit", h.Submit).Methods("POST")
	api.HandleFunc("/orders/{id}/reset", h.Reset).Methods("POST")
	api.HandleFunc("/orders/{id}/summary", h.Summary).Methods("GET")
	api.HandleFunc("/orders/{id}/submissions", h.Submissions).Methods("GET")

	// Tag assignments
	api.HandleFunc("/tags/{tagId}/assignment", h.GetAssignment).Methods("GET")
	api.HandleFunc("/tags/{tagId}/assignment", h.AssignTag).Methods("PUT")
	api.HandleFunc("/tags/{tagId}/assignment", h.UnassignTag).Methods("DELETE")

	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/healthz", h.Health).Methods("GET")

	r.Use(h.accessLog)
	r.Use(instrument)

	return r
}

type createOrderRequest struct {
	ExternalRef string          `json:"externalRef"`
	Kind        types.OrderKind `json:"kind"`
	Lines       []struct {
		ItemID         string `json:"itemId"`
		TargetQuantity int    `json:"targetQuantity"`
	} `json:"lines"`
}

// CreateOrder registers an externally originated order
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order := &types.Order{
		ExternalRef: req.ExternalRef,
		Kind:        req.Kind,
	}
	for _, l := range req.Lines {
		order.Lines = append(order.Lines, &types.OrderLine{
			ItemID:    l.ItemID,
			TargetQty: l.TargetQuantity,
		})
	}

	if err := h.engine.CreateOrder(r.Context(), order); err != nil {
		switch {
		case errors.Is(err, types.ErrInvalidOrderKind), errors.Is(err, types.ErrInvalidTargetQty):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, storage.ErrAlreadyExists):
			writeError(w, http.StatusConflict, "order already exists")
		default:
			h.log.Errorw("create order failed", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to create order")
		}
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// ListOrders returns all order snapshots
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.engine.GetAllOrders(r.Context())
	if err != nil {
		h.log.Errorw("list orders failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetOrder returns one order snapshot
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.engine.GetOrderByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type scanRequest struct {
	TagID string `json:"tagId"`
}

// Scan verifies one tag against the order. Business rejections come back as
// 200 with the structured result; only infrastructure failures use error
// status codes.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TagID == "" {
		writeError(w, http.StatusBadRequest, "tagId is required")
		return
	}

	result, err := h.engine.VerifyTag(r.Context(), mux.Vars(r)["id"], req.TagID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Submit closes out the order's verification
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	status, err := h.engine.SubmitVerification(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"verificationStatus": status})
}

// Reset rolls the order's verification back to NOT_STARTED
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ResetVerification(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reset": true})
}

// Summary returns aggregated verification progress
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.engine.GetVerificationSummary(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Submissions returns the order's audit trail
func (h *Handler) Submissions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.engine.GetSubmissions(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	if subs == nil {
		subs = []*types.Submission{}
	}
	writeJSON(w, http.StatusOK, subs)
}

// GetAssignment serves the tag-to-item binding. The response shape matches
// what tagsvc.HTTPResolver consumes, so one deployment can act as the
// assignment service for another.
func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	tagID := mux.Vars(r)["tagId"]
	itemID, err := h.store.ResolveTag(r.Context(), tagID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "tag is not assigned to any item")
		return
	}
	if err != nil {
		h.log.Errorw("resolve tag failed", "tag", tagID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve tag")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"tagId": tagID, "itemId": itemID})
}

type assignRequest struct {
	ItemID string `json:"itemId"`
}

// AssignTag binds a tag to an item
func (h *Handler) AssignTag(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ItemID == "" {
		writeError(w, http.StatusBadRequest, "itemId is required")
		return
	}
	tagID := mux.Vars(r)["tagId"]
	if err := h.store.AssignTag(r.Context(), tagID, req.ItemID); err != nil {
		h.log.Errorw("assign tag failed", "tag", tagID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to assign tag")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"tagId": tagID, "itemId": req.ItemID})
}

// UnassignTag removes a tag binding
func (h *Handler) UnassignTag(w http.ResponseWriter, r *http.Request) {
	tagID := mux.Vars(r)["tagId"]
	err := h.store.UnassignTag(r.Context(), tagID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "tag is not assigned to any item")
		return
	}
	if err != nil {
		h.log.Errorw("unassign tag failed", "tag", tagID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to unassign tag")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeEngineError maps engine errors onto status codes. Retryable failures
// (write conflict, lock timeout) are distinguished from storage failures so
// clients don't mis-report an I/O problem as a scan outcome.
func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, types.ErrEmptyTagID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, types.ErrConflict):
		writeError(w, http.StatusConflict, "order modified concurrently, retry")
	case errors.Is(err, types.ErrLockTimeout):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "order busy, retry")
	default:
		h.log.Errorw("engine call failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
