package orders

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/orderdesk/orderdesk/internal/logging"
)

// Handler exposes the order service as a REST API under /api/orders.
func Handler(svc *Service, log *logging.Logger) http.Handler {
	h := &handlers{svc: svc, log: log.Sub("orders.http")}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("POST /api/orders", h.create)
	mux.HandleFunc("GET /api/orders", h.list)
	mux.HandleFunc("GET /api/orders/{id}", h.get)
	mux.HandleFunc("PUT /api/orders/{id}", h.update)
	mux.HandleFunc("DELETE /api/orders/{id}", h.cancel)
	mux.HandleFunc("PATCH /api/orders/{id}/address", h.updateAddress)
	return mux
}

type handlers struct {
	svc *Service
	log *logging.Logger
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	var o Order
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		writeError(w, http.StatusBadRequest, "invalid order payload: "+err.Error())
		return
	}
	if o.CustomerName == "" || o.CustomerEmail == "" || len(o.Items) == 0 {
		writeError(w, http.StatusBadRequest, "customerName, customerEmail and items are required")
		return
	}

	created, err := h.svc.Create(o)
	if err != nil {
		h.log.Error().Err(err).Msg("create order failed")
		writeError(w, http.StatusInternalServerError, "failed to create order")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.List()
	if err != nil {
		h.log.Error().Err(err).Msg("list orders failed")
		writeError(w, http.StatusInternalServerError, "failed to fetch orders")
		return
	}
	body, err := MarshalJSONList(orders)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode orders")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (h *handlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	o, err := h.svc.Get(id)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Order with ID %d not found", id))
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int64("id", id).Msg("get order failed")
		writeError(w, http.StatusInternalServerError, "failed to fetch order")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *handlers) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var o Order
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		writeError(w, http.StatusBadRequest, "invalid order payload: "+err.Error())
		return
	}
	updated, err := h.svc.Update(id, o)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Order with ID %d not found", id))
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int64("id", id).Msg("update order failed")
		writeError(w, http.StatusInternalServerError, "failed to update order")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handlers) cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	err := h.svc.Cancel(id)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Order with ID %d not found", id))
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int64("id", id).Msg("cancel order failed")
		writeError(w, http.StatusInternalServerError, "failed to cancel order")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) updateAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	address := r.URL.Query().Get("address")
	if address == "" {
		writeError(w, http.StatusBadRequest, "address query parameter is required")
		return
	}
	o, err := h.svc.UpdateAddress(id, address)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Order with ID %d not found", id))
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int64("id", id).Msg("update address failed")
		writeError(w, http.StatusInternalServerError, "failed to update order address")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
