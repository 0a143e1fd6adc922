package toolsrv

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/orderdesk/orderdesk/internal/catalog"
	"github.com/orderdesk/orderdesk/internal/logging"
	"github.com/orderdesk/orderdesk/internal/orders"
)

// Handler exposes the tool catalog and the proxied order endpoints.
func Handler(backend *BackendClient, log *logging.Logger) http.Handler {
	h := &handlers{
		backend: backend,
		tools:   DefaultCatalog(),
		log:     log.Sub("toolsrv"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /mcp/tools", h.listTools)
	mux.HandleFunc("POST /mcp/orders", h.createOrder)
	mux.HandleFunc("GET /mcp/orders", h.getAllOrders)
	mux.HandleFunc("GET /mcp/orders/{id}", h.getOrder)
	mux.HandleFunc("PUT /mcp/orders/{id}", h.updateOrder)
	mux.HandleFunc("DELETE /mcp/orders/{id}", h.cancelOrder)
	mux.HandleFunc("PATCH /mcp/orders/{id}/address", h.updateAddress)
	return mux
}

type handlers struct {
	backend *BackendClient
	tools   []catalog.Descriptor
	log     *logging.Logger
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listTools publishes the catalog consumed by the orchestration engine.
func (h *handlers) listTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": h.tools})
}

func (h *handlers) createOrder(w http.ResponseWriter, r *http.Request) {
	var o orders.Order
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		writeError(w, http.StatusBadRequest, "invalid order payload: "+err.Error())
		return
	}
	created, err := h.backend.Create(r.Context(), o)
	if err != nil {
		h.log.Error().Err(err).Msg("create order proxy failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (h *handlers) getAllOrders(w http.ResponseWriter, r *http.Request) {
	h.log.Info().Msg("fetching all orders")
	list, err := h.backend.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list orders proxy failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if list == nil {
		list = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	o, err := h.backend.Get(r.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int64("id", id).Msg("get order proxy failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *handlers) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var o orders.Order
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		writeError(w, http.StatusBadRequest, "invalid order payload: "+err.Error())
		return
	}
	updated, err := h.backend.Update(r.Context(), id, o)
	if err != nil {
		h.log.Error().Err(err).Int64("id", id).Msg("update order proxy failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// cancelOrder wraps the backend's empty 204 in a confirmation message so the
// model has text to summarize.
func (h *handlers) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.backend.Cancel(r.Context(), id); err != nil {
		h.log.Error().Err(err).Int64("id", id).Msg("cancel order proxy failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Order %d was cancelled successfully.", id),
	})
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
	o, err := h.backend.UpdateAddress(r.Context(), id, address)
	if err != nil {
		h.log.Error().Err(err).Int64("id", id).Msg("update address proxy failed")
		writeError(w, http.StatusBadGateway, err.Error())
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
