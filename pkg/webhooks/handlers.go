package webhooks

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/docflow/pkg/httputil"
)

// Guard authorizes webhook management requests. The wiring layer supplies
// one backed by the access evaluator's admin check.
type Guard func(r *http.Request) error

// Handler exposes webhook management over HTTP.
type Handler struct {
	manager *Manager
	guard   Guard
}

// NewHandler builds the webhook management adapter.
func NewHandler(manager *Manager, guard Guard) *Handler {
	return &Handler{manager: manager, guard: guard}
}

// RegisterRoutes attaches the management routes under /api/v1/admin.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1/admin/webhooks").Subrouter()
	api.HandleFunc("", h.register).Methods(http.MethodPost)
	api.HandleFunc("", h.list).Methods(http.MethodGet)
	api.HandleFunc("/{id}", h.get).Methods(http.MethodGet)
	api.HandleFunc("/{id}", h.delete).Methods(http.MethodDelete)
	api.HandleFunc("/{id}/deliveries", h.deliveries).Methods(http.MethodGet)
}

func (h *Handler) authorized(w http.ResponseWriter, r *http.Request) bool {
	if err := h.guard(r); err != nil {
		httputil.WriteEngineError(w, err)
		return false
	}
	return true
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}
	var hook Webhook
	if err := httputil.DecodeJSON(r, &hook); err != nil {
		httputil.WriteBadRequest(w, "invalid JSON body")
		return
	}
	if err := h.manager.Register(&hook); err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	httputil.WriteCreated(w, hook)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}
	httputil.WriteSuccess(w, h.manager.List())
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}
	hook, err := h.manager.Get(mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	httputil.WriteSuccess(w, hook)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}
	if err := h.manager.Delete(mux.Vars(r)["id"]); err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handler) deliveries(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}
	id := mux.Vars(r)["id"]
	if _, err := h.manager.Get(id); err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	httputil.WriteSuccess(w, h.manager.Deliveries(id))
}
