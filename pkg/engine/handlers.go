package engine

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/docflow/pkg/document"
	"github.com/platinummonkey/docflow/pkg/groups"
	"github.com/platinummonkey/docflow/pkg/httputil"
	"github.com/platinummonkey/docflow/pkg/identity"
	"github.com/platinummonkey/docflow/pkg/storage"
)

// Handler is the thin HTTP adapter over the engine. It decodes requests,
// resolves the caller through the identity collaborator, and maps typed
// engine errors onto statuses. No authorization decisions happen here.
type Handler struct {
	svc      *Service
	identity identity.IdentityResolver
}

// NewHandler builds the HTTP adapter.
func NewHandler(svc *Service, resolver identity.IdentityResolver) *Handler {
	return &Handler{svc: svc, identity: resolver}
}

// RegisterRoutes attaches all engine routes under /api/v1.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/docs/{type}", h.createDoc).Methods(http.MethodPost)
	api.HandleFunc("/docs/{type}", h.queryDocs).Methods(http.MethodGet)
	api.HandleFunc("/docs/{type}/{id}", h.getDoc).Methods(http.MethodGet)
	api.HandleFunc("/docs/{type}/{id}", h.updateDoc).Methods(http.MethodPut)
	api.HandleFunc("/docs/{type}/{id}", h.deleteDoc).Methods(http.MethodDelete)
	api.HandleFunc("/docs/{type}/{id}/action", h.runAction).Methods(http.MethodPost)

	api.HandleFunc("/groups", h.createGroup).Methods(http.MethodPost)
	api.HandleFunc("/groups", h.listGroups).Methods(http.MethodGet)
	api.HandleFunc("/groups/{id}", h.getGroup).Methods(http.MethodGet)
	api.HandleFunc("/groups/{id}", h.updateGroup).Methods(http.MethodPut)
	api.HandleFunc("/groups/{id}", h.deleteGroup).Methods(http.MethodDelete)

	api.HandleFunc("/admin/export", h.exportAll).Methods(http.MethodGet)
	api.HandleFunc("/admin/export-ids", h.exportIDs).Methods(http.MethodGet)
	api.HandleFunc("/admin/export/{type}/{id}", h.exportOne).Methods(http.MethodGet)
	api.HandleFunc("/admin/import", h.importMany).Methods(http.MethodPost)
	api.HandleFunc("/admin/reset", h.resetAll).Methods(http.MethodPost)
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (identity.Caller, bool) {
	c, ok := h.identity.Resolve(r)
	if !ok {
		httputil.WriteUnauthorized(w, "no caller identity")
	}
	return c, ok
}

func (h *Handler) createDoc(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var fields map[string]interface{}
	if err := httputil.DecodeJSON(r, &fields); err != nil {
		httputil.WriteBadRequest(w, "invalid JSON body")
		return
	}
	doc, err := h.svc.Create(r.Context(), caller, mux.Vars(r)["type"], fields)
	if err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	httputil.WriteCreated(w, doc)
}

func (h *Handler) getDoc(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	doc, err := h.svc.Get(r.Context(), caller, vars["type"], vars["id"])
	if err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	httputil.WriteSuccess(w, doc)
}

// queryDocs filters on URL query parameters; _fields selects a projection.
func (h *Handler) queryDocs(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	filter := storage.Filter{}
	var projection []string
	for key, values := range r.URL.Query() {
		if len(values) == 0 {
			continue
		}
		if key == "_fields" {
			projection = strings.Split(values[0], ",")
			continue
		}
		filter[key] = values[0]
	}
	docs, err := h.svc.Query(r.Context(), caller, mux.Vars(r)["type"], filter, projection)
	if err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{
		"items": docs,
		"total": len(docs),
	})
}

func (h *Handler) updateDoc(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var fields map[string]interface{}
	if err := httputil.DecodeJSON(r, &fields); err != nil {
		httputil.WriteBadRequest(w, "invalid JSON body")
		return
	}
	vars := mux.Vars(r)
	doc, err := h.svc.Update(r.Context(), caller, vars["type"], vars["id"], fields)
	if err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	httputil.WriteSuccess(w, doc)
}

func (h *Handler) deleteDoc(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	doc, err := h.svc.Delete(r.Context(), caller, vars["type"], vars["id"])
	if err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	httputil.WriteSuccess(w, doc)
}

func (h *Handler) runAction(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var args map[string]interface{}
	if r.ContentLength > 0 {
		if err := httputil.DecodeJSON(r, &args); err != nil {
			httputil.WriteBadRequest(w, "invalid JSON body")
			return
		}
	}
	vars := mux.Vars(r)
	result, err := h.svc.RunAction(r.Context(), caller, vars["type"], vars["id"], args)
	if err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	if result == nil {
		httputil.WriteNoContent(w)
		return
	}
	httputil.WriteSuccess(w, result)
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var g groups.UserGroup
	if err := httputil.DecodeJSON(r, &g); err != nil {
		httputil.WriteBadRequest(w, "invalid JSON body")
		return
	}
	if err := h.svc.CreateGroup(r.Context(), caller, &g); err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	httputil.WriteCreated(w, g)
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	list, err := h.svc.ListGroups(r.Context(), caller)
	if err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	httputil.WriteSuccess(w, list)
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	g, err := h.svc.GetGroup(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	httputil.WriteSuccess(w, g)
}

func (h *Handler) updateGroup(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var g groups.UserGroup
	if err := httputil.DecodeJSON(r, &g); err != nil {
		httputil.WriteBadRequest(w, "invalid JSON body")
		return
	}
	g.ID = mux.Vars(r)["id"]
	if err := h.svc.UpdateGroup(r.Context(), caller, &g); err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	httputil.WriteSuccess(w, g)
}

func (h *Handler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteGroup(r.Context(), caller, mux.Vars(r)["id"]); err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handler) exportAll(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	payload, err := h.svc.ExportAll(r.Context(), caller)
	if err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	httputil.WriteSuccess(w, payload)
}

func (h *Handler) exportIDs(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	ids, err := h.svc.ExportIDs(r.Context(), caller)
	if err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	httputil.WriteSuccess(w, ids)
}

func (h *Handler) exportOne(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	doc, err := h.svc.ExportOne(r.Context(), caller, vars["type"], vars["id"])
	if err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	httputil.WriteSuccess(w, doc)
}

func (h *Handler) importMany(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var payload map[string][]*document.Document
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.WriteBadRequest(w, "invalid JSON body")
		return
	}
	if err := h.svc.ImportMany(r.Context(), caller, payload); err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handler) resetAll(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	if err := h.svc.ResetAll(r.Context(), caller); err != nil {
		httputil.WriteEngineError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
