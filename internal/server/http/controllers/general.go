package controllers

import (
	"net/http"

	"github.com/rzbill/sharedq/internal/runtime"
)

// GeneralController handles health and namespace endpoints.
type GeneralController struct {
	rt *runtime.Runtime
}

// NewGeneralController creates a new general controller.
func NewGeneralController(rt *runtime.Runtime) *GeneralController {
	return &GeneralController{rt: rt}
}

// RegisterRoutes registers general routes with the given mux.
func (c *GeneralController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/healthz", c.handleHealth)
	mux.HandleFunc("GET /v1/namespaces", c.handleListNamespaces)
	mux.HandleFunc("POST /v1/namespaces", c.handleNSCreate)
}

// handleListNamespaces lists all namespaces.
func (c *GeneralController) handleListNamespaces(w http.ResponseWriter, r *http.Request) {
	list, err := c.rt.Namespaces()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list namespaces")
		return
	}
	writeJSON(w, map[string]any{"namespaces": list})
}

// handleHealth returns 200 with the node id when the store answers reads,
// 503 otherwise.
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.rt.CheckHealth(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_serving")
		return
	}
	writeJSON(w, map[string]string{"status": "ok", "node_id": c.rt.NodeID()})
}

// handleNSCreate creates a namespace from {"namespace": "..."}.
func (c *GeneralController) handleNSCreate(w http.ResponseWriter, r *http.Request) {
	var req nsCreateReq
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	meta, err := c.rt.EnsureNamespace(r.Context(), req.Namespace)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, meta)
}
