package controllers

import (
	"net/http"

	"github.com/rzbill/sharedq/internal/runtime"
	logpkg "github.com/rzbill/sharedq/pkg/log"
)

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	general *GeneralController
	queues  *QueuesController
	peer    *PeerController
}

// NewControllerRegistry creates a new controller registry.
func NewControllerRegistry(rt *runtime.Runtime, logger logpkg.Logger) *ControllerRegistry {
	return &ControllerRegistry{
		general: NewGeneralController(rt),
		queues:  NewQueuesController(rt, logger),
		peer:    NewPeerController(rt, logger),
	}
}

// RegisterAllRoutes registers all controller routes with the given mux:
// health and namespaces, the per-namespace queue endpoints, and the peer
// event endpoint.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.queues.RegisterRoutes(mux)
	r.peer.RegisterRoutes(mux)
}
