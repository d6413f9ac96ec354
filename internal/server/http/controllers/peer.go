package controllers

import (
	"io"
	"net/http"

	"github.com/rzbill/sharedq/internal/peersync"
	"github.com/rzbill/sharedq/internal/runtime"
	"github.com/rzbill/sharedq/internal/wire"
	logpkg "github.com/rzbill/sharedq/pkg/log"
)

// PeerController receives raw wire frames from other nodes.
type PeerController struct {
	rt     *runtime.Runtime
	logger logpkg.Logger
}

// NewPeerController creates a new peer controller.
func NewPeerController(rt *runtime.Runtime, logger logpkg.Logger) *PeerController {
	return &PeerController{rt: rt, logger: logger}
}

// RegisterRoutes registers peer routes with the given mux.
func (c *PeerController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/peer/{ns}/events", c.handleEvent)
}

// handleEvent applies one frame. Malformed frames get 400 and change nothing.
// POST /v1/peer/{ns}/events (application/octet-stream, exactly wire.Size bytes)
func (c *PeerController) handleEvent(w http.ResponseWriter, r *http.Request) {
	frame, err := io.ReadAll(io.LimitReader(r.Body, wire.Size+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body")
		return
	}
	rep, err := c.rt.Replicator(r.Context(), r.PathValue("ns"))
	if err != nil {
		writeErr(w, err)
		return
	}
	ev, applied, err := rep.Receive(r.Context(), frame)
	if err != nil {
		if peersync.IsMalformed(err) {
			c.logger.Warn("rejected peer frame",
				logpkg.Str("peer", r.Header.Get(peersync.NodeHeader)), logpkg.Err(err))
		}
		writeErr(w, err)
		return
	}
	writeJSONStatus(w, http.StatusAccepted, peerEventResp{Kind: ev.Kind.String(), UID: ev.UID, Applied: applied})
}
