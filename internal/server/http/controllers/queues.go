package controllers

import (
	"net/http"
	"strings"

	"github.com/rzbill/sharedq/internal/filter"
	"github.com/rzbill/sharedq/internal/peersync"
	"github.com/rzbill/sharedq/internal/runtime"
	"github.com/rzbill/sharedq/internal/sharedqueue"
	"github.com/rzbill/sharedq/internal/wire"
	logpkg "github.com/rzbill/sharedq/pkg/log"
)

// QueuesController exposes one namespace's queue over HTTP. Adds, removes
// and assignments go through the namespace's replicator so peers hear about
// them; pop and reset stay local to this node.
type QueuesController struct {
	rt     *runtime.Runtime
	logger logpkg.Logger
}

// NewQueuesController creates a new queues controller.
func NewQueuesController(rt *runtime.Runtime, logger logpkg.Logger) *QueuesController {
	return &QueuesController{rt: rt, logger: logger}
}

// RegisterRoutes registers queue routes with the given mux.
func (c *QueuesController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/queues/{ns}/entries", c.handleList)
	mux.HandleFunc("POST /v1/queues/{ns}/entries", c.handleAdd)
	mux.HandleFunc("DELETE /v1/queues/{ns}/entries/{uid}", c.handleRemove)
	mux.HandleFunc("POST /v1/queues/{ns}/assign", c.handleAssign)
	mux.HandleFunc("GET /v1/queues/{ns}/front", c.handleFront)
	mux.HandleFunc("POST /v1/queues/{ns}/pop", c.handlePop)
	mux.HandleFunc("GET /v1/queues/{ns}/print", c.handlePrint)
	mux.HandleFunc("POST /v1/queues/{ns}/reset", c.handleReset)
}

func (c *QueuesController) replicator(w http.ResponseWriter, r *http.Request) (*peersync.Replicator, bool) {
	rep, err := c.rt.Replicator(r.Context(), r.PathValue("ns"))
	if err != nil {
		writeErr(w, err)
		return nil, false
	}
	return rep, true
}

// handleList returns the entries in queue order.
// GET /v1/queues/{ns}/entries?filter=<cel>
func (c *QueuesController) handleList(w http.ResponseWriter, r *http.Request) {
	f, err := filter.Compile(r.URL.Query().Get("filter"))
	if err != nil {
		writeErr(w, err)
		return
	}
	rep, ok := c.replicator(w, r)
	if !ok {
		return
	}
	q := rep.Queue()
	st := q.State()
	writeJSON(w, entriesResp{
		Namespace: q.Namespace(),
		Counter:   st.Counter,
		Total:     len(st.Entries),
		Entries:   f.Apply(st.Entries),
	})
}

// handleAdd adds an entry if its uid is new and tells the peers.
// POST /v1/queues/{ns}/entries
func (c *QueuesController) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req addReq
	if err := decodeBody(w, r, &req); err != nil || strings.TrimSpace(req.UID) == "" {
		writeError(w, http.StatusBadRequest, "uid is required")
		return
	}
	if err := sharedqueue.CheckNumber(req.Number); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rep, ok := c.replicator(w, r)
	if !ok {
		return
	}
	added, err := rep.Publish(r.Context(), wire.Event{Kind: wire.KindAdd, UID: req.UID, Timestamp: req.Timestamp, Number: req.Number})
	if err != nil {
		writeErr(w, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSONStatus(w, status, map[string]bool{"added": added})
}

// handleRemove removes uid and tells the peers. Removing an absent uid
// succeeds with removed=false.
// DELETE /v1/queues/{ns}/entries/{uid}
func (c *QueuesController) handleRemove(w http.ResponseWriter, r *http.Request) {
	rep, ok := c.replicator(w, r)
	if !ok {
		return
	}
	removed, err := rep.Publish(r.Context(), wire.Event{Kind: wire.KindRemove, UID: r.PathValue("uid")})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]bool{"removed": removed})
}

// handleAssign gets or assigns the permanent number for a uid.
// POST /v1/queues/{ns}/assign
func (c *QueuesController) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req assignReq
	if err := decodeBody(w, r, &req); err != nil || strings.TrimSpace(req.UID) == "" {
		writeError(w, http.StatusBadRequest, "uid is required")
		return
	}
	rep, ok := c.replicator(w, r)
	if !ok {
		return
	}
	n, err := rep.Observe(r.Context(), req.UID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, assignResp{UID: req.UID, Number: n})
}

// handleFront returns the head entry, 404 when empty.
// GET /v1/queues/{ns}/front
func (c *QueuesController) handleFront(w http.ResponseWriter, r *http.Request) {
	rep, ok := c.replicator(w, r)
	if !ok {
		return
	}
	e, ok := rep.Queue().Front()
	if !ok {
		writeError(w, http.StatusNotFound, "queue is empty")
		return
	}
	writeJSON(w, e)
}

// handlePop removes and returns the head entry, 404 when empty.
// POST /v1/queues/{ns}/pop
func (c *QueuesController) handlePop(w http.ResponseWriter, r *http.Request) {
	rep, ok := c.replicator(w, r)
	if !ok {
		return
	}
	e, ok, err := rep.Queue().Pop(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "queue is empty")
		return
	}
	writeJSON(w, e)
}

// handlePrint writes the diagnostic table as plain text.
// GET /v1/queues/{ns}/print
func (c *QueuesController) handlePrint(w http.ResponseWriter, r *http.Request) {
	rep, ok := c.replicator(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := rep.Queue().Print(w); err != nil {
		c.logger.Warn("print failed", logpkg.Err(err))
	}
}

// handleReset drops the namespace's entries; the counter is kept.
// POST /v1/queues/{ns}/reset
func (c *QueuesController) handleReset(w http.ResponseWriter, r *http.Request) {
	rep, ok := c.replicator(w, r)
	if !ok {
		return
	}
	if err := rep.Queue().Reset(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	c.logger.Info("queue reset over http", logpkg.Namespace(rep.Queue().Namespace()))
	writeNoContent(w)
}
