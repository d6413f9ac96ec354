package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	cfgpkg "github.com/rzbill/sharedq/internal/config"
	"github.com/rzbill/sharedq/internal/peersync"
	"github.com/rzbill/sharedq/internal/runtime"
	"github.com/rzbill/sharedq/internal/storage/memstore"
	"github.com/rzbill/sharedq/internal/wire"
	logpkg "github.com/rzbill/sharedq/pkg/log"
)

func newTestServer(t *testing.T, link peersync.Link) (*Server, *runtime.Runtime) {
	t.Helper()
	rt, err := runtime.NewWithKV(memstore.New(), cfgpkg.Default(), nil, link)
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	logger, _ := logpkg.ApplyConfig(&logpkg.Config{Level: "error", Format: "text"})
	return New(rt, logger), rt
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthHandler(t *testing.T) {
	s, rt := newTestServer(t, nil)
	w := do(t, s, http.MethodGet, "/v1/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), rt.NodeID()) {
		t.Fatalf("expected node id in %s", w.Body.String())
	}
}

func TestAssignAndList(t *testing.T) {
	s, _ := newTestServer(t, nil)

	for i, uid := range []string{"A1", "B2", "A1"} {
		w := do(t, s, http.MethodPost, "/v1/queues/queue/assign", `{"uid":"`+uid+`"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("assign %d: status %d: %s", i, w.Code, w.Body.String())
		}
	}
	w := do(t, s, http.MethodGet, "/v1/queues/queue/entries?filter="+`number%20%3E%201`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Counter int `json:"counter"`
		Total   int `json:"total"`
		Entries []struct {
			UID    string `json:"uid"`
			Number int    `json:"number"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Counter != 3 || resp.Total != 2 || len(resp.Entries) != 1 || resp.Entries[0].UID != "B2" {
		t.Fatalf("unexpected list: %+v", resp)
	}
}

func TestAddRemoveFrontPop(t *testing.T) {
	s, _ := newTestServer(t, nil)

	if w := do(t, s, http.MethodPost, "/v1/queues/lobby/entries", `{"uid":"X","number":5}`); w.Code != http.StatusCreated {
		t.Fatalf("add: %d", w.Code)
	}
	if w := do(t, s, http.MethodPost, "/v1/queues/lobby/entries", `{"uid":"X"}`); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"added":false`) {
		t.Fatalf("duplicate add: %d %s", w.Code, w.Body.String())
	}
	if w := do(t, s, http.MethodPost, "/v1/queues/lobby/entries", `{"number":5}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing uid: %d", w.Code)
	}
	if w := do(t, s, http.MethodGet, "/v1/queues/lobby/front", ""); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"uid":"X"`) {
		t.Fatalf("front: %d %s", w.Code, w.Body.String())
	}
	if w := do(t, s, http.MethodDelete, "/v1/queues/lobby/entries/nope", ""); !strings.Contains(w.Body.String(), `"removed":false`) {
		t.Fatalf("remove absent: %s", w.Body.String())
	}
	if w := do(t, s, http.MethodPost, "/v1/queues/lobby/pop", ""); w.Code != http.StatusOK {
		t.Fatalf("pop: %d", w.Code)
	}
	if w := do(t, s, http.MethodPost, "/v1/queues/lobby/pop", ""); w.Code != http.StatusNotFound {
		t.Fatalf("pop empty: %d", w.Code)
	}
}

func TestInvalidNamespaceAndFilter(t *testing.T) {
	s, _ := newTestServer(t, nil)
	if w := do(t, s, http.MethodGet, "/v1/queues/NOT_VALID/entries", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad namespace: %d", w.Code)
	}
	if w := do(t, s, http.MethodGet, "/v1/queues/queue/entries?filter=uid%20%3D%3D", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad filter: %d", w.Code)
	}
}

func TestPrintAndReset(t *testing.T) {
	s, _ := newTestServer(t, nil)
	do(t, s, http.MethodPost, "/v1/queues/queue/assign", `{"uid":"A1"}`)

	w := do(t, s, http.MethodGet, "/v1/queues/queue/print", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "A1") {
		t.Fatalf("print: %d %s", w.Code, w.Body.String())
	}
	if w := do(t, s, http.MethodPost, "/v1/queues/queue/reset", ""); w.Code != http.StatusNoContent {
		t.Fatalf("reset: %d", w.Code)
	}
	w = do(t, s, http.MethodGet, "/v1/queues/queue/entries", "")
	if !strings.Contains(w.Body.String(), `"total":0`) {
		t.Fatalf("entries survived reset: %s", w.Body.String())
	}
	w = do(t, s, http.MethodPost, "/v1/queues/queue/assign", `{"uid":"B2"}`)
	if !strings.Contains(w.Body.String(), `"number":2`) {
		t.Fatalf("number reused after reset: %s", w.Body.String())
	}
}

func TestAddRejectsOutOfRangeNumber(t *testing.T) {
	s, rt := newTestServer(t, nil)
	for _, n := range []string{"-1", "2147483647", "9223372036854775807"} {
		w := do(t, s, http.MethodPost, "/v1/queues/queue/entries", `{"uid":"X","number":`+n+`}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("number %s: status %d: %s", n, w.Code, w.Body.String())
		}
	}
	q, _ := rt.OpenQueue(context.Background(), "queue")
	if !q.Empty() || q.Counter() != 1 {
		t.Fatalf("rejected add mutated the queue: %+v", q.State())
	}
}

func TestPeerEventRejectsOutOfRangeNumber(t *testing.T) {
	s, rt := newTestServer(t, nil)
	item, _, _ := wire.Encode(wire.Event{Kind: wire.KindAdd, UID: "A1", Number: math.MaxInt32})
	frame, _ := item.MarshalBinary()

	req := httptest.NewRequest(http.MethodPost, "/v1/peer/queue/events", bytes.NewReader(frame))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", w.Code)
	}
	q, _ := rt.OpenQueue(req.Context(), "queue")
	if !q.Empty() || q.Counter() != 1 {
		t.Fatalf("out-of-range frame mutated the queue: %+v", q.State())
	}
}

func TestPeerEventRejectsMalformed(t *testing.T) {
	s, rt := newTestServer(t, nil)
	item, _, _ := wire.Encode(wire.Event{Kind: wire.KindAdd, UID: "A1"})
	item.RemoveFromQueue = true
	frame, _ := item.MarshalBinary()

	req := httptest.NewRequest(http.MethodPost, "/v1/peer/queue/events", bytes.NewReader(frame))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", w.Code)
	}
	q, _ := rt.OpenQueue(req.Context(), "queue")
	if !q.Empty() {
		t.Fatalf("malformed frame mutated the queue")
	}
}

func TestTwoNodesReplicate(t *testing.T) {
	b, rtB := newTestServer(t, nil)
	peerB := httptest.NewServer(b.Handler())
	defer peerB.Close()

	a, _ := newTestServer(t, peersync.NewHTTPLink(peersync.HTTPLinkOptions{Peers: []string{peerB.URL}, NodeID: "a"}))

	if w := do(t, a, http.MethodPost, "/v1/queues/queue/assign", `{"uid":"A1"}`); w.Code != http.StatusOK {
		t.Fatalf("assign on a: %d", w.Code)
	}
	qB, err := rtB.OpenQueue(t.Context(), "queue")
	if err != nil {
		t.Fatalf("open b: %v", err)
	}
	e, ok := qB.Get("A1")
	if !ok || e.Number != 1 {
		t.Fatalf("b did not receive add: %+v ok=%v", e, ok)
	}
	if qB.Counter() != 2 {
		t.Fatalf("b counter: %d", qB.Counter())
	}

	if w := do(t, a, http.MethodDelete, "/v1/queues/queue/entries/A1", ""); w.Code != http.StatusOK {
		t.Fatalf("remove on a: %d", w.Code)
	}
	if qB.Exists("A1") {
		t.Fatalf("b did not receive remove")
	}
}
