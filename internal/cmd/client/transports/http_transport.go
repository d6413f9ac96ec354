package transports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rzbill/sharedq/internal/entrystore"
	"github.com/rzbill/sharedq/internal/namespace"
)

// HTTPTransport implements QueueTransport against a node's REST API.
type HTTPTransport struct {
	baseURL func() string
	client  *http.Client
}

// NewHTTPTransport constructs an HTTPTransport. baseURL is resolved per call
// so flags parsed after construction still apply.
func NewHTTPTransport(baseURL func() string) *HTTPTransport {
	return &HTTPTransport{baseURL: baseURL, client: &http.Client{Timeout: 10 * time.Second}}
}

// apiError is a non-2xx reply.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (t *HTTPTransport) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(t.baseURL(), "/")+path, rd)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode/100 != 2 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		return resp.StatusCode, &apiError{Status: resp.StatusCode, Message: e.Error}
	}
	if out != nil && len(raw) > 0 {
		if s, ok := out.(*string); ok {
			*s = string(raw)
			return resp.StatusCode, nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func queuePath(ns, suffix string) string {
	return "/v1/queues/" + url.PathEscape(ns) + suffix
}

// Health returns the node id of a healthy node.
func (t *HTTPTransport) Health(ctx context.Context) (string, error) {
	var out struct {
		NodeID string `json:"node_id"`
	}
	_, err := t.do(ctx, http.MethodGet, "/v1/healthz", nil, &out)
	return out.NodeID, err
}

// ListNamespaces lists the node's namespaces.
func (t *HTTPTransport) ListNamespaces(ctx context.Context) ([]namespace.Meta, error) {
	var out struct {
		Namespaces []namespace.Meta `json:"namespaces"`
	}
	_, err := t.do(ctx, http.MethodGet, "/v1/namespaces", nil, &out)
	return out.Namespaces, err
}

// CreateNamespace creates ns if absent.
func (t *HTTPTransport) CreateNamespace(ctx context.Context, ns string) (namespace.Meta, error) {
	var out namespace.Meta
	_, err := t.do(ctx, http.MethodPost, "/v1/namespaces", map[string]string{"namespace": ns}, &out)
	return out, err
}

// List returns the entries of ns, optionally filtered by a CEL expression.
func (t *HTTPTransport) List(ctx context.Context, ns, filter string) (Listing, error) {
	path := queuePath(ns, "/entries")
	if filter != "" {
		path += "?filter=" + url.QueryEscape(filter)
	}
	var out Listing
	_, err := t.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Add adds e unless its uid is present.
func (t *HTTPTransport) Add(ctx context.Context, ns string, e entrystore.Entry) (bool, error) {
	var out struct {
		Added bool `json:"added"`
	}
	_, err := t.do(ctx, http.MethodPost, queuePath(ns, "/entries"), e, &out)
	return out.Added, err
}

// Remove removes uid.
func (t *HTTPTransport) Remove(ctx context.Context, ns, uid string) (bool, error) {
	var out struct {
		Removed bool `json:"removed"`
	}
	_, err := t.do(ctx, http.MethodDelete, queuePath(ns, "/entries/"+url.PathEscape(uid)), nil, &out)
	return out.Removed, err
}

// Assign gets or assigns uid's permanent number.
func (t *HTTPTransport) Assign(ctx context.Context, ns, uid string) (int, error) {
	var out struct {
		Number int `json:"number"`
	}
	_, err := t.do(ctx, http.MethodPost, queuePath(ns, "/assign"), map[string]string{"uid": uid}, &out)
	return out.Number, err
}

// Front returns the head entry; ok is false on an empty queue.
func (t *HTTPTransport) Front(ctx context.Context, ns string) (entrystore.Entry, bool, error) {
	return t.head(ctx, http.MethodGet, queuePath(ns, "/front"))
}

// Pop removes and returns the head entry; ok is false on an empty queue.
func (t *HTTPTransport) Pop(ctx context.Context, ns string) (entrystore.Entry, bool, error) {
	return t.head(ctx, http.MethodPost, queuePath(ns, "/pop"))
}

func (t *HTTPTransport) head(ctx context.Context, method, path string) (entrystore.Entry, bool, error) {
	var e entrystore.Entry
	status, err := t.do(ctx, method, path, nil, &e)
	if status == http.StatusNotFound {
		return entrystore.Entry{}, false, nil
	}
	if err != nil {
		return entrystore.Entry{}, false, err
	}
	return e, true, nil
}

// Print returns the server-rendered diagnostic table.
func (t *HTTPTransport) Print(ctx context.Context, ns string) (string, error) {
	var out string
	_, err := t.do(ctx, http.MethodGet, queuePath(ns, "/print"), nil, &out)
	return out, err
}

// Reset clears ns.
func (t *HTTPTransport) Reset(ctx context.Context, ns string) error {
	_, err := t.do(ctx, http.MethodPost, queuePath(ns, "/reset"), nil, nil)
	return err
}
