package peersync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rzbill/sharedq/internal/wire"
)

// NodeHeader carries the sending node's id on peer requests.
const NodeHeader = "X-Sharedq-Node"

// Link delivers an encoded frame for namespace to the other nodes. Delivery is
// best effort; there is no retry and no deduplication.
type Link interface {
	Broadcast(ctx context.Context, namespace string, frame []byte) error
}

// HTTPLinkOptions configures an HTTPLink.
type HTTPLinkOptions struct {
	Peers   []string // base URLs, e.g. http://10.0.0.7:8080
	NodeID  string
	Timeout time.Duration
	Client  *http.Client
}

// HTTPLink posts frames to every peer's /v1/peer/{ns}/events endpoint.
type HTTPLink struct {
	peers  []string
	nodeID string
	client *http.Client
}

// NewHTTPLink returns a link to the given peers.
func NewHTTPLink(opts HTTPLinkOptions) *HTTPLink {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	peers := make([]string, 0, len(opts.Peers))
	for _, p := range opts.Peers {
		if p = strings.TrimRight(strings.TrimSpace(p), "/"); p != "" {
			peers = append(peers, p)
		}
	}
	return &HTTPLink{peers: peers, nodeID: opts.NodeID, client: client}
}

// Peers returns the configured peer base URLs.
func (l *HTTPLink) Peers() []string { return append([]string(nil), l.peers...) }

// Broadcast posts frame to all peers concurrently and joins their errors.
func (l *HTTPLink) Broadcast(ctx context.Context, namespace string, frame []byte) error {
	if len(frame) != wire.Size {
		return fmt.Errorf("peersync: frame is %d bytes, want %d", len(frame), wire.Size)
	}
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, peer := range l.peers {
		wg.Add(1)
		go func(peer string) {
			defer wg.Done()
			if err := l.post(ctx, peer, namespace, frame); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(peer)
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (l *HTTPLink) post(ctx context.Context, peer, namespace string, frame []byte) error {
	endpoint := peer + "/v1/peer/" + url.PathEscape(namespace) + "/events"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(frame))
	if err != nil {
		return fmt.Errorf("peer %s: %w", peer, err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if l.nodeID != "" {
		req.Header.Set(NodeHeader, l.nodeID)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("peer %s: %w", peer, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("peer %s: %s: %s", peer, resp.Status, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
