// Package transports provides pluggable transport implementations for the CLI.
package transports

import (
	"context"

	"github.com/rzbill/sharedq/internal/entrystore"
	"github.com/rzbill/sharedq/internal/namespace"
)

// Listing is one page of queue entries as returned by List.
type Listing struct {
	Namespace string             `json:"namespace"`
	Counter   int                `json:"counter"`
	Total     int                `json:"total"`
	Entries   []entrystore.Entry `json:"entries"`
}

// QueueTransport abstracts how the CLI reaches a node.
type QueueTransport interface {
	Health(ctx context.Context) (nodeID string, err error)
	ListNamespaces(ctx context.Context) ([]namespace.Meta, error)
	CreateNamespace(ctx context.Context, ns string) (namespace.Meta, error)
	List(ctx context.Context, ns, filter string) (Listing, error)
	Add(ctx context.Context, ns string, e entrystore.Entry) (added bool, err error)
	Remove(ctx context.Context, ns, uid string) (removed bool, err error)
	Assign(ctx context.Context, ns, uid string) (int, error)
	Front(ctx context.Context, ns string) (entrystore.Entry, bool, error)
	Pop(ctx context.Context, ns string) (entrystore.Entry, bool, error)
	Print(ctx context.Context, ns string) (string, error)
	Reset(ctx context.Context, ns string) error
}
