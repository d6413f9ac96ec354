package client

import (
	"github.com/spf13/cobra"

	transports "github.com/rzbill/sharedq/internal/cmd/client/transports"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// NewRoot constructs a root Cobra command for the sharedq client.
// It registers the queue, namespace and wire command groups.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "sharedq",
		Short: "sharedq client commands",
	}
	t := transports.NewHTTPTransport(baseURL)
	root.AddCommand(NewQueueCommand(t))
	root.AddCommand(NewNamespaceCommand(t))
	root.AddCommand(NewWireCommand())
	return root
}
