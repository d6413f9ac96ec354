package client

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	transports "github.com/rzbill/sharedq/internal/cmd/client/transports"
)

// NewNamespaceCommand constructs the `namespace` command group.
func NewNamespaceCommand(t transports.QueueTransport) *cobra.Command {
	nsCmd := &cobra.Command{Use: "namespace", Aliases: []string{"ns"}, Short: "Namespace operations"}
	nsCmd.PersistentFlags().Bool("json", false, "Print JSON instead of text")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List namespaces",
		RunE: func(cmd *cobra.Command, _ []string) error {
			metas, err := t.ListNamespaces(cmd.Context())
			if err != nil {
				return err
			}
			if jsonFlag(cmd) {
				return writeJSON(cmd, metas)
			}
			out := cmd.OutOrStdout()
			tw := table.NewWriter()
			tw.SetStyle(tableStyle(out))
			tw.AppendHeader(table.Row{"Namespace", "Created", "Start"})
			for _, m := range metas {
				created := time.UnixMilli(m.CreatedAtMs).UTC().Format(time.RFC3339)
				tw.AppendRow(table.Row{m.Name, created, m.StartNumber})
			}
			_, _ = fmt.Fprintln(out, tw.Render())
			return nil
		},
	}

	createCmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := t.CreateNamespace(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonFlag(cmd) {
				return writeJSON(cmd, m)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "status:", "OK")
			return nil
		},
	}

	nsCmd.AddCommand(listCmd, createCmd)
	return nsCmd
}
