package client

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	transports "github.com/rzbill/sharedq/internal/cmd/client/transports"
	"github.com/rzbill/sharedq/internal/entrystore"
)

// NewQueueCommand constructs the `queue` command group and subcommands.
func NewQueueCommand(t transports.QueueTransport) *cobra.Command {
	queueCmd := &cobra.Command{Use: "queue", Short: "Queue operations"}
	queueCmd.PersistentFlags().StringP("namespace", "n", "queue", "Namespace")
	queueCmd.PersistentFlags().Bool("json", false, "Print JSON instead of text")

	queueCmd.AddCommand(
		newQueueListCommand(t),
		newQueueAddCommand(t),
		newQueueRemoveCommand(t),
		newQueueAssignCommand(t),
		newQueueFrontCommand(t),
		newQueuePopCommand(t),
		newQueuePrintCommand(t),
		newQueueResetCommand(t),
	)
	return queueCmd
}

// newQueueListCommand constructs the `queue list` subcommand.
func newQueueListCommand(t transports.QueueTransport) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List entries in queue order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, _ := cmd.Flags().GetString("filter")
			listing, err := t.List(cmd.Context(), namespaceFlag(cmd), filter)
			if err != nil {
				return err
			}
			if jsonFlag(cmd) {
				return writeJSON(cmd, listing)
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, renderEntries(out, listing.Entries))
			_, _ = fmt.Fprintf(out, "%d of %d entries, next number %d\n", len(listing.Entries), listing.Total, listing.Counter)
			return nil
		},
	}
	listCmd.Flags().String("filter", "", `CEL filter over uid, timestamp, number, position, assigned (e.g. "assigned && number > 10")`)
	return listCmd
}

// newQueueAddCommand constructs the `queue add` subcommand.
func newQueueAddCommand(t transports.QueueTransport) *cobra.Command {
	addCmd := &cobra.Command{
		Use:   "add UID",
		Short: "Add an entry if its uid is not queued yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, _ := cmd.Flags().GetString("timestamp")
			number, _ := cmd.Flags().GetInt("number")
			added, err := t.Add(cmd.Context(), namespaceFlag(cmd), entrystore.Entry{UID: args[0], Timestamp: ts, Number: number})
			if err != nil {
				return err
			}
			if jsonFlag(cmd) {
				return writeJSON(cmd, map[string]bool{"added": added})
			}
			if added {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "added", args[0])
			} else {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), args[0], "already queued")
			}
			return nil
		},
	}
	addCmd.Flags().String("timestamp", "", "Capture time, e.g. 2024-01-01T10:00:00")
	addCmd.Flags().Int("number", 0, "Permanent number (0 leaves it unassigned)")
	return addCmd
}

// newQueueRemoveCommand constructs the `queue remove` subcommand.
func newQueueRemoveCommand(t transports.QueueTransport) *cobra.Command {
	return &cobra.Command{
		Use:     "remove UID",
		Aliases: []string{"rm"},
		Short:   "Remove an entry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := t.Remove(cmd.Context(), namespaceFlag(cmd), args[0])
			if err != nil {
				return err
			}
			if jsonFlag(cmd) {
				return writeJSON(cmd, map[string]bool{"removed": removed})
			}
			if removed {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "removed", args[0])
			} else {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), args[0], "not queued")
			}
			return nil
		},
	}
}

// newQueueAssignCommand constructs the `queue assign` subcommand.
func newQueueAssignCommand(t transports.QueueTransport) *cobra.Command {
	return &cobra.Command{
		Use:   "assign UID",
		Short: "Get or assign the permanent number for a uid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := t.Assign(cmd.Context(), namespaceFlag(cmd), args[0])
			if err != nil {
				return err
			}
			if jsonFlag(cmd) {
				return writeJSON(cmd, map[string]any{"uid": args[0], "number": n})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

// newQueueFrontCommand constructs the `queue front` subcommand.
func newQueueFrontCommand(t transports.QueueTransport) *cobra.Command {
	return &cobra.Command{
		Use:   "front",
		Short: "Show the head of the queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, ok, err := t.Front(cmd.Context(), namespaceFlag(cmd))
			return printHead(cmd, e, ok, err)
		},
	}
}

// newQueuePopCommand constructs the `queue pop` subcommand.
func newQueuePopCommand(t transports.QueueTransport) *cobra.Command {
	return &cobra.Command{
		Use:   "pop",
		Short: "Remove and show the head of the queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, ok, err := t.Pop(cmd.Context(), namespaceFlag(cmd))
			return printHead(cmd, e, ok, err)
		},
	}
}

func printHead(cmd *cobra.Command, e entrystore.Entry, ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("queue is empty")
	}
	if jsonFlag(cmd) {
		return writeJSON(cmd, e)
	}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, renderEntries(out, []entrystore.Entry{e}))
	return nil
}

// newQueuePrintCommand constructs the `queue print` subcommand.
func newQueuePrintCommand(t transports.QueueTransport) *cobra.Command {
	return &cobra.Command{
		Use:   "print",
		Short: "Print the node's diagnostic table for the queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := t.Print(cmd.Context(), namespaceFlag(cmd))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

// newQueueResetCommand constructs the `queue reset` subcommand.
func newQueueResetCommand(t transports.QueueTransport) *cobra.Command {
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every entry, keeping the number counter (requires --confirm)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			confirm, _ := cmd.Flags().GetBool("confirm")
			if !confirm {
				return errors.New("refusing to reset without --confirm")
			}
			if err := t.Reset(cmd.Context(), namespaceFlag(cmd)); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "status:", "OK")
			return nil
		},
	}
	resetCmd.Flags().Bool("confirm", false, "Confirm the reset")
	return resetCmd
}
