package client

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rzbill/sharedq/internal/wire"
)

// NewWireCommand constructs the `wire` command group for inspecting peer
// frames offline.
func NewWireCommand() *cobra.Command {
	wireCmd := &cobra.Command{Use: "wire", Short: "Encode and decode peer frames"}

	encodeCmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode an add/remove event as a hex frame",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, _ := cmd.Flags().GetString("kind")
			uid, _ := cmd.Flags().GetString("uid")
			ts, _ := cmd.Flags().GetString("timestamp")
			number, _ := cmd.Flags().GetInt("number")

			ev := wire.Event{UID: uid, Timestamp: ts, Number: number}
			switch kind {
			case "add":
				ev.Kind = wire.KindAdd
			case "remove":
				ev.Kind = wire.KindRemove
			default:
				return fmt.Errorf("invalid --kind %q; use add|remove", kind)
			}
			item, tr, err := wire.Encode(ev)
			if err != nil {
				return err
			}
			if tr.Any() {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "warning:", tr.Err())
			}
			b, err := item.MarshalBinary()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(b))
			return nil
		},
	}
	encodeCmd.Flags().String("kind", "add", "Event kind: add|remove")
	encodeCmd.Flags().String("uid", "", "Identity")
	encodeCmd.Flags().String("timestamp", "", "Capture time")
	encodeCmd.Flags().Int("number", 0, "Permanent number")
	_ = encodeCmd.MarkFlagRequired("uid")

	decodeCmd := &cobra.Command{
		Use:   "decode HEX",
		Short: "Decode and validate a hex frame",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := hex.DecodeString(strings.Join(strings.Fields(args[0]), ""))
			if err != nil {
				return fmt.Errorf("invalid hex: %w", err)
			}
			ev, err := wire.Decode(b)
			if err != nil {
				return err
			}
			return writeJSON(cmd, map[string]any{
				"kind":      ev.Kind.String(),
				"uid":       ev.UID,
				"timestamp": ev.Timestamp,
				"number":    ev.Number,
			})
		},
	}

	wireCmd.AddCommand(encodeCmd, decodeCmd)
	return wireCmd
}
