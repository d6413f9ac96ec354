package sharedqueue

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rzbill/sharedq/internal/entrystore"
)

// PrintOptions controls Print's rendering.
type PrintOptions struct {
	Style *table.Style
}

// Print writes a table of the current entries to w. It is a diagnostic
// dump and has no side effects.
func (q *Queue) Print(w io.Writer) error {
	return q.PrintWith(w, PrintOptions{})
}

// PrintWith is Print with an explicit table style.
func (q *Queue) PrintWith(w io.Writer, opts PrintOptions) error {
	st := q.State()
	_, err := fmt.Fprintln(w, RenderTable(q.Namespace(), st.Counter, st.Entries, opts))
	return err
}

// RenderTable renders entries as a table titled with the namespace and
// footed with the counter. Unassigned numbers show as "-".
func RenderTable(namespace string, counter int, entries []entrystore.Entry, opts PrintOptions) string {
	tw := table.NewWriter()
	if opts.Style != nil {
		tw.SetStyle(*opts.Style)
	} else {
		tw.SetStyle(table.StyleLight)
	}
	tw.SetTitle("queue %s", namespace)
	tw.AppendHeader(table.Row{"#", "UID", "Timestamp", "Number"})
	for i, e := range entries {
		num := "-"
		if e.Assigned() {
			num = strconv.Itoa(e.Number)
		}
		tw.AppendRow(table.Row{i + 1, e.UID, e.Timestamp, num})
	}
	tw.AppendFooter(table.Row{"", "", "next", counter})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	return tw.Render()
}
