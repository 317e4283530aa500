package codec

import (
	"fmt"
	"io"
	"text/tabwriter"

	"reachgraph/internal/domain"
)

// TableCodec writes a plain-text table, one row per node
type TableCodec struct{}

// NewTableCodec creates a new table codec
func NewTableCodec() *TableCodec {
	return &TableCodec{}
}

// Format returns the codec format identifier
func (c *TableCodec) Format() string {
	return "table"
}

// Export writes index, label, position and status for every node
func (c *TableCodec) Export(snap domain.Snapshot, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tADDRESS\tX\tY\tSTATUS")
	for i, pos := range snap.Positions {
		label := snap.Labels[i]
		status := snap.Colors[i].String()
		if i == domain.HubIndex {
			label = "(hub)"
			status = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.2f\t%s\n", i, label, pos.X, pos.Y, status)
	}
	return tw.Flush()
}
