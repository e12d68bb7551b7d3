package console

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// RenderTable writes rows under headers as a text table. On a terminal the
// table is kept within the terminal width; elsewhere it is not limited.
func RenderTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
		cfg.MaxWidth = Width(w, 0)
	})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
