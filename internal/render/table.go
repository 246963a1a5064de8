package render

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// WriteTable writes state as a terminal table. Placeholder states print
// their message instead of an empty table.
func WriteTable(w io.Writer, state State) error {
	if len(state.Rows) == 0 {
		_, err := fmt.Fprintln(w, state.Message)
		return err
	}

	data := make([][]string, 0, len(state.Rows))
	for _, row := range state.Rows {
		data = append(data, []string{row.Name, row.Size, row.Modified})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Size", "Modified"})
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT})
	table.AppendBulk(data)
	table.Render()
	return nil
}
