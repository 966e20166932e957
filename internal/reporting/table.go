// internal/reporting/table.go
package reporting

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/xkilldash9x/rlfscan/internal/engine"
	"github.com/xkilldash9x/rlfscan/internal/failures"
)

// RenderTable prints the failures of res as a table followed by a per-kind
// footer.
func RenderTable(w io.Writer, res *engine.Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"FID", "Type", "Range", "XPath1", "XPath2"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
	})

	for _, f := range res.Failures {
		table.Append([]string{fmt.Sprintf("%d", f.ID), f.Kind.String(), f.Range.String(), f.XPath1, f.XPath2})
	}

	counts := res.Counts()
	summary := ""
	for _, kind := range failures.Kinds {
		if n := counts[kind]; n > 0 {
			if summary != "" {
				summary += " "
			}
			summary += fmt.Sprintf("%s=%d", kind, n)
		}
	}
	table.SetFooter([]string{"", fmt.Sprintf("Total %d", len(res.Failures)), summary, "", ""})
	table.Render()
}
