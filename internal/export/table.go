package export

import (
	"io"

	"github.com/rodaine/table"
	"github.com/yingtu35/link-integrity-crawler/internal/webscraper"
)

// PrintTable writes the report as a table grouped by page.
func PrintTable(w io.Writer, report []webscraper.BrokenLink) {
	if len(report) == 0 {
		io.WriteString(w, "No dead links found\n")
		return
	}

	tbl := table.New("Page", "Counts", "Dead Links", "Reason").WithWriter(w)
	for _, page := range GroupByPage(report) {
		for i, deadLink := range page.DeadLinks {
			if i == 0 {
				tbl.AddRow(page.URL, len(page.DeadLinks), deadLink.URL, deadLink.Reason())
			} else {
				tbl.AddRow("", "", deadLink.URL, deadLink.Reason())
			}
		}
	}
	tbl.Print()
}
