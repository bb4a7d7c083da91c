package export

import (
	"fmt"

	"github.com/yingtu35/link-integrity-crawler/internal/webscraper"
)

// seedPage labels records that have no referring page, such as a failed seed.
const seedPage = "(seed)"

type Exporter interface {
	// Export writes the report to filename plus the exporter's extension
	Export(report []webscraper.BrokenLink, filename string) error
}

// NewExporter returns the exporter for a file format.
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "csv":
		return NewCSVExporter(), nil
	case "json":
		return NewJsonExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// Page groups the broken links found on one page.
type Page struct {
	URL       string
	DeadLinks []webscraper.BrokenLink
}

// GroupByPage groups the report by referring page, keeping the order in which pages first appear.
func GroupByPage(report []webscraper.BrokenLink) []Page {
	index := make(map[string]int)
	var pages []Page
	for _, b := range report {
		page := b.Referrer
		if page == "" {
			page = seedPage
		}
		i, ok := index[page]
		if !ok {
			i = len(pages)
			index[page] = i
			pages = append(pages, Page{URL: page})
		}
		pages[i].DeadLinks = append(pages[i].DeadLinks, b)
	}
	return pages
}
