package export

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/yingtu35/link-integrity-crawler/internal/webscraper"
)

type DeadLinkRow struct {
	Page      string `csv:"Page,omitempty"`
	Counts    string `csv:"Counts,omitempty"`
	DeadLinks string `csv:"Dead Links"`
	Reason    string `csv:"Reason"`
}

type CSVExporter struct{}

func NewCSVExporter() Exporter {
	return &CSVExporter{}
}

func (e *CSVExporter) Export(report []webscraper.BrokenLink, filename string) error {
	file, err := os.Create(filename + ".csv")
	if err != nil {
		return fmt.Errorf("create %s.csv: %w", filename, err)
	}
	defer file.Close()

	if err := e.write(report, file); err != nil {
		return err
	}
	return file.Close()
}

func (e *CSVExporter) write(report []webscraper.BrokenLink, w io.Writer) error {
	rows := e.transformData(report)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	return nil
}

func (e *CSVExporter) transformData(report []webscraper.BrokenLink) []DeadLinkRow {
	rows := []DeadLinkRow{}
	for _, page := range GroupByPage(report) {
		for i, deadLink := range page.DeadLinks {
			row := DeadLinkRow{DeadLinks: deadLink.URL, Reason: deadLink.Reason()}
			if i == 0 {
				row.Page = page.URL
				row.Counts = strconv.Itoa(len(page.DeadLinks))
			}
			rows = append(rows, row)
		}
	}
	return rows
}
