package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/yingtu35/link-integrity-crawler/internal/webscraper"
)

type Record struct {
	Page      string     `json:"Page"`
	Counts    int        `json:"Counts"`
	DeadLinks []DeadLink `json:"Dead Links"`
}

type DeadLink struct {
	URL    string `json:"URL"`
	Kind   string `json:"Kind"`
	Reason string `json:"Reason"`
}

type JsonExporter struct{}

func NewJsonExporter() Exporter {
	return &JsonExporter{}
}

func (e *JsonExporter) Export(report []webscraper.BrokenLink, filename string) error {
	file, err := os.Create(filename + ".json")
	if err != nil {
		return fmt.Errorf("create %s.json: %w", filename, err)
	}
	defer file.Close()

	if err := e.write(report, file); err != nil {
		return err
	}
	return file.Close()
}

func (e *JsonExporter) write(report []webscraper.BrokenLink, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(e.transformData(report)); err != nil {
		return fmt.Errorf("export json: %w", err)
	}
	return nil
}

func (e *JsonExporter) transformData(report []webscraper.BrokenLink) []Record {
	result := []Record{}
	for _, page := range GroupByPage(report) {
		record := Record{Page: page.URL, Counts: len(page.DeadLinks)}
		for _, b := range page.DeadLinks {
			record.DeadLinks = append(record.DeadLinks, DeadLink{
				URL:    b.URL,
				Kind:   string(b.Kind),
				Reason: b.Reason(),
			})
		}
		result = append(result, record)
	}
	return result
}
