package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVExporter implements CSV export
type CSVExporter struct{}

// NewCSVExporter creates a new CSV exporter
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Export writes the header row, data rows and the optional totals row
func (e *CSVExporter) Export(data *ExportData, writer io.Writer) error {
	w := csv.NewWriter(writer)

	if err := w.Write(data.Headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range data.Rows {
		if err := w.Write(toRecord(row)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	if len(data.Totals) > 0 {
		if err := w.Write(toRecord(data.Totals)); err != nil {
			return fmt.Errorf("failed to write CSV totals: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

// GetContentType returns the MIME type for CSV files
func (e *CSVExporter) GetContentType() string {
	return "text/csv; charset=utf-8"
}

// GetFileExtension returns the file extension for CSV files
func (e *CSVExporter) GetFileExtension() string {
	return ".csv"
}

func toRecord(row []interface{}) []string {
	record := make([]string, len(row))
	for i, v := range row {
		record[i] = formatCell(v)
	}
	return record
}
