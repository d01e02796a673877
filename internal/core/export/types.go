package export

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ExportFormat represents the export file format
type ExportFormat string

const (
	FormatPDF   ExportFormat = "pdf"
	FormatExcel ExportFormat = "excel"
	FormatCSV   ExportFormat = "csv"
)

// ParseFormat accepts csv, excel (or xlsx) and pdf, case-insensitively
func ParseFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", s)
	}
}

// Exporter is the interface for all export formats
type Exporter interface {
	Export(data *ExportData, writer io.Writer) error
	GetContentType() string
	GetFileExtension() string
}

// ExportData represents the data to be exported. Cells may be strings,
// numbers or decimal.Decimal amounts.
type ExportData struct {
	Title       string
	Description string
	CreatedAt   time.Time

	// Table data
	Headers []string
	Rows    [][]interface{}
	Totals  []interface{} // Optional footer row

	// Styling options
	Style ExportStyle
}

// ExportStyle defines styling options for exports
type ExportStyle struct {
	// PDF specific
	Orientation string // "portrait" or "landscape"
	PageSize    string // "A4", "Letter", etc.

	// Common styling
	HeaderBold    bool
	HeaderBgColor string // Hex color
	AlternateRows bool
	RowBgColor1   string // Hex color for odd rows
	RowBgColor2   string // Hex color for even rows

	// Font settings
	FontFamily string
	FontSize   float64

	// Excel specific
	FreezeHeader bool
	AutoFilter   bool
	ColumnWidths map[int]float64 // Column index -> width
}

// DefaultStyle returns default export styling
func DefaultStyle() ExportStyle {
	return ExportStyle{
		Orientation:   "portrait",
		PageSize:      "A4",
		HeaderBold:    true,
		HeaderBgColor: "#1F3A5F",
		AlternateRows: true,
		RowBgColor1:   "#FFFFFF",
		RowBgColor2:   "#F2F2F2",
		FontFamily:    "Arial",
		FontSize:      9,
		FreezeHeader:  true,
		AutoFilter:    true,
		ColumnWidths:  make(map[int]float64),
	}
}
