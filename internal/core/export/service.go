package export

import (
	"bytes"
	"fmt"
	"time"
)

// Result is a rendered export ready to be sent to the client
type Result struct {
	Content     []byte
	ContentType string
	Filename    string
}

// Service provides high-level export functionality
type Service struct {
	exporters map[ExportFormat]Exporter
	invoices  *InvoiceRenderer
}

// NewService creates a new export service; issuer is printed on invoices
func NewService(issuer string) *Service {
	return &Service{
		exporters: map[ExportFormat]Exporter{
			FormatCSV:   NewCSVExporter(),
			FormatExcel: NewExcelExporter(),
			FormatPDF:   NewPDFExporter(),
		},
		invoices: NewInvoiceRenderer(issuer),
	}
}

// Export renders data in the given format. The filename is
// <baseName>_<YYYY-MM-DD><ext> using the date of at.
func (s *Service) Export(data *ExportData, format ExportFormat, baseName string, at time.Time) (*Result, error) {
	exporter, ok := s.exporters[format]
	if !ok {
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}

	var buf bytes.Buffer
	if err := exporter.Export(data, &buf); err != nil {
		return nil, fmt.Errorf("%s export failed: %w", format, err)
	}

	return &Result{
		Content:     buf.Bytes(),
		ContentType: exporter.GetContentType(),
		Filename:    fmt.Sprintf("%s_%s%s", baseName, at.Format("2006-01-02"), exporter.GetFileExtension()),
	}, nil
}

// Invoice renders an order invoice as PDF
func (s *Service) Invoice(inv *Invoice) (*Result, error) {
	var buf bytes.Buffer
	if err := s.invoices.Render(inv, &buf); err != nil {
		return nil, fmt.Errorf("invoice export failed: %w", err)
	}
	return &Result{
		Content:     buf.Bytes(),
		ContentType: "application/pdf",
		Filename:    fmt.Sprintf("invoice_%s.pdf", inv.Number),
	}, nil
}
