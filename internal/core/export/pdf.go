package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// PDFExporter implements PDF export using gofpdf
type PDFExporter struct{}

// NewPDFExporter creates a new PDF exporter
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Export renders the table with the header repeated on each page
func (p *PDFExporter) Export(data *ExportData, writer io.Writer) error {
	if len(data.Headers) == 0 {
		return fmt.Errorf("no headers provided")
	}

	orientation := "P"
	if data.Style.Orientation == "landscape" {
		orientation = "L"
	}
	pageSize := data.Style.PageSize
	if pageSize == "" {
		pageSize = "A4"
	}
	fontSize := data.Style.FontSize
	if fontSize == 0 {
		fontSize = 9
	}

	// Only core fonts are embedded
	const font = "Arial"

	pdf := gofpdf.New(orientation, "mm", pageSize, "")
	pdf.SetAutoPageBreak(false, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if data.Title != "" {
		pdf.SetFont(font, "B", 16)
		pdf.Cell(0, 10, tr(data.Title))
		pdf.Ln(12)
	}
	if data.Description != "" {
		pdf.SetFont(font, "", fontSize)
		pdf.MultiCell(0, 5, tr(data.Description), "", "", false)
		pdf.Ln(4)
	}
	if !data.CreatedAt.IsZero() {
		pdf.SetFont(font, "I", 8)
		pdf.Cell(0, 5, fmt.Sprintf("Generated: %s", data.CreatedAt.Format("2006-01-02 15:04")))
		pdf.Ln(8)
	}

	pageWidth, pageHeight := pdf.GetPageSize()
	leftMargin, _, rightMargin, bottomMargin := pdf.GetMargins()
	colWidth := (pageWidth - leftMargin - rightMargin) / float64(len(data.Headers))

	drawHeader := func() {
		pdf.SetFont(font, "B", fontSize)
		r, g, b := hexToRGB(data.Style.HeaderBgColor)
		pdf.SetFillColor(r, g, b)
		pdf.SetTextColor(255, 255, 255)
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, tr(header), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont(font, "", fontSize)
	}

	drawRow := func(row []interface{}, fill bool) {
		if pdf.GetY()+6 > pageHeight-bottomMargin {
			pdf.AddPage()
			drawHeader()
		}
		for _, value := range row {
			align := "L"
			if _, ok := value.(decimal.Decimal); ok {
				align = "R"
			}
			pdf.CellFormat(colWidth, 6, tr(truncate(pdf, formatCell(value), colWidth-2)), "1", 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	drawHeader()
	for rowIdx, row := range data.Rows {
		fill := false
		if data.Style.AlternateRows {
			bg := data.Style.RowBgColor1
			if rowIdx%2 == 1 {
				bg = data.Style.RowBgColor2
			}
			r, g, b := hexToRGB(bg)
			pdf.SetFillColor(r, g, b)
			fill = true
		}
		drawRow(row, fill)
	}

	if len(data.Totals) > 0 {
		pdf.SetFont(font, "B", fontSize)
		drawRow(data.Totals, false)
	}

	if err := pdf.Output(writer); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// GetContentType returns the MIME type for PDF files
func (p *PDFExporter) GetContentType() string {
	return "application/pdf"
}

// GetFileExtension returns the file extension for PDF files
func (p *PDFExporter) GetFileExtension() string {
	return ".pdf"
}

// truncate shortens s with an ellipsis so it fits in width
func truncate(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

// hexToRGB converts hex color to RGB values, white when invalid
func hexToRGB(hex string) (int, int, int) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return 255, 255, 255
	}

	var r, g, b int
	fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b)
	return r, g, b
}
