package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

// Invoice holds the printable fields of an order invoice. Dates are
// preformatted with the configured date format.
type Invoice struct {
	Number       string
	Date         string
	IssuedAt     string
	CompanyName  string
	CompanyPhone string
	CompanyEmail string
	Address      string
	Status       string
	CardsCount   int
	Subtotal     decimal.Decimal
	TaxRate      decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
	Currency     string

	// QRContent is encoded as a QR code next to the totals when set
	QRContent string
	QRCaption string
}

// InvoiceRenderer draws a single-page A4 invoice with gofpdf
type InvoiceRenderer struct {
	issuer string
}

// NewInvoiceRenderer creates a renderer that prints issuer in the header
func NewInvoiceRenderer(issuer string) *InvoiceRenderer {
	return &InvoiceRenderer{issuer: issuer}
}

// Render writes the invoice PDF
func (r *InvoiceRenderer) Render(inv *Invoice, writer io.Writer) error {
	const font = "Arial"

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Header band
	hr, hg, hb := hexToRGB(DefaultStyle().HeaderBgColor)
	pdf.SetFillColor(hr, hg, hb)
	pdf.Rect(0, 0, 210, 32, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont(font, "B", 20)
	pdf.SetXY(15, 10)
	pdf.Cell(100, 10, "INVOICE")
	pdf.SetFont(font, "", 10)
	pdf.SetXY(120, 10)
	pdf.CellFormat(75, 6, tr(r.issuer), "", 2, "R", false, 0, "")
	pdf.CellFormat(75, 6, "Invoice #"+inv.Number, "", 0, "R", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	// Bill-to and order details
	pdf.SetXY(15, 42)
	pdf.SetFont(font, "B", 11)
	pdf.Cell(90, 6, "Bill to")
	pdf.SetX(120)
	pdf.Cell(75, 6, "Order details")
	pdf.Ln(7)

	pdf.SetFont(font, "", 10)
	left := []string{inv.CompanyName, inv.Address, inv.CompanyPhone, inv.CompanyEmail}
	right := [][2]string{
		{"Order date", inv.Date},
		{"Issued", inv.IssuedAt},
		{"Status", inv.Status},
	}
	y := pdf.GetY()
	for _, line := range left {
		if line == "" {
			continue
		}
		pdf.SetX(15)
		pdf.MultiCell(95, 5, tr(line), "", "L", false)
	}
	pdf.SetY(y)
	for _, kv := range right {
		pdf.SetX(120)
		pdf.CellFormat(30, 5, kv[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(45, 5, tr(kv[1]), "", 1, "R", false, 0, "")
	}

	// Line items
	pdf.SetY(85)
	pdf.SetFillColor(hr, hg, hb)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont(font, "B", 10)
	pdf.CellFormat(100, 8, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 8, "Cards", "1", 0, "C", true, 0, "")
	pdf.CellFormat(50, 8, "Amount", "1", 1, "R", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont(font, "", 10)
	pdf.CellFormat(100, 8, "Prepaid cards", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, fmt.Sprintf("%d", inv.CardsCount), "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 8, r.money(inv, inv.Subtotal), "1", 1, "R", false, 0, "")

	// Totals
	pdf.Ln(4)
	totals := [][2]string{
		{"Subtotal", r.money(inv, inv.Subtotal)},
		{fmt.Sprintf("Tax (%s%%)", inv.TaxRate.StringFixed(2)), r.money(inv, inv.Tax)},
		{"Total", r.money(inv, inv.Total)},
	}
	totalsY := pdf.GetY()
	for i, kv := range totals {
		if i == len(totals)-1 {
			pdf.SetFont(font, "B", 11)
		}
		pdf.SetX(115)
		pdf.CellFormat(30, 7, kv[0], "T", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, kv[1], "T", 1, "R", false, 0, "")
	}

	if inv.QRContent != "" {
		png, err := qrcode.Encode(inv.QRContent, qrcode.Medium, 256)
		if err != nil {
			return fmt.Errorf("failed to encode QR code: %w", err)
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		pdf.RegisterImageOptionsReader("invoice-qr", opts, bytes.NewReader(png))
		pdf.ImageOptions("invoice-qr", 15, totalsY, 35, 35, false, opts, 0, "")
		if inv.QRCaption != "" {
			pdf.SetFont(font, "I", 8)
			pdf.SetXY(15, totalsY+36)
			pdf.Cell(60, 4, tr(inv.QRCaption))
		}
	}

	pdf.SetY(-25)
	pdf.SetFont(font, "I", 8)
	pdf.CellFormat(0, 5, "Thank you for your business.", "", 0, "C", false, 0, "")

	if err := pdf.Output(writer); err != nil {
		return fmt.Errorf("failed to write invoice PDF: %w", err)
	}
	return nil
}

func (r *InvoiceRenderer) money(inv *Invoice, amount decimal.Decimal) string {
	return amount.StringFixed(2) + " " + inv.Currency
}
