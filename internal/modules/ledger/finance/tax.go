package finance

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// InvoiceTotals is the tax breakdown printed on an order invoice.
type InvoiceTotals struct {
	Subtotal decimal.Decimal
	TaxRate  decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeInvoiceTotals applies a percentage tax rate to an order amount.
// Tax is rounded half-up to cents; the total is subtotal plus rounded tax.
func ComputeInvoiceTotals(amount, taxRatePercent decimal.Decimal) InvoiceTotals {
	tax := amount.Mul(taxRatePercent).Div(hundred).Round(2)
	return InvoiceTotals{
		Subtotal: amount,
		TaxRate:  taxRatePercent,
		Tax:      tax,
		Total:    amount.Add(tax),
	}
}
