// Package calc computes invoice financial totals.
package calc

import (
	"math"

	"github.com/akarpov87/invoicehub/internal/model"
)

// Totals holds the derived invoice-level amounts.
type Totals struct {
	Subtotal float64
	TaxTotal float64
	Total    float64
}

// Compute derives subtotal, tax total and grand total from line items and
// fills each item's Total in place.
//
// Per item: itemSubtotal = quantity * unitPrice, itemTax = itemSubtotal *
// taxPercent / 100. Missing or non-numeric inputs count as zero (permissive
// draft policy, enforced at decode time by model.Numeric). The outputs are
// never NaN or Inf.
func Compute(items []model.InvoiceItem) Totals {
	var t Totals
	for i := range items {
		q := items[i].Quantity.Float64()
		price := items[i].UnitPrice.Float64()
		pct := items[i].TaxPercent.Float64()

		itemSubtotal := q * price
		itemTax := itemSubtotal * pct / 100

		items[i].Total = model.Numeric(sanitize(itemSubtotal + itemTax))
		t.Subtotal += itemSubtotal
		t.TaxTotal += itemTax
	}
	t.Subtotal = sanitize(t.Subtotal)
	t.TaxTotal = sanitize(t.TaxTotal)
	t.Total = sanitize(t.Subtotal + t.TaxTotal)
	return t
}

// sanitize coerces NaN/Inf to 0 so derived amounts are always storable.
func sanitize(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
