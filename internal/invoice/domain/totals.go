package domain

// Line is the minimal shape needed to price a line item. Quote and recurring
// definitions convert their items into Lines so every document shares one
// totals formulation.
type Line struct {
	Quantity  float64
	UnitPrice float64
	VATRate   float64
}

// Totals holds the three amounts carried on every priced document.
type Totals struct {
	TotalHT  float64
	TotalVAT float64
	TotalTTC float64
}

// ComputeTotals prices a list of lines. The gross total is always the sum of
// the net and VAT accumulators, so the three amounts stay additive even when
// float rounding makes per-line gross computation drift.
func ComputeTotals(lines []Line) Totals {
	var t Totals
	for _, line := range lines {
		net := line.Quantity * line.UnitPrice
		t.TotalHT += net
		t.TotalVAT += net * line.VATRate / 100
	}
	t.TotalTTC = t.TotalHT + t.TotalVAT
	return t
}

// LinesFromItems converts invoice items for ComputeTotals.
func LinesFromItems(items []InvoiceItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, Line{
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			VATRate:   item.VATRate,
		})
	}
	return lines
}
