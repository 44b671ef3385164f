package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeTotalsSingleLine(t *testing.T) {
	totals := ComputeTotals([]Line{
		{Quantity: 2, UnitPrice: 100, VATRate: 20},
	})

	assert.Equal(t, 200.0, totals.TotalHT)
	assert.Equal(t, 40.0, totals.TotalVAT)
	assert.Equal(t, 240.0, totals.TotalTTC)
}

func TestComputeTotalsMixedRates(t *testing.T) {
	totals := ComputeTotals([]Line{
		{Quantity: 1, UnitPrice: 50, VATRate: 20},
		{Quantity: 3, UnitPrice: 10, VATRate: 5.5},
		{Quantity: 2, UnitPrice: 25, VATRate: 0},
	})

	assert.InDelta(t, 130.0, totals.TotalHT, 1e-9)
	assert.InDelta(t, 11.65, totals.TotalVAT, 1e-9)
	// TTC is derived from the accumulated totals, never summed per line.
	assert.Equal(t, totals.TotalHT+totals.TotalVAT, totals.TotalTTC)
}

func TestComputeTotalsEmpty(t *testing.T) {
	totals := ComputeTotals(nil)

	assert.Zero(t, totals.TotalHT)
	assert.Zero(t, totals.TotalVAT)
	assert.Zero(t, totals.TotalTTC)
}

func TestComputeTotalsZeroVATRate(t *testing.T) {
	totals := ComputeTotals([]Line{
		{Quantity: 4, UnitPrice: 12.5, VATRate: 0},
	})

	assert.Equal(t, 50.0, totals.TotalHT)
	assert.Zero(t, totals.TotalVAT)
	assert.Equal(t, 50.0, totals.TotalTTC)
}
