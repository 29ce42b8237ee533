package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/baladyapp/balady-backend/internal/pricing"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLineSubtotalRoundsPerLine(t *testing.T) {
	assert.True(t, dec("20.00").Equal(pricing.LineSubtotal(dec("2"), dec("10.00"))))
	// 3 * 7.333 = 21.999, rounds up to 22.00 before summing
	assert.True(t, dec("22.00").Equal(pricing.LineSubtotal(dec("3"), dec("7.333"))))
	// fractional kg quantity
	assert.True(t, dec("3.74").Equal(pricing.LineSubtotal(dec("0.750"), dec("4.99"))))
}

func TestProductsTotalSumsRoundedSubtotals(t *testing.T) {
	lines := []pricing.Line{
		{Quantity: dec("2"), UnitPrice: dec("10.00")},
		{Quantity: dec("3"), UnitPrice: dec("7.333")},
	}
	assert.True(t, dec("42.00").Equal(pricing.ProductsTotal(lines)))
}

func TestFinalTotal(t *testing.T) {
	got := pricing.FinalTotal(dec("42.00"), dec("20"), decimal.Zero)
	assert.True(t, dec("62.00").Equal(got))

	got = pricing.FinalTotal(dec("42.00"), dec("20"), dec("5.50"))
	assert.True(t, dec("56.50").Equal(got))
}

func TestComputeCarriesDiscountThrough(t *testing.T) {
	lines := []pricing.Line{
		{Quantity: dec("1"), UnitPrice: dec("40.00")},
	}
	totals := pricing.Compute(lines, dec("20"), decimal.Zero)
	assert.True(t, dec("40.00").Equal(totals.TotalProductsPrice))
	assert.True(t, dec("20.00").Equal(totals.ShippingFees))
	assert.True(t, decimal.Zero.Equal(totals.DiscountAmount))
	assert.True(t, dec("60.00").Equal(totals.FinalTotal))
}
