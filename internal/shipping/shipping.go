// Package shipping resolves delivery fees from the region lookup table.
package shipping

import (
	"github.com/shopspring/decimal"
)

// Rate holds the fee tier for a delivery region. Orders whose products
// total is at or above FreeAbove ship for free; below it the flat Fee
// applies.
type Rate struct {
	FreeAbove decimal.Decimal
	Fee       decimal.Decimal
}

// Table maps region names to their rates. Regions without an entry fall
// back to the Default rate.
type Table struct {
	Regions map[string]Rate
	Default Rate
}

// DefaultTable returns the production fee schedule. Two regions carry
// lowered free-shipping thresholds; everything else ships free above 70
// or costs the flat 20 fee.
func DefaultTable() Table {
	flatFee := decimal.NewFromInt(20)
	return Table{
		Regions: map[string]Rate{
			"دير الغصون - دير الغصون": {FreeAbove: decimal.NewFromInt(30), Fee: flatFee},
			"عتيل - عتيل":             {FreeAbove: decimal.NewFromInt(50), Fee: flatFee},
		},
		Default: Rate{FreeAbove: decimal.NewFromInt(70), Fee: flatFee},
	}
}

// RateFor returns the rate for the named region, falling back to the
// default entry.
func (t Table) RateFor(region string) Rate {
	if rate, ok := t.Regions[region]; ok {
		return rate
	}
	return t.Default
}

// FeeFor returns the shipping fee for an order shipped to region with the
// given products total.
func (t Table) FeeFor(region string, productsTotal decimal.Decimal) decimal.Decimal {
	rate := t.RateFor(region)
	if productsTotal.GreaterThanOrEqual(rate.FreeAbove) {
		return decimal.Zero
	}
	return rate.Fee
}
