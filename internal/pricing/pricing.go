// Package pricing computes line subtotals and order totals.
//
// All monetary values are rounded to two decimal places. Each line subtotal
// is rounded individually before the lines are summed, and the combined
// total is rounded once more. Quantities are decimals because kg-priced
// products sell in fractional amounts.
package pricing

import (
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places kept on monetary amounts.
const MoneyScale = 2

// Line pairs a quantity with the unit price captured for it.
type Line struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// Totals carries the computed monetary breakdown of an order.
type Totals struct {
	TotalProductsPrice decimal.Decimal
	ShippingFees       decimal.Decimal
	DiscountAmount     decimal.Decimal
	FinalTotal         decimal.Decimal
}

// LineSubtotal returns round(quantity * unitPrice, 2).
func LineSubtotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Round(MoneyScale)
}

// ProductsTotal sums the rounded subtotals of the given lines and rounds
// the result once more.
func ProductsTotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(LineSubtotal(line.Quantity, line.UnitPrice))
	}
	return total.Round(MoneyScale)
}

// FinalTotal returns round(products + shipping - discount, 2).
func FinalTotal(productsTotal, shippingFees, discount decimal.Decimal) decimal.Decimal {
	return productsTotal.Add(shippingFees).Sub(discount).Round(MoneyScale)
}

// Compute assembles the full totals for an order. Discount is carried
// through the arithmetic even though no coupon system sets it yet.
func Compute(lines []Line, shippingFees, discount decimal.Decimal) Totals {
	products := ProductsTotal(lines)
	return Totals{
		TotalProductsPrice: products,
		ShippingFees:       shippingFees.Round(MoneyScale),
		DiscountAmount:     discount.Round(MoneyScale),
		FinalTotal:         FinalTotal(products, shippingFees, discount),
	}
}
