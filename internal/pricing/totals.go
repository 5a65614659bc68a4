package pricing

import "github.com/shopspring/decimal"

// LineTotal is quantity times unit price.
func LineTotal(qty, unitPrice decimal.Decimal) decimal.Decimal {
	return qty.Mul(unitPrice)
}

// GrandTotal sums line totals.
func GrandTotal(lineTotals ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, t := range lineTotals {
		total = total.Add(t)
	}
	return total
}

// ReturnLine is one returned line priced at the original order line's unit price.
type ReturnLine struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// ReturnTotals prices every return line and sums them.
func ReturnTotals(lines []ReturnLine) ([]decimal.Decimal, decimal.Decimal) {
	totals := make([]decimal.Decimal, len(lines))
	for i, l := range lines {
		totals[i] = LineTotal(l.Quantity, l.UnitPrice)
	}
	return totals, GrandTotal(totals...)
}

// SalesTotals returns subtotal and grand total after discount.
func SalesTotals(lineTotals []decimal.Decimal, discount decimal.Decimal) (subTotal, grandTotal decimal.Decimal, err error) {
	subTotal = GrandTotal(lineTotals...)
	if discount.IsNegative() || discount.GreaterThan(subTotal) {
		return decimal.Zero, decimal.Zero, ErrDiscountOutOfRange
	}
	return subTotal, subTotal.Sub(discount), nil
}

// Outstanding is the unpaid part of grandTotal given the amounts already paid.
func Outstanding(grandTotal decimal.Decimal, payments ...decimal.Decimal) (paid, unpaid decimal.Decimal) {
	paid = GrandTotal(payments...)
	return paid, grandTotal.Sub(paid)
}
