// Package pricing holds the pure numeric rules of the back office: moving-average cost,
// order and return totals, the purchase-price display code and sequential document codes.
// Everything here works on decimal.Decimal; nothing touches the store.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeQuantity   = errors.New("quantity cannot be negative")
	ErrNegativePrice      = errors.New("price cannot be negative")
	ErrNonPositiveStock   = errors.New("updated stock must be greater than zero")
	ErrDiscountOutOfRange = errors.New("discount must be between zero and the subtotal")
)

// CostAdjustment is the result of receiving one purchase line into stock.
type CostAdjustment struct {
	StockBefore decimal.Decimal
	CostBefore  decimal.Decimal
	Quantity    decimal.Decimal
	LineTotal   decimal.Decimal
	StockAfter  decimal.Decimal
	CostAfter   decimal.Decimal
}

// MovingAverage recomputes the unit cost after receiving qty units worth lineTotal:
//
//	(stockBefore*costBefore + lineTotal) / (stockBefore + qty)
//
// rounded half-up to places. ok is false when qty is zero and the line must be skipped.
func MovingAverage(stockBefore, costBefore, qty, lineTotal decimal.Decimal, places int32) (adj CostAdjustment, ok bool, err error) {
	if qty.IsNegative() || stockBefore.IsNegative() {
		return CostAdjustment{}, false, ErrNegativeQuantity
	}
	if lineTotal.IsNegative() || costBefore.IsNegative() {
		return CostAdjustment{}, false, ErrNegativePrice
	}
	if qty.IsZero() {
		return CostAdjustment{}, false, nil
	}

	updatedStock := stockBefore.Add(qty)
	if !updatedStock.IsPositive() {
		return CostAdjustment{}, false, ErrNonPositiveStock
	}

	totalCostBefore := stockBefore.Mul(costBefore)
	// DivRound rounds half away from zero, which is half-up for the non-negative values allowed here.
	updatedCost := totalCostBefore.Add(lineTotal).DivRound(updatedStock, places)

	return CostAdjustment{
		StockBefore: stockBefore,
		CostBefore:  costBefore,
		Quantity:    qty,
		LineTotal:   lineTotal,
		StockAfter:  updatedStock,
		CostAfter:   updatedCost,
	}, true, nil
}
