package service

import (
	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/pricing"

	"github.com/shopspring/decimal"
)

// PurchaseOrderView is a purchase order with its settlement derived from payment histories.
type PurchaseOrderView struct {
	*model.PurchaseOrder
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	UnpaidAmount decimal.Decimal `json:"unpaid_amount"`
}

// SalesOrderView is a sales order with its settlement derived from payment histories.
type SalesOrderView struct {
	*model.SalesOrder
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	UnpaidAmount decimal.Decimal `json:"unpaid_amount"`
}

// derivePurchaseReturnTotals prices each line at the purchase order line's unit price.
// Lines whose purchase line was not loaded are priced at zero.
func derivePurchaseReturnTotals(pr *model.PurchaseReturn) {
	lines := make([]pricing.ReturnLine, len(pr.Details))
	for i, d := range pr.Details {
		unit := decimal.Zero
		if d.PurchaseOrderDetail != nil {
			unit = d.PurchaseOrderDetail.PurchasePrice
		}
		lines[i] = pricing.ReturnLine{Quantity: d.ReturnQuantity, UnitPrice: unit}
	}
	totals, grand := pricing.ReturnTotals(lines)
	for i := range pr.Details {
		pr.Details[i].TotalPrice = totals[i]
	}
	pr.GrandTotal = grand
}

// deriveSalesReturnTotals prices each line at the snapshotted return price.
func deriveSalesReturnTotals(sr *model.SalesReturn) {
	lines := make([]pricing.ReturnLine, 0, len(sr.ProductDetails)+len(sr.ServiceDetails))
	for _, d := range sr.ProductDetails {
		lines = append(lines, pricing.ReturnLine{Quantity: d.ReturnQuantity, UnitPrice: d.ReturnPrice})
	}
	for _, d := range sr.ServiceDetails {
		lines = append(lines, pricing.ReturnLine{Quantity: d.ReturnQuantity, UnitPrice: d.ReturnPrice})
	}
	totals, grand := pricing.ReturnTotals(lines)
	for i := range sr.ProductDetails {
		sr.ProductDetails[i].TotalPrice = totals[i]
	}
	offset := len(sr.ProductDetails)
	for i := range sr.ServiceDetails {
		sr.ServiceDetails[i].TotalPrice = totals[offset+i]
	}
	sr.GrandTotal = grand
}

// initialPaymentStatus settles zero-value orders immediately since no payment can be recorded against them.
func initialPaymentStatus(grandTotal decimal.Decimal) model.PaymentStatus {
	if grandTotal.IsZero() {
		return model.PaymentPaid
	}
	return model.PaymentUnpaid
}
