package service

import (
	"context"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/policy"
	"go-pos-backoffice/internal/pricing"
	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/internal/txn"
	"go-pos-backoffice/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentService is the append-only ledger of money paid against orders.
type PaymentService interface {
	RecordPayment(ctx context.Context, actor policy.Actor, req model.RecordPaymentRequest) (*model.PaymentSummary, error)
	ListPayments(ctx context.Context, actor policy.Actor, parentType model.PaymentParentType, parentID uuid.UUID) (*model.PaymentSummary, error)
}

type paymentService struct {
	tx     *txn.Coordinator
	events EventPublisher
}

func NewPaymentService(tx *txn.Coordinator, events EventPublisher) PaymentService {
	return &paymentService{tx: tx, events: publisherOrDiscard(events)}
}

// paymentParent is the part of an order the ledger cares about.
type paymentParent struct {
	code       string
	grandTotal decimal.Decimal
	status     model.PaymentStatus
	cancelled  bool
	settle     func(status model.PaymentStatus) error
}

func lockPaymentParent(ctx context.Context, repos *repository.Repositories, actorID string, parentType model.PaymentParentType, id uuid.UUID) (*paymentParent, error) {
	switch parentType {
	case model.ParentPurchaseOrder:
		po, err := repos.PurchaseOrders.LockByID(ctx, id)
		if err != nil {
			return nil, lookup(err, "purchase order", id)
		}
		return &paymentParent{
			code:       po.Code,
			grandTotal: po.GrandTotal,
			status:     po.PaymentStatus,
			cancelled:  po.Status == model.PurchaseOrderCancelled,
			settle: func(status model.PaymentStatus) error {
				return repos.PurchaseOrders.UpdatePaymentStatus(ctx, id, status, actorID)
			},
		}, nil
	case model.ParentSalesOrder:
		so, err := repos.SalesOrders.LockByID(ctx, id)
		if err != nil {
			return nil, lookup(err, "sales order", id)
		}
		return &paymentParent{
			code:       so.Code,
			grandTotal: so.GrandTotal,
			status:     so.PaymentStatus,
			cancelled:  so.PaymentStatus == model.PaymentCancelled,
			settle: func(status model.PaymentStatus) error {
				return repos.SalesOrders.UpdatePaymentStatus(ctx, id, status, actorID)
			},
		}, nil
	}
	return nil, apperror.Validationf("unknown payment parent type %q", parentType)
}

func paymentParentLock(parentType model.PaymentParentType, id uuid.UUID) string {
	if parentType == model.ParentPurchaseOrder {
		return purchaseOrderLock(id)
	}
	return salesOrderLock(id)
}

func (s *paymentService) RecordPayment(ctx context.Context, actor policy.Actor, req model.RecordPaymentRequest) (*model.PaymentSummary, error) {
	if err := begin(actor, policy.OpRecordPayment, &req); err != nil {
		return nil, err
	}

	var summary *model.PaymentSummary
	err := s.tx.Run(ctx, "payment.record", func(ctx context.Context, repos *repository.Repositories) error {
		parent, err := lockPaymentParent(ctx, repos, actor.ID, req.ParentType, req.ParentID)
		if err != nil {
			return err
		}
		if parent.cancelled {
			return apperror.Forbiddenf("order %s is cancelled; payments are not accepted", parent.code)
		}

		paidSoFar, err := repos.Payments.SumByParent(ctx, req.ParentType, req.ParentID)
		if err != nil {
			return err
		}
		_, unpaid := pricing.Outstanding(parent.grandTotal, paidSoFar)
		if req.Amount.GreaterThan(unpaid) {
			return apperror.Forbiddenf("payment %s exceeds the unpaid balance %s of %s",
				pricing.FormatIDR(req.Amount), pricing.FormatIDR(unpaid), parent.code)
		}

		payment := &model.PaymentHistory{
			ParentType:    req.ParentType,
			ParentID:      req.ParentID,
			Amount:        req.Amount,
			PaymentMethod: req.PaymentMethod,
			CreatedBy:     actor.ID,
		}
		if err := repos.Payments.Create(ctx, payment); err != nil {
			return err
		}
		if req.Amount.Equal(unpaid) && parent.status != model.PaymentPaid {
			if err := parent.settle(model.PaymentPaid); err != nil {
				return err
			}
		}

		summary, err = loadPaymentSummary(ctx, repos, req.ParentType, req.ParentID)
		if err != nil {
			return err
		}
		publishAfterCommit(ctx, s.events, orderEvent("payment_recorded", parent.code, actor, summary))
		return nil
	}, txn.WithLocks(paymentParentLock(req.ParentType, req.ParentID)))
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *paymentService) ListPayments(ctx context.Context, actor policy.Actor, parentType model.PaymentParentType, parentID uuid.UUID) (*model.PaymentSummary, error) {
	if err := begin(actor, policy.OpViewPayment, nil); err != nil {
		return nil, err
	}
	if !parentType.Valid() {
		return nil, apperror.Validationf("unknown payment parent type %q", parentType)
	}
	if parentID == uuid.Nil {
		return nil, apperror.Validation("parent_id is required")
	}

	var summary *model.PaymentSummary
	err := s.tx.Run(ctx, "payment.list", func(ctx context.Context, repos *repository.Repositories) error {
		var err error
		summary, err = loadPaymentSummary(ctx, repos, parentType, parentID)
		return err
	}, txn.ReadOnly())
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func loadPaymentSummary(ctx context.Context, repos *repository.Repositories, parentType model.PaymentParentType, id uuid.UUID) (*model.PaymentSummary, error) {
	summary := &model.PaymentSummary{ParentType: parentType, ParentID: id}
	switch parentType {
	case model.ParentPurchaseOrder:
		po, err := repos.PurchaseOrders.FindByID(ctx, id)
		if err != nil {
			return nil, lookup(err, "purchase order", id)
		}
		summary.ParentCode, summary.GrandTotal, summary.PaymentStatus = po.Code, po.GrandTotal, po.PaymentStatus
	case model.ParentSalesOrder:
		so, err := repos.SalesOrders.FindByID(ctx, id)
		if err != nil {
			return nil, lookup(err, "sales order", id)
		}
		summary.ParentCode, summary.GrandTotal, summary.PaymentStatus = so.Code, so.GrandTotal, so.PaymentStatus
	default:
		return nil, apperror.Validationf("unknown payment parent type %q", parentType)
	}

	histories, err := repos.Payments.FindByParent(ctx, parentType, id)
	if err != nil {
		return nil, err
	}
	amounts := make([]decimal.Decimal, len(histories))
	for i, h := range histories {
		amounts[i] = h.Amount
	}
	summary.PaidAmount, summary.UnpaidAmount = pricing.Outstanding(summary.GrandTotal, amounts...)
	summary.Histories = histories
	return summary, nil
}
