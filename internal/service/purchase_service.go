package service

import (
	"context"
	"fmt"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/policy"
	"go-pos-backoffice/internal/pricing"
	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/internal/txn"
	"go-pos-backoffice/internal/ws"
	"go-pos-backoffice/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PurchaseService interface {
	CreatePurchaseOrder(ctx context.Context, actor policy.Actor, req model.CreatePurchaseOrderRequest) (*PurchaseOrderView, error)
	GetPurchaseOrder(ctx context.Context, actor policy.Actor, id uuid.UUID) (*PurchaseOrderView, error)
	// FinishPurchaseOrder receives every line into stock and recomputes moving-average cost.
	FinishPurchaseOrder(ctx context.Context, actor policy.Actor, id uuid.UUID) (*PurchaseOrderView, error)
	CancelPurchaseOrder(ctx context.Context, actor policy.Actor, id uuid.UUID) (*PurchaseOrderView, error)

	CreatePurchaseReturn(ctx context.Context, actor policy.Actor, req model.CreatePurchaseReturnRequest) (*model.PurchaseReturn, error)
	GetPurchaseReturn(ctx context.Context, actor policy.Actor, id uuid.UUID) (*model.PurchaseReturn, error)
	FinishPurchaseReturn(ctx context.Context, actor policy.Actor, id uuid.UUID) (*model.PurchaseReturn, error)
	CancelPurchaseReturn(ctx context.Context, actor policy.Actor, id uuid.UUID) (*model.PurchaseReturn, error)
}

type purchaseService struct {
	tx                 *txn.Coordinator
	events             EventPublisher
	costPricePrecision int32
}

// NewPurchaseService rounds recomputed cost prices to costPricePrecision decimal places.
func NewPurchaseService(tx *txn.Coordinator, events EventPublisher, costPricePrecision int32) PurchaseService {
	return &purchaseService{tx: tx, events: publisherOrDiscard(events), costPricePrecision: costPricePrecision}
}

func purchaseOrderLock(id uuid.UUID) string { return entityLock("purchase_order", id) }

func loadPurchaseOrderView(ctx context.Context, repos *repository.Repositories, id uuid.UUID) (*PurchaseOrderView, error) {
	po, err := repos.PurchaseOrders.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "purchase order", id)
	}
	paid, err := repos.Payments.SumByParent(ctx, model.ParentPurchaseOrder, id)
	if err != nil {
		return nil, err
	}
	paid, unpaid := pricing.Outstanding(po.GrandTotal, paid)
	return &PurchaseOrderView{PurchaseOrder: po, PaidAmount: paid, UnpaidAmount: unpaid}, nil
}

func (s *purchaseService) CreatePurchaseOrder(ctx context.Context, actor policy.Actor, req model.CreatePurchaseOrderRequest) (*PurchaseOrderView, error) {
	if err := begin(actor, policy.OpCreatePurchaseOrder, &req); err != nil {
		return nil, err
	}

	var view *PurchaseOrderView
	err := s.tx.Run(ctx, "purchase_order.create", func(ctx context.Context, repos *repository.Repositories) error {
		if _, err := repos.Suppliers.FindByID(ctx, req.SupplierID); err != nil {
			return lookup(err, "supplier", req.SupplierID)
		}

		details := make([]model.PurchaseOrderDetail, 0, len(req.Details))
		totals := make([]decimal.Decimal, 0, len(req.Details))
		for _, line := range req.Details {
			if _, err := repos.Products.FindByID(ctx, line.ProductID); err != nil {
				return lookup(err, "product", line.ProductID)
			}
			total := pricing.LineTotal(line.Quantity, line.PurchasePrice)
			d := model.PurchaseOrderDetail{
				ProductID:     line.ProductID,
				Quantity:      line.Quantity,
				PurchasePrice: line.PurchasePrice,
				TotalPrice:    total,
			}
			d.CreatedBy = actor.ID
			d.UpdatedBy = actor.ID
			details = append(details, d)
			totals = append(totals, total)
		}

		code, err := allocateCode(ctx, repos, model.PrefixPurchaseOrder)
		if err != nil {
			return err
		}
		grand := pricing.GrandTotal(totals...)
		po := &model.PurchaseOrder{
			Code:          code,
			SupplierID:    req.SupplierID,
			Status:        model.PurchaseOrderInProgress,
			PaymentStatus: initialPaymentStatus(grand),
			GrandTotal:    grand,
			Note:          req.Note,
			Details:       details,
		}
		po.CreatedBy = actor.ID
		po.UpdatedBy = actor.ID
		if err := repos.PurchaseOrders.Create(ctx, po); err != nil {
			return err
		}

		view, err = loadPurchaseOrderView(ctx, repos, po.ID)
		if err != nil {
			return err
		}
		publishAfterCommit(ctx, s.events, orderEvent("purchase_order_created", po.Code, actor, nil))
		return nil
	}, txn.WithLocks(sequenceLock(model.PrefixPurchaseOrder)))
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *purchaseService) GetPurchaseOrder(ctx context.Context, actor policy.Actor, id uuid.UUID) (*PurchaseOrderView, error) {
	if err := begin(actor, policy.OpViewPurchaseOrder, nil); err != nil {
		return nil, err
	}
	var view *PurchaseOrderView
	err := s.tx.Run(ctx, "purchase_order.get", func(ctx context.Context, repos *repository.Repositories) error {
		var err error
		view, err = loadPurchaseOrderView(ctx, repos, id)
		return err
	}, txn.ReadOnly())
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *purchaseService) FinishPurchaseOrder(ctx context.Context, actor policy.Actor, id uuid.UUID) (*PurchaseOrderView, error) {
	if err := begin(actor, policy.OpFinishPurchaseOrder, nil); err != nil {
		return nil, err
	}

	var view *PurchaseOrderView
	err := s.tx.Run(ctx, "purchase_order.finish", func(ctx context.Context, repos *repository.Repositories) error {
		po, err := repos.PurchaseOrders.LockByID(ctx, id)
		if err != nil {
			return lookup(err, "purchase order", id)
		}
		if po.Status != model.PurchaseOrderInProgress {
			return apperror.Forbiddenf("purchase order %s is %s; only %s orders can be finished",
				po.Code, po.Status, model.PurchaseOrderInProgress)
		}

		lines := make([]stockLine, 0, len(po.Details))
		for _, d := range po.Details {
			lines = append(lines, stockLine{ProductID: d.ProductID, Quantity: d.Quantity, LineTotal: d.TotalPrice})
		}
		changes, err := receiveAtCost(ctx, repos, actor.ID, po.Code, lines, s.costPricePrecision)
		if err != nil {
			return err
		}
		if err := repos.PurchaseOrders.UpdateStatus(ctx, id, model.PurchaseOrderFinished, actor.ID); err != nil {
			return err
		}

		view, err = loadPurchaseOrderView(ctx, repos, id)
		if err != nil {
			return err
		}
		publishAfterCommit(ctx, s.events, stockEvent("purchase_order_finished", po.Code, actor, changes))
		return nil
	}, txn.WithLocks(purchaseOrderLock(id)))
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *purchaseService) CancelPurchaseOrder(ctx context.Context, actor policy.Actor, id uuid.UUID) (*PurchaseOrderView, error) {
	if err := begin(actor, policy.OpCancelPurchaseOrder, nil); err != nil {
		return nil, err
	}

	var view *PurchaseOrderView
	err := s.tx.Run(ctx, "purchase_order.cancel", func(ctx context.Context, repos *repository.Repositories) error {
		po, err := repos.PurchaseOrders.LockByID(ctx, id)
		if err != nil {
			return lookup(err, "purchase order", id)
		}
		if po.Status != model.PurchaseOrderInProgress {
			return apperror.Forbiddenf("purchase order %s is %s; only %s orders can be cancelled",
				po.Code, po.Status, model.PurchaseOrderInProgress)
		}
		if err := repos.PurchaseOrders.UpdateStatus(ctx, id, model.PurchaseOrderCancelled, actor.ID); err != nil {
			return err
		}
		view, err = loadPurchaseOrderView(ctx, repos, id)
		if err != nil {
			return err
		}
		publishAfterCommit(ctx, s.events, orderEvent("purchase_order_cancelled", po.Code, actor, nil))
		return nil
	}, txn.WithLocks(purchaseOrderLock(id)))
	if err != nil {
		return nil, err
	}
	return view, nil
}

func loadPurchaseReturn(ctx context.Context, repos *repository.Repositories, id uuid.UUID) (*model.PurchaseReturn, error) {
	pr, err := repos.PurchaseReturns.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "purchase return", id)
	}
	derivePurchaseReturnTotals(pr)
	return pr, nil
}

func (s *purchaseService) CreatePurchaseReturn(ctx context.Context, actor policy.Actor, req model.CreatePurchaseReturnRequest) (*model.PurchaseReturn, error) {
	if err := begin(actor, policy.OpCreatePurchaseReturn, &req); err != nil {
		return nil, err
	}

	var out *model.PurchaseReturn
	err := s.tx.Run(ctx, "purchase_return.create", func(ctx context.Context, repos *repository.Repositories) error {
		po, err := repos.PurchaseOrders.LockByID(ctx, req.PurchaseOrderID)
		if err != nil {
			return lookup(err, "purchase order", req.PurchaseOrderID)
		}
		if po.Status != model.PurchaseOrderFinished {
			return apperror.Forbiddenf("purchase order %s is %s; only %s orders can be returned",
				po.Code, po.Status, model.PurchaseOrderFinished)
		}

		lines := make(map[uuid.UUID]model.PurchaseOrderDetail, len(po.Details))
		for _, d := range po.Details {
			lines[d.ID] = d
		}
		returned, err := repos.PurchaseReturns.ReturnedQuantities(ctx, po.ID)
		if err != nil {
			return err
		}

		details := make([]model.PurchaseReturnDetail, 0, len(req.Details))
		for _, l := range req.Details {
			line, ok := lines[l.PurchaseOrderDetailID]
			if !ok {
				return apperror.Validationf("line %s does not belong to purchase order %s", l.PurchaseOrderDetailID, po.Code)
			}
			total := returned[line.ID].Add(l.ReturnQuantity)
			if total.GreaterThan(line.Quantity) {
				return apperror.Validationf("return quantity for line %s exceeds purchased quantity %s (already returned %s)",
					line.ID, line.Quantity.String(), returned[line.ID].String())
			}
			returned[line.ID] = total

			d := model.PurchaseReturnDetail{
				PurchaseOrderDetailID: line.ID,
				ReturnQuantity:        l.ReturnQuantity,
				Reason:                l.Reason,
			}
			d.CreatedBy = actor.ID
			d.UpdatedBy = actor.ID
			details = append(details, d)
		}

		code, err := allocateCode(ctx, repos, model.PrefixPurchaseReturn)
		if err != nil {
			return err
		}
		pr := &model.PurchaseReturn{
			Code:            code,
			PurchaseOrderID: po.ID,
			ReturnType:      req.ReturnType,
			Status:          model.ReturnInProgress,
			Note:            req.Note,
			Details:         details,
		}
		pr.CreatedBy = actor.ID
		pr.UpdatedBy = actor.ID
		if err := repos.PurchaseReturns.Create(ctx, pr); err != nil {
			return err
		}

		out, err = loadPurchaseReturn(ctx, repos, pr.ID)
		if err != nil {
			return err
		}
		publishAfterCommit(ctx, s.events, orderEvent("purchase_return_created", pr.Code, actor, nil))
		return nil
	}, txn.WithLocks(purchaseOrderLock(req.PurchaseOrderID), sequenceLock(model.PrefixPurchaseReturn)))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *purchaseService) GetPurchaseReturn(ctx context.Context, actor policy.Actor, id uuid.UUID) (*model.PurchaseReturn, error) {
	if err := begin(actor, policy.OpViewPurchaseReturn, nil); err != nil {
		return nil, err
	}
	var out *model.PurchaseReturn
	err := s.tx.Run(ctx, "purchase_return.get", func(ctx context.Context, repos *repository.Repositories) error {
		var err error
		out, err = loadPurchaseReturn(ctx, repos, id)
		return err
	}, txn.ReadOnly())
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *purchaseService) FinishPurchaseReturn(ctx context.Context, actor policy.Actor, id uuid.UUID) (*model.PurchaseReturn, error) {
	if err := begin(actor, policy.OpFinishPurchaseReturn, nil); err != nil {
		return nil, err
	}

	var out *model.PurchaseReturn
	err := s.tx.Run(ctx, "purchase_return.finish", func(ctx context.Context, repos *repository.Repositories) error {
		pr, err := repos.PurchaseReturns.LockByID(ctx, id)
		if err != nil {
			return lookup(err, "purchase return", id)
		}
		if pr.Status != model.ReturnInProgress {
			return apperror.Forbiddenf("purchase return %s is %s; only %s returns can be finished",
				pr.Code, pr.Status, model.ReturnInProgress)
		}

		var changes []stockChange
		if pr.ReturnType == model.ReturnReplaceGoods {
			lines := make([]stockLine, 0, len(pr.Details))
			for _, d := range pr.Details {
				if d.PurchaseOrderDetail == nil {
					return fmt.Errorf("purchase return %s line %s has no purchase order line", pr.Code, d.ID)
				}
				lines = append(lines, stockLine{ProductID: d.PurchaseOrderDetail.ProductID, Quantity: d.ReturnQuantity})
			}
			changes, err = moveStock(ctx, repos, actor.ID, pr.Code, lines, model.MovementIn)
			if err != nil {
				return err
			}
		}

		if err := repos.PurchaseReturns.UpdateStatus(ctx, id, model.ReturnFinished, actor.ID); err != nil {
			return err
		}
		out, err = loadPurchaseReturn(ctx, repos, id)
		if err != nil {
			return err
		}
		if len(changes) > 0 {
			publishAfterCommit(ctx, s.events, stockEvent("purchase_return_finished", pr.Code, actor, changes))
		} else {
			publishAfterCommit(ctx, s.events, orderEvent("purchase_return_finished", pr.Code, actor, nil))
		}
		return nil
	}, txn.WithLocks(entityLock("purchase_return", id)))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *purchaseService) CancelPurchaseReturn(ctx context.Context, actor policy.Actor, id uuid.UUID) (*model.PurchaseReturn, error) {
	if err := begin(actor, policy.OpCancelPurchaseReturn, nil); err != nil {
		return nil, err
	}

	var out *model.PurchaseReturn
	err := s.tx.Run(ctx, "purchase_return.cancel", func(ctx context.Context, repos *repository.Repositories) error {
		pr, err := repos.PurchaseReturns.LockByID(ctx, id)
		if err != nil {
			return lookup(err, "purchase return", id)
		}
		if pr.Status != model.ReturnInProgress {
			return apperror.Forbiddenf("purchase return %s is %s; only %s returns can be cancelled",
				pr.Code, pr.Status, model.ReturnInProgress)
		}
		if err := repos.PurchaseReturns.UpdateStatus(ctx, id, model.ReturnCancelled, actor.ID); err != nil {
			return err
		}
		out, err = loadPurchaseReturn(ctx, repos, id)
		if err != nil {
			return err
		}
		publishAfterCommit(ctx, s.events, orderEvent("purchase_return_cancelled", pr.Code, actor, nil))
		return nil
	}, txn.WithLocks(entityLock("purchase_return", id)))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func orderEvent(action, reference string, actor policy.Actor, data interface{}) ws.Event {
	return ws.Event{
		Type:      "order_update",
		Action:    action,
		Reference: reference,
		Data:      data,
		User:      eventActor(actor),
		Message:   fmt.Sprintf("%s: %s by %s", reference, action, actor.Name),
	}
}

func stockEvent(action, reference string, actor policy.Actor, changes []stockChange) ws.Event {
	return ws.Event{
		Type:      "stock_update",
		Action:    action,
		Reference: reference,
		Data:      changes,
		User:      eventActor(actor),
		Message:   fmt.Sprintf("%s: %s by %s", reference, action, actor.Name),
	}
}
