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

// SalesPolicy switches the optional stock effects of sales cancellations and returns.
type SalesPolicy struct {
	CancelRestock bool
	ReturnRestock bool
}

type SalesService interface {
	CreateSalesOrder(ctx context.Context, actor policy.Actor, req model.CreateSalesOrderRequest) (*SalesOrderView, error)
	GetSalesOrder(ctx context.Context, actor policy.Actor, id uuid.UUID) (*SalesOrderView, error)
	// FinishSalesOrder takes every product line out of stock; service lines never touch stock.
	FinishSalesOrder(ctx context.Context, actor policy.Actor, id uuid.UUID) (*SalesOrderView, error)
	CancelSalesOrder(ctx context.Context, actor policy.Actor, id uuid.UUID) (*SalesOrderView, error)

	CreateSalesReturn(ctx context.Context, actor policy.Actor, req model.CreateSalesReturnRequest) (*model.SalesReturn, error)
	GetSalesReturn(ctx context.Context, actor policy.Actor, id uuid.UUID) (*model.SalesReturn, error)
	FinishSalesReturn(ctx context.Context, actor policy.Actor, id uuid.UUID) (*model.SalesReturn, error)
	CancelSalesReturn(ctx context.Context, actor policy.Actor, id uuid.UUID) (*model.SalesReturn, error)
}

type salesService struct {
	tx     *txn.Coordinator
	events EventPublisher
	policy SalesPolicy
}

func NewSalesService(tx *txn.Coordinator, events EventPublisher, p SalesPolicy) SalesService {
	return &salesService{tx: tx, events: publisherOrDiscard(events), policy: p}
}

func salesOrderLock(id uuid.UUID) string { return entityLock("sales_order", id) }

func loadSalesOrderView(ctx context.Context, repos *repository.Repositories, id uuid.UUID) (*SalesOrderView, error) {
	so, err := repos.SalesOrders.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "sales order", id)
	}
	paid, err := repos.Payments.SumByParent(ctx, model.ParentSalesOrder, id)
	if err != nil {
		return nil, err
	}
	paid, unpaid := pricing.Outstanding(so.GrandTotal, paid)
	return &SalesOrderView{SalesOrder: so, PaidAmount: paid, UnpaidAmount: unpaid}, nil
}

func (s *salesService) CreateSalesOrder(ctx context.Context, actor policy.Actor, req model.CreateSalesOrderRequest) (*SalesOrderView, error) {
	if err := begin(actor, policy.OpCreateSalesOrder, &req); err != nil {
		return nil, err
	}
	if len(req.ProductDetails)+len(req.ServiceDetails) == 0 {
		return nil, apperror.Validation("sales order needs at least one product or service line")
	}

	var view *SalesOrderView
	err := s.tx.Run(ctx, "sales_order.create", func(ctx context.Context, repos *repository.Repositories) error {
		if _, err := repos.Customers.FindByID(ctx, req.CustomerID); err != nil {
			return lookup(err, "customer", req.CustomerID)
		}

		totals := make([]decimal.Decimal, 0, len(req.ProductDetails)+len(req.ServiceDetails))
		products := make([]model.SalesOrderProductDetail, 0, len(req.ProductDetails))
		for _, line := range req.ProductDetails {
			p, err := repos.Products.FindByID(ctx, line.ProductID)
			if err != nil {
				return lookup(err, "product", line.ProductID)
			}
			price := p.SellingPrice
			if line.SellingPrice != nil {
				price = *line.SellingPrice
			}
			total := pricing.LineTotal(line.Quantity, price)
			d := model.SalesOrderProductDetail{
				ProductID:    p.ID,
				SellingPrice: price,
				Quantity:     line.Quantity,
				TotalPrice:   total,
			}
			d.CreatedBy = actor.ID
			d.UpdatedBy = actor.ID
			products = append(products, d)
			totals = append(totals, total)
		}

		services := make([]model.SalesOrderServiceDetail, 0, len(req.ServiceDetails))
		for _, line := range req.ServiceDetails {
			total := pricing.LineTotal(line.Quantity, line.SellingPrice)
			d := model.SalesOrderServiceDetail{
				ServiceName:  line.ServiceName,
				SellingPrice: line.SellingPrice,
				Quantity:     line.Quantity,
				TotalPrice:   total,
			}
			d.CreatedBy = actor.ID
			d.UpdatedBy = actor.ID
			services = append(services, d)
			totals = append(totals, total)
		}

		subTotal, grand, err := pricing.SalesTotals(totals, req.Discount)
		if err != nil {
			return apperror.Validation(err.Error())
		}

		code, err := allocateCode(ctx, repos, model.PrefixSalesOrder)
		if err != nil {
			return err
		}
		so := &model.SalesOrder{
			Code:           code,
			CustomerID:     req.CustomerID,
			ProgressStatus: model.ProgressNotStarted,
			PaymentStatus:  initialPaymentStatus(grand),
			SubTotal:       subTotal,
			Discount:       req.Discount,
			GrandTotal:     grand,
			Note:           req.Note,
			ProductDetails: products,
			ServiceDetails: services,
		}
		so.CreatedBy = actor.ID
		so.UpdatedBy = actor.ID
		if err := repos.SalesOrders.Create(ctx, so); err != nil {
			return err
		}

		view, err = loadSalesOrderView(ctx, repos, so.ID)
		if err != nil {
			return err
		}
		publishAfterCommit(ctx, s.events, orderEvent("sales_order_created", so.Code, actor, nil))
		return nil
	}, txn.WithLocks(sequenceLock(model.PrefixSalesOrder)))
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *salesService) GetSalesOrder(ctx context.Context, actor policy.Actor, id uuid.UUID) (*SalesOrderView, error) {
	if err := begin(actor, policy.OpViewSalesOrder, nil); err != nil {
		return nil, err
	}
	var view *SalesOrderView
	err := s.tx.Run(ctx, "sales_order.get", func(ctx context.Context, repos *repository.Repositories) error {
		var err error
		view, err = loadSalesOrderView(ctx, repos, id)
		return err
	}, txn.ReadOnly())
	if err != nil {
		return nil, err
	}
	return view, nil
}

func productLines(so *model.SalesOrder) []stockLine {
	lines := make([]stockLine, 0, len(so.ProductDetails))
	for _, d := range so.ProductDetails {
		lines = append(lines, stockLine{ProductID: d.ProductID, Quantity: d.Quantity})
	}
	return lines
}

func (s *salesService) FinishSalesOrder(ctx context.Context, actor policy.Actor, id uuid.UUID) (*SalesOrderView, error) {
	if err := begin(actor, policy.OpFinishSalesOrder, nil); err != nil {
		return nil, err
	}

	var view *SalesOrderView
	err := s.tx.Run(ctx, "sales_order.finish", func(ctx context.Context, repos *repository.Repositories) error {
		so, err := repos.SalesOrders.LockByID(ctx, id)
		if err != nil {
			return lookup(err, "sales order", id)
		}
		if so.PaymentStatus == model.PaymentCancelled {
			return apperror.Forbiddenf("sales order %s is cancelled", so.Code)
		}
		if so.ProgressStatus != model.ProgressNotStarted {
			return apperror.Forbiddenf("sales order %s is %s; only %s orders can be finished",
				so.Code, so.ProgressStatus, model.ProgressNotStarted)
		}

		var changes []stockChange
		if lines := productLines(so); len(lines) > 0 {
			changes, err = moveStock(ctx, repos, actor.ID, so.Code, lines, model.MovementOut)
			if err != nil {
				return err
			}
		}
		if err := repos.SalesOrders.UpdateProgress(ctx, id, model.ProgressFinished, actor.ID); err != nil {
			return err
		}

		view, err = loadSalesOrderView(ctx, repos, id)
		if err != nil {
			return err
		}
		publishAfterCommit(ctx, s.events, stockEvent("sales_order_finished", so.Code, actor, changes))
		return nil
	}, txn.WithLocks(salesOrderLock(id)))
	if err != nil {
		return nil, err
	}
	return view, nil
}

// CancelSalesOrder marks the order Batal. Stock of a finished order comes back only under CancelRestock.
func (s *salesService) CancelSalesOrder(ctx context.Context, actor policy.Actor, id uuid.UUID) (*SalesOrderView, error) {
	if err := begin(actor, policy.OpCancelSalesOrder, nil); err != nil {
		return nil, err
	}

	var view *SalesOrderView
	err := s.tx.Run(ctx, "sales_order.cancel", func(ctx context.Context, repos *repository.Repositories) error {
		so, err := repos.SalesOrders.LockByID(ctx, id)
		if err != nil {
			return lookup(err, "sales order", id)
		}
		if so.PaymentStatus == model.PaymentCancelled {
			return apperror.Forbiddenf("sales order %s is already cancelled", so.Code)
		}

		var changes []stockChange
		if s.policy.CancelRestock && so.ProgressStatus == model.ProgressFinished {
			restocked, err := restockedByReturns(ctx, repos, so.ID)
			if err != nil {
				return err
			}
			if lines := netOfRestocked(productLines(so), restocked); len(lines) > 0 {
				changes, err = moveStock(ctx, repos, actor.ID, so.Code, lines, model.MovementIn)
				if err != nil {
					return err
				}
			}
		}
		if err := repos.SalesOrders.UpdatePaymentStatus(ctx, id, model.PaymentCancelled, actor.ID); err != nil {
			return err
		}

		view, err = loadSalesOrderView(ctx, repos, id)
		if err != nil {
			return err
		}
		if len(changes) > 0 {
			publishAfterCommit(ctx, s.events, stockEvent("sales_order_cancelled", so.Code, actor, changes))
		} else {
			publishAfterCommit(ctx, s.events, orderEvent("sales_order_cancelled", so.Code, actor, nil))
		}
		return nil
	}, txn.WithLocks(salesOrderLock(id)))
	if err != nil {
		return nil, err
	}
	return view, nil
}

// restockedByReturns sums, per product, the stock that finished returns of the order put back.
func restockedByReturns(ctx context.Context, repos *repository.Repositories, salesOrderID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	codes, err := repos.SalesReturns.CodesByStatus(ctx, salesOrderID, model.ReturnFinished)
	if err != nil {
		return nil, err
	}
	restocked := map[uuid.UUID]decimal.Decimal{}
	for _, code := range codes {
		moves, err := repos.StockMovements.FindByReference(ctx, code)
		if err != nil {
			return nil, err
		}
		for _, m := range moves {
			if m.Type == model.MovementIn {
				restocked[m.ProductID] = restocked[m.ProductID].Add(m.Quantity)
			}
		}
	}
	return restocked, nil
}

// netOfRestocked drops already restocked quantity from lines, consuming restocked as it goes.
// Lines brought down to zero are left out.
func netOfRestocked(lines []stockLine, restocked map[uuid.UUID]decimal.Decimal) []stockLine {
	out := make([]stockLine, 0, len(lines))
	for _, l := range lines {
		taken := decimal.Min(l.Quantity, restocked[l.ProductID])
		restocked[l.ProductID] = restocked[l.ProductID].Sub(taken)
		if l.Quantity = l.Quantity.Sub(taken); l.Quantity.IsPositive() {
			out = append(out, l)
		}
	}
	return out
}

func loadSalesReturn(ctx context.Context, repos *repository.Repositories, id uuid.UUID) (*model.SalesReturn, error) {
	sr, err := repos.SalesReturns.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "sales return", id)
	}
	deriveSalesReturnTotals(sr)
	return sr, nil
}

func (s *salesService) CreateSalesReturn(ctx context.Context, actor policy.Actor, req model.CreateSalesReturnRequest) (*model.SalesReturn, error) {
	if err := begin(actor, policy.OpCreateSalesReturn, &req); err != nil {
		return nil, err
	}
	if len(req.ProductDetails)+len(req.ServiceDetails) == 0 {
		return nil, apperror.Validation("sales return needs at least one product or service line")
	}

	var out *model.SalesReturn
	err := s.tx.Run(ctx, "sales_return.create", func(ctx context.Context, repos *repository.Repositories) error {
		so, err := repos.SalesOrders.LockByID(ctx, req.SalesOrderID)
		if err != nil {
			return lookup(err, "sales order", req.SalesOrderID)
		}
		if so.PaymentStatus == model.PaymentCancelled {
			return apperror.Forbiddenf("sales order %s is cancelled", so.Code)
		}
		if so.ProgressStatus != model.ProgressFinished {
			return apperror.Forbiddenf("sales order %s is %s; only %s orders can be returned",
				so.Code, so.ProgressStatus, model.ProgressFinished)
		}

		soProducts := make(map[uuid.UUID]model.SalesOrderProductDetail, len(so.ProductDetails))
		for _, d := range so.ProductDetails {
			soProducts[d.ID] = d
		}
		soServices := make(map[uuid.UUID]model.SalesOrderServiceDetail, len(so.ServiceDetails))
		for _, d := range so.ServiceDetails {
			soServices[d.ID] = d
		}
		returnedProducts, returnedServices, err := repos.SalesReturns.ReturnedQuantities(ctx, so.ID)
		if err != nil {
			return err
		}

		products := make([]model.SalesReturnProductDetail, 0, len(req.ProductDetails))
		for _, l := range req.ProductDetails {
			line, ok := soProducts[l.SalesOrderProductDetailID]
			if !ok {
				return apperror.Validationf("product line %s does not belong to sales order %s", l.SalesOrderProductDetailID, so.Code)
			}
			if err := boundReturn(returnedProducts, line.ID, line.Quantity, l.ReturnQuantity); err != nil {
				return err
			}
			d := model.SalesReturnProductDetail{
				SalesOrderProductDetailID: line.ID,
				ProductID:                 line.ProductID,
				ReturnPrice:               line.SellingPrice,
				ReturnQuantity:            l.ReturnQuantity,
				Reason:                    l.Reason,
			}
			d.CreatedBy = actor.ID
			d.UpdatedBy = actor.ID
			products = append(products, d)
		}

		services := make([]model.SalesReturnServiceDetail, 0, len(req.ServiceDetails))
		for _, l := range req.ServiceDetails {
			line, ok := soServices[l.SalesOrderServiceDetailID]
			if !ok {
				return apperror.Validationf("service line %s does not belong to sales order %s", l.SalesOrderServiceDetailID, so.Code)
			}
			if err := boundReturn(returnedServices, line.ID, line.Quantity, l.ReturnQuantity); err != nil {
				return err
			}
			d := model.SalesReturnServiceDetail{
				SalesOrderServiceDetailID: line.ID,
				ServiceName:               line.ServiceName,
				ReturnPrice:               line.SellingPrice,
				ReturnQuantity:            l.ReturnQuantity,
				Reason:                    l.Reason,
			}
			d.CreatedBy = actor.ID
			d.UpdatedBy = actor.ID
			services = append(services, d)
		}

		code, err := allocateCode(ctx, repos, model.PrefixSalesReturn)
		if err != nil {
			return err
		}
		sr := &model.SalesReturn{
			Code:           code,
			SalesOrderID:   so.ID,
			Status:         model.ReturnInProgress,
			Note:           req.Note,
			ProductDetails: products,
			ServiceDetails: services,
		}
		sr.CreatedBy = actor.ID
		sr.UpdatedBy = actor.ID
		if err := repos.SalesReturns.Create(ctx, sr); err != nil {
			return err
		}

		out, err = loadSalesReturn(ctx, repos, sr.ID)
		if err != nil {
			return err
		}
		publishAfterCommit(ctx, s.events, orderEvent("sales_return_created", sr.Code, actor, nil))
		return nil
	}, txn.WithLocks(salesOrderLock(req.SalesOrderID), sequenceLock(model.PrefixSalesReturn)))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// boundReturn adds qty to the running total for line and rejects it past the sold quantity.
func boundReturn(returned map[uuid.UUID]decimal.Decimal, line uuid.UUID, sold, qty decimal.Decimal) error {
	total := returned[line].Add(qty)
	if total.GreaterThan(sold) {
		return apperror.Validationf("return quantity for line %s exceeds sold quantity %s (already returned %s)",
			line, sold.String(), returned[line].String())
	}
	returned[line] = total
	return nil
}

func (s *salesService) GetSalesReturn(ctx context.Context, actor policy.Actor, id uuid.UUID) (*model.SalesReturn, error) {
	if err := begin(actor, policy.OpViewSalesReturn, nil); err != nil {
		return nil, err
	}
	var out *model.SalesReturn
	err := s.tx.Run(ctx, "sales_return.get", func(ctx context.Context, repos *repository.Repositories) error {
		var err error
		out, err = loadSalesReturn(ctx, repos, id)
		return err
	}, txn.ReadOnly())
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *salesService) FinishSalesReturn(ctx context.Context, actor policy.Actor, id uuid.UUID) (*model.SalesReturn, error) {
	if err := begin(actor, policy.OpFinishSalesReturn, nil); err != nil {
		return nil, err
	}

	var out *model.SalesReturn
	err := s.tx.Run(ctx, "sales_return.finish", func(ctx context.Context, repos *repository.Repositories) error {
		sr, err := repos.SalesReturns.LockByID(ctx, id)
		if err != nil {
			return lookup(err, "sales return", id)
		}
		if sr.Status != model.ReturnInProgress {
			return apperror.Forbiddenf("sales return %s is %s; only %s returns can be finished",
				sr.Code, sr.Status, model.ReturnInProgress)
		}
		so, err := repos.SalesOrders.LockByID(ctx, sr.SalesOrderID)
		if err != nil {
			return lookup(err, "sales order", sr.SalesOrderID)
		}
		if so.PaymentStatus == model.PaymentCancelled {
			return apperror.Forbiddenf("sales order %s is cancelled", so.Code)
		}

		var changes []stockChange
		if s.policy.ReturnRestock && len(sr.ProductDetails) > 0 {
			lines := make([]stockLine, 0, len(sr.ProductDetails))
			for _, d := range sr.ProductDetails {
				lines = append(lines, stockLine{ProductID: d.ProductID, Quantity: d.ReturnQuantity})
			}
			changes, err = moveStock(ctx, repos, actor.ID, sr.Code, lines, model.MovementIn)
			if err != nil {
				return err
			}
		}
		if err := repos.SalesReturns.UpdateStatus(ctx, id, model.ReturnFinished, actor.ID); err != nil {
			return err
		}

		out, err = loadSalesReturn(ctx, repos, id)
		if err != nil {
			return err
		}
		if len(changes) > 0 {
			publishAfterCommit(ctx, s.events, stockEvent("sales_return_finished", sr.Code, actor, changes))
		} else {
			publishAfterCommit(ctx, s.events, orderEvent("sales_return_finished", sr.Code, actor, nil))
		}
		return nil
	}, txn.WithLocks(entityLock("sales_return", id)))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *salesService) CancelSalesReturn(ctx context.Context, actor policy.Actor, id uuid.UUID) (*model.SalesReturn, error) {
	if err := begin(actor, policy.OpCancelSalesReturn, nil); err != nil {
		return nil, err
	}

	var out *model.SalesReturn
	err := s.tx.Run(ctx, "sales_return.cancel", func(ctx context.Context, repos *repository.Repositories) error {
		sr, err := repos.SalesReturns.LockByID(ctx, id)
		if err != nil {
			return lookup(err, "sales return", id)
		}
		if sr.Status != model.ReturnInProgress {
			return apperror.Forbiddenf("sales return %s is %s; only %s returns can be cancelled",
				sr.Code, sr.Status, model.ReturnInProgress)
		}
		if err := repos.SalesReturns.UpdateStatus(ctx, id, model.ReturnCancelled, actor.ID); err != nil {
			return err
		}
		out, err = loadSalesReturn(ctx, repos, id)
		if err != nil {
			return err
		}
		publishAfterCommit(ctx, s.events, orderEvent("sales_return_cancelled", sr.Code, actor, nil))
		return nil
	}, txn.WithLocks(entityLock("sales_return", id)))
	if err != nil {
		return nil, err
	}
	return out, nil
}
