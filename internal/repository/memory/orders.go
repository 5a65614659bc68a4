package memory

import (
	"context"
	"sort"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type purchaseOrderRepo struct{ s *state }

func (r *purchaseOrderRepo) Create(_ context.Context, po *model.PurchaseOrder) error {
	for _, x := range r.s.purchaseOrders {
		if x.Code == po.Code {
			return duplicate("purchase_orders", "code", po.Code)
		}
	}
	r.s.touch(&po.BaseModel)
	for i := range po.Details {
		d := &po.Details[i]
		d.PurchaseOrderID = po.ID
		r.s.touch(&d.BaseModel)
		row := *d
		row.Product = nil
		r.s.purchaseOrderDetails = append(r.s.purchaseOrderDetails, row)
	}
	row := *po
	row.Details, row.Supplier, row.PaymentHistories = nil, nil, nil
	r.s.purchaseOrders[po.ID] = row
	return nil
}

func (r *purchaseOrderRepo) details(id uuid.UUID, withProduct bool) []model.PurchaseOrderDetail {
	out := []model.PurchaseOrderDetail{}
	for _, d := range r.s.purchaseOrderDetails {
		if d.PurchaseOrderID != id {
			continue
		}
		if withProduct {
			if p, ok := r.s.products[d.ProductID]; ok {
				d.Product = &p
			}
		}
		out = append(out, d)
	}
	return out
}

func (r *purchaseOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	po, ok := r.s.purchaseOrders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if sup, ok := r.s.suppliers[po.SupplierID]; ok {
		po.Supplier = &sup
	}
	po.Details = r.details(id, true)
	return &po, nil
}

func (r *purchaseOrderRepo) LockByID(_ context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	po, ok := r.s.purchaseOrders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	po.Details = r.details(id, false)
	return &po, nil
}

func (r *purchaseOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.PurchaseOrderStatus, updatedBy string) error {
	po, ok := r.s.purchaseOrders[id]
	if !ok {
		return repository.ErrNotFound
	}
	po.Status = status
	po.UpdatedBy = updatedBy
	po.UpdatedAt = r.s.now()
	r.s.purchaseOrders[id] = po
	return nil
}

func (r *purchaseOrderRepo) UpdatePaymentStatus(_ context.Context, id uuid.UUID, status model.PaymentStatus, updatedBy string) error {
	po, ok := r.s.purchaseOrders[id]
	if !ok {
		return repository.ErrNotFound
	}
	po.PaymentStatus = status
	po.UpdatedBy = updatedBy
	po.UpdatedAt = r.s.now()
	r.s.purchaseOrders[id] = po
	return nil
}

type purchaseReturnRepo struct{ s *state }

func (r *purchaseReturnRepo) Create(_ context.Context, pr *model.PurchaseReturn) error {
	for _, x := range r.s.purchaseReturns {
		if x.Code == pr.Code {
			return duplicate("purchase_returns", "code", pr.Code)
		}
	}
	r.s.touch(&pr.BaseModel)
	for i := range pr.Details {
		d := &pr.Details[i]
		d.PurchaseReturnID = pr.ID
		r.s.touch(&d.BaseModel)
		row := *d
		row.PurchaseOrderDetail = nil
		r.s.purchaseReturnDetails = append(r.s.purchaseReturnDetails, row)
	}
	row := *pr
	row.Details, row.PurchaseOrder = nil, nil
	r.s.purchaseReturns[pr.ID] = row
	return nil
}

func (r *purchaseReturnRepo) details(id uuid.UUID, withProduct bool) []model.PurchaseReturnDetail {
	lines := make(map[uuid.UUID]model.PurchaseOrderDetail, len(r.s.purchaseOrderDetails))
	for _, d := range r.s.purchaseOrderDetails {
		lines[d.ID] = d
	}
	out := []model.PurchaseReturnDetail{}
	for _, d := range r.s.purchaseReturnDetails {
		if d.PurchaseReturnID != id {
			continue
		}
		if line, ok := lines[d.PurchaseOrderDetailID]; ok {
			if withProduct {
				if p, ok := r.s.products[line.ProductID]; ok {
					line.Product = &p
				}
			}
			d.PurchaseOrderDetail = &line
		}
		out = append(out, d)
	}
	return out
}

func (r *purchaseReturnRepo) FindByID(_ context.Context, id uuid.UUID) (*model.PurchaseReturn, error) {
	pr, ok := r.s.purchaseReturns[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if po, ok := r.s.purchaseOrders[pr.PurchaseOrderID]; ok {
		pr.PurchaseOrder = &po
	}
	pr.Details = r.details(id, true)
	return &pr, nil
}

func (r *purchaseReturnRepo) LockByID(_ context.Context, id uuid.UUID) (*model.PurchaseReturn, error) {
	pr, ok := r.s.purchaseReturns[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	pr.Details = r.details(id, false)
	return &pr, nil
}

func (r *purchaseReturnRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.ReturnStatus, updatedBy string) error {
	pr, ok := r.s.purchaseReturns[id]
	if !ok {
		return repository.ErrNotFound
	}
	pr.Status = status
	pr.UpdatedBy = updatedBy
	pr.UpdatedAt = r.s.now()
	r.s.purchaseReturns[id] = pr
	return nil
}

func (r *purchaseReturnRepo) ReturnedQuantities(_ context.Context, purchaseOrderID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	out := map[uuid.UUID]decimal.Decimal{}
	for _, d := range r.s.purchaseReturnDetails {
		pr, ok := r.s.purchaseReturns[d.PurchaseReturnID]
		if !ok || pr.PurchaseOrderID != purchaseOrderID || pr.Status == model.ReturnCancelled {
			continue
		}
		out[d.PurchaseOrderDetailID] = out[d.PurchaseOrderDetailID].Add(d.ReturnQuantity)
	}
	return out, nil
}

type salesOrderRepo struct{ s *state }

func (r *salesOrderRepo) Create(_ context.Context, so *model.SalesOrder) error {
	for _, x := range r.s.salesOrders {
		if x.Code == so.Code {
			return duplicate("sales_orders", "code", so.Code)
		}
	}
	r.s.touch(&so.BaseModel)
	for i := range so.ProductDetails {
		d := &so.ProductDetails[i]
		d.SalesOrderID = so.ID
		r.s.touch(&d.BaseModel)
		row := *d
		row.Product = nil
		r.s.salesOrderProducts = append(r.s.salesOrderProducts, row)
	}
	for i := range so.ServiceDetails {
		d := &so.ServiceDetails[i]
		d.SalesOrderID = so.ID
		r.s.touch(&d.BaseModel)
		r.s.salesOrderServices = append(r.s.salesOrderServices, *d)
	}
	row := *so
	row.ProductDetails, row.ServiceDetails, row.Customer, row.PaymentHistories = nil, nil, nil, nil
	r.s.salesOrders[so.ID] = row
	return nil
}

func (r *salesOrderRepo) load(so *model.SalesOrder, withProduct bool) {
	so.ProductDetails = []model.SalesOrderProductDetail{}
	for _, d := range r.s.salesOrderProducts {
		if d.SalesOrderID != so.ID {
			continue
		}
		if withProduct {
			if p, ok := r.s.products[d.ProductID]; ok {
				d.Product = &p
			}
		}
		so.ProductDetails = append(so.ProductDetails, d)
	}
	so.ServiceDetails = []model.SalesOrderServiceDetail{}
	for _, d := range r.s.salesOrderServices {
		if d.SalesOrderID == so.ID {
			so.ServiceDetails = append(so.ServiceDetails, d)
		}
	}
}

func (r *salesOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.SalesOrder, error) {
	so, ok := r.s.salesOrders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if c, ok := r.s.customers[so.CustomerID]; ok {
		so.Customer = &c
	}
	r.load(&so, true)
	return &so, nil
}

func (r *salesOrderRepo) LockByID(_ context.Context, id uuid.UUID) (*model.SalesOrder, error) {
	so, ok := r.s.salesOrders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	r.load(&so, false)
	return &so, nil
}

func (r *salesOrderRepo) UpdateProgress(_ context.Context, id uuid.UUID, status model.ProgressStatus, updatedBy string) error {
	so, ok := r.s.salesOrders[id]
	if !ok {
		return repository.ErrNotFound
	}
	so.ProgressStatus = status
	so.UpdatedBy = updatedBy
	so.UpdatedAt = r.s.now()
	r.s.salesOrders[id] = so
	return nil
}

func (r *salesOrderRepo) UpdatePaymentStatus(_ context.Context, id uuid.UUID, status model.PaymentStatus, updatedBy string) error {
	so, ok := r.s.salesOrders[id]
	if !ok {
		return repository.ErrNotFound
	}
	so.PaymentStatus = status
	so.UpdatedBy = updatedBy
	so.UpdatedAt = r.s.now()
	r.s.salesOrders[id] = so
	return nil
}

type salesReturnRepo struct{ s *state }

func (r *salesReturnRepo) Create(_ context.Context, sr *model.SalesReturn) error {
	for _, x := range r.s.salesReturns {
		if x.Code == sr.Code {
			return duplicate("sales_returns", "code", sr.Code)
		}
	}
	r.s.touch(&sr.BaseModel)
	for i := range sr.ProductDetails {
		d := &sr.ProductDetails[i]
		d.SalesReturnID = sr.ID
		r.s.touch(&d.BaseModel)
		r.s.salesReturnProducts = append(r.s.salesReturnProducts, *d)
	}
	for i := range sr.ServiceDetails {
		d := &sr.ServiceDetails[i]
		d.SalesReturnID = sr.ID
		r.s.touch(&d.BaseModel)
		r.s.salesReturnServices = append(r.s.salesReturnServices, *d)
	}
	row := *sr
	row.ProductDetails, row.ServiceDetails, row.SalesOrder = nil, nil, nil
	r.s.salesReturns[sr.ID] = row
	return nil
}

func (r *salesReturnRepo) load(sr *model.SalesReturn) {
	sr.ProductDetails = []model.SalesReturnProductDetail{}
	for _, d := range r.s.salesReturnProducts {
		if d.SalesReturnID == sr.ID {
			sr.ProductDetails = append(sr.ProductDetails, d)
		}
	}
	sr.ServiceDetails = []model.SalesReturnServiceDetail{}
	for _, d := range r.s.salesReturnServices {
		if d.SalesReturnID == sr.ID {
			sr.ServiceDetails = append(sr.ServiceDetails, d)
		}
	}
}

func (r *salesReturnRepo) FindByID(_ context.Context, id uuid.UUID) (*model.SalesReturn, error) {
	sr, ok := r.s.salesReturns[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if so, ok := r.s.salesOrders[sr.SalesOrderID]; ok {
		sr.SalesOrder = &so
	}
	r.load(&sr)
	return &sr, nil
}

func (r *salesReturnRepo) LockByID(_ context.Context, id uuid.UUID) (*model.SalesReturn, error) {
	sr, ok := r.s.salesReturns[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	r.load(&sr)
	return &sr, nil
}

func (r *salesReturnRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.ReturnStatus, updatedBy string) error {
	sr, ok := r.s.salesReturns[id]
	if !ok {
		return repository.ErrNotFound
	}
	sr.Status = status
	sr.UpdatedBy = updatedBy
	sr.UpdatedAt = r.s.now()
	r.s.salesReturns[id] = sr
	return nil
}

func (r *salesReturnRepo) ReturnedQuantities(_ context.Context, salesOrderID uuid.UUID) (map[uuid.UUID]decimal.Decimal, map[uuid.UUID]decimal.Decimal, error) {
	counts := func(returnID uuid.UUID) bool {
		sr, ok := r.s.salesReturns[returnID]
		return ok && sr.SalesOrderID == salesOrderID && sr.Status != model.ReturnCancelled
	}
	products := map[uuid.UUID]decimal.Decimal{}
	for _, d := range r.s.salesReturnProducts {
		if counts(d.SalesReturnID) {
			products[d.SalesOrderProductDetailID] = products[d.SalesOrderProductDetailID].Add(d.ReturnQuantity)
		}
	}
	services := map[uuid.UUID]decimal.Decimal{}
	for _, d := range r.s.salesReturnServices {
		if counts(d.SalesReturnID) {
			services[d.SalesOrderServiceDetailID] = services[d.SalesOrderServiceDetailID].Add(d.ReturnQuantity)
		}
	}
	return products, services, nil
}

func (r *salesReturnRepo) CodesByStatus(_ context.Context, salesOrderID uuid.UUID, status model.ReturnStatus) ([]string, error) {
	rows := []model.SalesReturn{}
	for _, sr := range r.s.salesReturns {
		if sr.SalesOrderID == salesOrderID && sr.Status == status {
			rows = append(rows, sr)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].Code < rows[j].Code
		}
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
	codes := make([]string, 0, len(rows))
	for _, sr := range rows {
		codes = append(codes, sr.Code)
	}
	return codes, nil
}
