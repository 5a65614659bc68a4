package memory

import (
	"context"
	"sort"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type productRepo struct{ s *state }

func (r *productRepo) Create(_ context.Context, product *model.Product) error {
	for _, p := range r.s.products {
		if p.Code == product.Code {
			return duplicate("products", "code", product.Code)
		}
	}
	r.s.touch(&product.BaseModel)
	r.s.products[product.ID] = *product
	return nil
}

func (r *productRepo) FindAll(context.Context) ([]model.Product, error) {
	out := make([]model.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *productRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *productRepo) UpdateDetails(_ context.Context, product *model.Product) error {
	p, ok := r.s.products[product.ID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Name = product.Name
	p.UOM = product.UOM
	p.PurchasePrice = product.PurchasePrice
	p.PurchasePriceCode = product.PurchasePriceCode
	p.SellingPrice = product.SellingPrice
	p.RestockThreshold = product.RestockThreshold
	p.UpdatedBy = product.UpdatedBy
	p.UpdatedAt = r.s.now()
	r.s.products[p.ID] = p
	return nil
}

func (r *productRepo) LockByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	out := make(map[uuid.UUID]*model.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			out[id] = &p
		}
	}
	return out, nil
}

func (r *productRepo) UpdateStock(_ context.Context, id uuid.UUID, stock, costPrice decimal.Decimal, updatedBy string) error {
	p, ok := r.s.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	if stock.IsNegative() {
		return errStockCheck
	}
	p.Stock = stock
	p.CostPrice = costPrice
	p.UpdatedBy = updatedBy
	p.UpdatedAt = r.s.now()
	r.s.products[id] = p
	return nil
}

type supplierRepo struct{ s *state }

func (r *supplierRepo) Create(_ context.Context, supplier *model.Supplier) error {
	for _, x := range r.s.suppliers {
		if x.Code == supplier.Code {
			return duplicate("suppliers", "code", supplier.Code)
		}
	}
	r.s.touch(&supplier.BaseModel)
	r.s.suppliers[supplier.ID] = *supplier
	return nil
}

func (r *supplierRepo) FindAll(context.Context) ([]model.Supplier, error) {
	out := make([]model.Supplier, 0, len(r.s.suppliers))
	for _, x := range r.s.suppliers {
		out = append(out, x)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *supplierRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Supplier, error) {
	x, ok := r.s.suppliers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &x, nil
}

func (r *supplierRepo) Update(_ context.Context, supplier *model.Supplier) error {
	if _, ok := r.s.suppliers[supplier.ID]; !ok {
		return repository.ErrNotFound
	}
	supplier.UpdatedAt = r.s.now()
	r.s.suppliers[supplier.ID] = *supplier
	return nil
}

type customerRepo struct{ s *state }

func (r *customerRepo) Create(_ context.Context, customer *model.Customer) error {
	for _, x := range r.s.customers {
		if x.Code == customer.Code {
			return duplicate("customers", "code", customer.Code)
		}
	}
	r.s.touch(&customer.BaseModel)
	r.s.customers[customer.ID] = *customer
	return nil
}

func (r *customerRepo) FindAll(context.Context) ([]model.Customer, error) {
	out := make([]model.Customer, 0, len(r.s.customers))
	for _, x := range r.s.customers {
		out = append(out, x)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *customerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	x, ok := r.s.customers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &x, nil
}

func (r *customerRepo) Update(_ context.Context, customer *model.Customer) error {
	if _, ok := r.s.customers[customer.ID]; !ok {
		return repository.ErrNotFound
	}
	customer.UpdatedAt = r.s.now()
	r.s.customers[customer.ID] = *customer
	return nil
}
