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

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MasterDataService maintains products, suppliers and customers.
// Stock and cost price are never taken from callers.
type MasterDataService interface {
	CreateProduct(ctx context.Context, actor policy.Actor, req model.ProductRequest) (*model.ProductResponse, error)
	UpdateProduct(ctx context.Context, actor policy.Actor, id uuid.UUID, req model.ProductRequest) (*model.ProductResponse, error)
	GetProduct(ctx context.Context, actor policy.Actor, id uuid.UUID) (*model.ProductResponse, error)
	ListProducts(ctx context.Context, actor policy.Actor) ([]model.ProductResponse, error)
	ListProductMovements(ctx context.Context, actor policy.Actor, id uuid.UUID, limit int) ([]model.StockMovement, error)

	CreateSupplier(ctx context.Context, actor policy.Actor, req model.PartyRequest) (*model.Supplier, error)
	UpdateSupplier(ctx context.Context, actor policy.Actor, id uuid.UUID, req model.PartyRequest) (*model.Supplier, error)
	ListSuppliers(ctx context.Context, actor policy.Actor) ([]model.Supplier, error)

	CreateCustomer(ctx context.Context, actor policy.Actor, req model.PartyRequest) (*model.Customer, error)
	UpdateCustomer(ctx context.Context, actor policy.Actor, id uuid.UUID, req model.PartyRequest) (*model.Customer, error)
	ListCustomers(ctx context.Context, actor policy.Actor) ([]model.Customer, error)
}

type masterDataService struct {
	tx     *txn.Coordinator
	events EventPublisher
}

func NewMasterDataService(tx *txn.Coordinator, events EventPublisher) MasterDataService {
	return &masterDataService{tx: tx, events: publisherOrDiscard(events)}
}

func showPrices(actor policy.Actor) bool {
	return policy.Allowed(policy.OpViewPurchasePrice, actor.Role)
}

func (s *masterDataService) CreateProduct(ctx context.Context, actor policy.Actor, req model.ProductRequest) (*model.ProductResponse, error) {
	if err := begin(actor, policy.OpManageMasterData, &req); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:              req.Name,
		UOM:               req.UOM,
		Stock:             decimal.Zero,
		CostPrice:         decimal.Zero,
		PurchasePrice:     req.PurchasePrice,
		PurchasePriceCode: pricing.EncodePriceCode(req.PurchasePrice),
		SellingPrice:      req.SellingPrice,
		RestockThreshold:  req.RestockThreshold,
	}
	product.CreatedBy = actor.ID
	product.UpdatedBy = actor.ID

	err := s.tx.Run(ctx, "product.create", func(ctx context.Context, repos *repository.Repositories) error {
		code, err := allocateCode(ctx, repos, model.PrefixProduct)
		if err != nil {
			return err
		}
		product.Code = code
		if err := repos.Products.Create(ctx, product); err != nil {
			return err
		}
		publishAfterCommit(ctx, s.events, ws.Event{
			Type:      "stock_update",
			Action:    "product_created",
			Reference: product.Code,
			Data:      map[string]interface{}{"id": product.ID, "name": product.Name, "stock": product.Stock},
			User:      eventActor(actor),
			Message:   fmt.Sprintf("%s created product '%s'", actor.Name, product.Name),
		})
		return nil
	}, txn.WithLocks(sequenceLock(model.PrefixProduct)))
	if err != nil {
		return nil, err
	}

	resp := product.ToResponse(showPrices(actor))
	return &resp, nil
}

func (s *masterDataService) UpdateProduct(ctx context.Context, actor policy.Actor, id uuid.UUID, req model.ProductRequest) (*model.ProductResponse, error) {
	if err := begin(actor, policy.OpManageMasterData, &req); err != nil {
		return nil, err
	}

	var updated *model.Product
	err := s.tx.Run(ctx, "product.update", func(ctx context.Context, repos *repository.Repositories) error {
		locked, err := repos.Products.LockByIDs(ctx, []uuid.UUID{id})
		if err != nil {
			return err
		}
		product, ok := locked[id]
		if !ok {
			return lookup(repository.ErrNotFound, "product", id)
		}

		product.Name = req.Name
		product.UOM = req.UOM
		product.PurchasePrice = req.PurchasePrice
		product.PurchasePriceCode = pricing.EncodePriceCode(req.PurchasePrice)
		product.SellingPrice = req.SellingPrice
		product.RestockThreshold = req.RestockThreshold
		product.UpdatedBy = actor.ID
		if err := repos.Products.UpdateDetails(ctx, product); err != nil {
			return err
		}
		updated, err = repos.Products.FindByID(ctx, id)
		return err
	}, txn.WithLocks(entityLock("product", id)))
	if err != nil {
		return nil, err
	}

	resp := updated.ToResponse(showPrices(actor))
	return &resp, nil
}

func (s *masterDataService) GetProduct(ctx context.Context, actor policy.Actor, id uuid.UUID) (*model.ProductResponse, error) {
	if err := begin(actor, policy.OpViewMasterData, nil); err != nil {
		return nil, err
	}
	var product *model.Product
	err := s.tx.Run(ctx, "product.get", func(ctx context.Context, repos *repository.Repositories) error {
		var err error
		product, err = repos.Products.FindByID(ctx, id)
		return lookup(err, "product", id)
	}, txn.ReadOnly())
	if err != nil {
		return nil, err
	}
	resp := product.ToResponse(showPrices(actor))
	return &resp, nil
}

func (s *masterDataService) ListProducts(ctx context.Context, actor policy.Actor) ([]model.ProductResponse, error) {
	if err := begin(actor, policy.OpViewMasterData, nil); err != nil {
		return nil, err
	}
	var products []model.Product
	err := s.tx.Run(ctx, "product.list", func(ctx context.Context, repos *repository.Repositories) error {
		var err error
		products, err = repos.Products.FindAll(ctx)
		return err
	}, txn.ReadOnly())
	if err != nil {
		return nil, err
	}

	show := showPrices(actor)
	out := make([]model.ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, products[i].ToResponse(show))
	}
	return out, nil
}

func (s *masterDataService) ListProductMovements(ctx context.Context, actor policy.Actor, id uuid.UUID, limit int) ([]model.StockMovement, error) {
	if err := begin(actor, policy.OpViewMasterData, nil); err != nil {
		return nil, err
	}
	var movements []model.StockMovement
	err := s.tx.Run(ctx, "product.movements", func(ctx context.Context, repos *repository.Repositories) error {
		if _, err := repos.Products.FindByID(ctx, id); err != nil {
			return lookup(err, "product", id)
		}
		var err error
		movements, err = repos.StockMovements.FindByProduct(ctx, id, limit)
		return err
	}, txn.ReadOnly())
	if err != nil {
		return nil, err
	}
	if !showPrices(actor) {
		for i := range movements {
			movements[i].CostPriceAfter = decimal.Zero
		}
	}
	return movements, nil
}

func (s *masterDataService) CreateSupplier(ctx context.Context, actor policy.Actor, req model.PartyRequest) (*model.Supplier, error) {
	if err := begin(actor, policy.OpManageMasterData, &req); err != nil {
		return nil, err
	}
	supplier := &model.Supplier{Name: req.Name, Phone: req.Phone, Address: req.Address}
	supplier.CreatedBy = actor.ID
	supplier.UpdatedBy = actor.ID

	err := s.tx.Run(ctx, "supplier.create", func(ctx context.Context, repos *repository.Repositories) error {
		code, err := allocateCode(ctx, repos, model.PrefixSupplier)
		if err != nil {
			return err
		}
		supplier.Code = code
		return repos.Suppliers.Create(ctx, supplier)
	}, txn.WithLocks(sequenceLock(model.PrefixSupplier)))
	if err != nil {
		return nil, err
	}
	return supplier, nil
}

func (s *masterDataService) UpdateSupplier(ctx context.Context, actor policy.Actor, id uuid.UUID, req model.PartyRequest) (*model.Supplier, error) {
	if err := begin(actor, policy.OpManageMasterData, &req); err != nil {
		return nil, err
	}
	var supplier *model.Supplier
	err := s.tx.Run(ctx, "supplier.update", func(ctx context.Context, repos *repository.Repositories) error {
		var err error
		supplier, err = repos.Suppliers.FindByID(ctx, id)
		if err != nil {
			return lookup(err, "supplier", id)
		}
		supplier.Name = req.Name
		supplier.Phone = req.Phone
		supplier.Address = req.Address
		supplier.UpdatedBy = actor.ID
		return repos.Suppliers.Update(ctx, supplier)
	}, txn.WithLocks(entityLock("supplier", id)))
	if err != nil {
		return nil, err
	}
	return supplier, nil
}

func (s *masterDataService) ListSuppliers(ctx context.Context, actor policy.Actor) ([]model.Supplier, error) {
	if err := begin(actor, policy.OpViewMasterData, nil); err != nil {
		return nil, err
	}
	var suppliers []model.Supplier
	err := s.tx.Run(ctx, "supplier.list", func(ctx context.Context, repos *repository.Repositories) error {
		var err error
		suppliers, err = repos.Suppliers.FindAll(ctx)
		return err
	}, txn.ReadOnly())
	return suppliers, err
}

func (s *masterDataService) CreateCustomer(ctx context.Context, actor policy.Actor, req model.PartyRequest) (*model.Customer, error) {
	if err := begin(actor, policy.OpManageMasterData, &req); err != nil {
		return nil, err
	}
	customer := &model.Customer{Name: req.Name, Phone: req.Phone, Address: req.Address}
	customer.CreatedBy = actor.ID
	customer.UpdatedBy = actor.ID

	err := s.tx.Run(ctx, "customer.create", func(ctx context.Context, repos *repository.Repositories) error {
		code, err := allocateCode(ctx, repos, model.PrefixCustomer)
		if err != nil {
			return err
		}
		customer.Code = code
		return repos.Customers.Create(ctx, customer)
	}, txn.WithLocks(sequenceLock(model.PrefixCustomer)))
	if err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *masterDataService) UpdateCustomer(ctx context.Context, actor policy.Actor, id uuid.UUID, req model.PartyRequest) (*model.Customer, error) {
	if err := begin(actor, policy.OpManageMasterData, &req); err != nil {
		return nil, err
	}
	var customer *model.Customer
	err := s.tx.Run(ctx, "customer.update", func(ctx context.Context, repos *repository.Repositories) error {
		var err error
		customer, err = repos.Customers.FindByID(ctx, id)
		if err != nil {
			return lookup(err, "customer", id)
		}
		customer.Name = req.Name
		customer.Phone = req.Phone
		customer.Address = req.Address
		customer.UpdatedBy = actor.ID
		return repos.Customers.Update(ctx, customer)
	}, txn.WithLocks(entityLock("customer", id)))
	if err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *masterDataService) ListCustomers(ctx context.Context, actor policy.Actor) ([]model.Customer, error) {
	if err := begin(actor, policy.OpViewMasterData, nil); err != nil {
		return nil, err
	}
	var customers []model.Customer
	err := s.tx.Run(ctx, "customer.list", func(ctx context.Context, repos *repository.Repositories) error {
		var err error
		customers, err = repos.Customers.FindAll(ctx)
		return err
	}, txn.ReadOnly())
	return customers, err
}
