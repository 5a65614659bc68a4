package service

import (
	"context"
	"sync"
	"testing"

	"go-pos-backoffice/internal/config"
	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/policy"
	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/internal/repository/memory"
	"go-pos-backoffice/internal/txn"
	"go-pos-backoffice/internal/ws"
	"go-pos-backoffice/pkg/apperror"
	"go-pos-backoffice/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ownerActor = policy.Actor{ID: uuid.NewString(), Name: "Budi", Email: "owner@audio.test", Role: model.RoleMasterAdmin}
	adminActor = policy.Actor{ID: uuid.NewString(), Name: "Sari", Email: "admin@audio.test", Role: model.RoleAdmin}
	staffActor = policy.Actor{ID: uuid.NewString(), Name: "Andi", Email: "staff@audio.test", Role: model.RoleStaff}
	nobody     = policy.Actor{}
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

type recorder struct {
	mu     sync.Mutex
	events []ws.Event
}

func (r *recorder) Publish(event ws.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Action
	}
	return out
}

type fixture struct {
	t         *testing.T
	ctx       context.Context
	tx        *txn.Coordinator
	events    *recorder
	purchases PurchaseService
	sales     SalesService
	payments  PaymentService
	master    MasterDataService
	sequences SequenceService
	dashboard DashboardService
}

func newFixture(t *testing.T, salesPolicy SalesPolicy) *fixture {
	t.Helper()
	tx := txn.NewCoordinator(memory.NewBackend(), nil, config.DefaultTxConfig(), logger.Discard())
	events := &recorder{}
	return &fixture{
		t:         t,
		ctx:       context.Background(),
		tx:        tx,
		events:    events,
		purchases: NewPurchaseService(tx, events, config.DefaultCostPricePrecision),
		sales:     NewSalesService(tx, events, salesPolicy),
		payments:  NewPaymentService(tx, events),
		master:    NewMasterDataService(tx, events),
		sequences: NewSequenceService(tx),
		dashboard: NewDashboardService(tx),
	}
}

func (f *fixture) run(fn txn.UnitOfWork) {
	f.t.Helper()
	require.NoError(f.t, f.tx.Run(f.ctx, "fixture", fn))
}

func (f *fixture) supplier() uuid.UUID {
	f.t.Helper()
	s, err := f.master.CreateSupplier(f.ctx, adminActor, model.PartyRequest{Name: "PT Sumber Suara"})
	require.NoError(f.t, err)
	return s.ID
}

func (f *fixture) customer() uuid.UUID {
	f.t.Helper()
	c, err := f.master.CreateCustomer(f.ctx, adminActor, model.PartyRequest{Name: "Toko Dengar"})
	require.NoError(f.t, err)
	return c.ID
}

// product stores a product with stock and cost already in place.
func (f *fixture) product(name, stock, cost, selling string) uuid.UUID {
	f.t.Helper()
	p := &model.Product{
		Name:          name,
		Stock:         d(stock),
		CostPrice:     d(cost),
		PurchasePrice: d(cost),
		SellingPrice:  d(selling),
	}
	f.run(func(ctx context.Context, repos *repository.Repositories) error {
		code, err := allocateCode(ctx, repos, model.PrefixProduct)
		if err != nil {
			return err
		}
		p.Code = code
		return repos.Products.Create(ctx, p)
	})
	return p.ID
}

func (f *fixture) stored(id uuid.UUID) model.Product {
	f.t.Helper()
	var p *model.Product
	f.run(func(ctx context.Context, repos *repository.Repositories) error {
		var err error
		p, err = repos.Products.FindByID(ctx, id)
		return err
	})
	return *p
}

func (f *fixture) purchaseOrder(supplierID uuid.UUID, lines ...model.PurchaseOrderLineRequest) *PurchaseOrderView {
	f.t.Helper()
	po, err := f.purchases.CreatePurchaseOrder(f.ctx, adminActor, model.CreatePurchaseOrderRequest{
		SupplierID: supplierID,
		Details:    lines,
	})
	require.NoError(f.t, err)
	return po
}

func poLine(productID uuid.UUID, qty, price string) model.PurchaseOrderLineRequest {
	return model.PurchaseOrderLineRequest{ProductID: productID, Quantity: d(qty), PurchasePrice: d(price)}
}

func assertKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperror.KindOf(err), "error: %v", err)
}

func TestBeginChecksIdentityBeforeValidation(t *testing.T) {
	err := begin(nobody, policy.OpCreatePurchaseOrder, &model.CreatePurchaseOrderRequest{})
	assertKind(t, err, apperror.KindUnauthorized)

	err = begin(staffActor, policy.OpCreatePurchaseOrder, &model.CreatePurchaseOrderRequest{})
	assertKind(t, err, apperror.KindForbidden)

	err = begin(adminActor, policy.OpCreatePurchaseOrder, &model.CreatePurchaseOrderRequest{})
	assertKind(t, err, apperror.KindValidation)
}

func TestEventsArePublishedOnlyAfterCommit(t *testing.T) {
	f := newFixture(t, SalesPolicy{})
	productID := f.product("Speaker", "1", "100", "150")
	so, err := f.sales.CreateSalesOrder(f.ctx, staffActor, model.CreateSalesOrderRequest{
		CustomerID:     f.customer(),
		ProductDetails: []model.SalesOrderProductLineRequest{{ProductID: productID, Quantity: d("2")}},
	})
	require.NoError(t, err)
	before := len(f.events.actions())

	_, err = f.sales.FinishSalesOrder(f.ctx, staffActor, so.ID)
	assertKind(t, err, apperror.KindForbidden)
	assert.Len(t, f.events.actions(), before)
}
