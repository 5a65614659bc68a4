// Package memory is an in-process Ledger Store used for STORE_DRIVER=memory and in tests.
// Units of work run one at a time against a private copy of the state; commit swaps the copy in.
package memory

import (
	"errors"
	"fmt"
	"time"

	"go-pos-backoffice/internal/model"

	"github.com/google/uuid"
)

type state struct {
	products  map[uuid.UUID]model.Product
	suppliers map[uuid.UUID]model.Supplier
	customers map[uuid.UUID]model.Customer

	purchaseOrders        map[uuid.UUID]model.PurchaseOrder
	purchaseOrderDetails  []model.PurchaseOrderDetail
	purchaseReturns       map[uuid.UUID]model.PurchaseReturn
	purchaseReturnDetails []model.PurchaseReturnDetail

	salesOrders         map[uuid.UUID]model.SalesOrder
	salesOrderProducts  []model.SalesOrderProductDetail
	salesOrderServices  []model.SalesOrderServiceDetail
	salesReturns        map[uuid.UUID]model.SalesReturn
	salesReturnProducts []model.SalesReturnProductDetail
	salesReturnServices []model.SalesReturnServiceDetail

	payments  []model.PaymentHistory
	sequences map[string]int64
	movements []model.StockMovement

	users      map[uuid.UUID]model.User
	roles      []model.Role
	nextRoleID uint

	now func() time.Time
}

func newState(now func() time.Time) *state {
	return &state{
		products:        map[uuid.UUID]model.Product{},
		suppliers:       map[uuid.UUID]model.Supplier{},
		customers:       map[uuid.UUID]model.Customer{},
		purchaseOrders:  map[uuid.UUID]model.PurchaseOrder{},
		purchaseReturns: map[uuid.UUID]model.PurchaseReturn{},
		salesOrders:     map[uuid.UUID]model.SalesOrder{},
		salesReturns:    map[uuid.UUID]model.SalesReturn{},
		sequences:       map[string]int64{},
		users:           map[uuid.UUID]model.User{},
		nextRoleID:      1,
		now:             now,
	}
}

// clone copies every table. Rows are stored without associations, so a shallow copy of each row is enough.
func (s *state) clone() *state {
	c := *s
	c.products = cloneMap(s.products)
	c.suppliers = cloneMap(s.suppliers)
	c.customers = cloneMap(s.customers)
	c.purchaseOrders = cloneMap(s.purchaseOrders)
	c.purchaseOrderDetails = cloneSlice(s.purchaseOrderDetails)
	c.purchaseReturns = cloneMap(s.purchaseReturns)
	c.purchaseReturnDetails = cloneSlice(s.purchaseReturnDetails)
	c.salesOrders = cloneMap(s.salesOrders)
	c.salesOrderProducts = cloneSlice(s.salesOrderProducts)
	c.salesOrderServices = cloneSlice(s.salesOrderServices)
	c.salesReturns = cloneMap(s.salesReturns)
	c.salesReturnProducts = cloneSlice(s.salesReturnProducts)
	c.salesReturnServices = cloneSlice(s.salesReturnServices)
	c.payments = cloneSlice(s.payments)
	c.sequences = cloneMap(s.sequences)
	c.movements = cloneSlice(s.movements)
	c.users = cloneMap(s.users)
	c.roles = cloneSlice(s.roles)
	return &c
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSlice[T any](s []T) []T {
	return append([]T(nil), s...)
}

// touch assigns id and timestamps the way GORM does on insert.
func (s *state) touch(base *model.BaseModel) {
	base.EnsureID()
	now := s.now()
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	if base.UpdatedAt.IsZero() {
		base.UpdatedAt = now
	}
}

func duplicate(table, column, value string) error {
	return fmt.Errorf("duplicate key value violates unique constraint on %s.%s: %s", table, column, value)
}

// errStockCheck mirrors the products stock check constraint.
var errStockCheck = errors.New("new row for relation \"products\" violates check constraint \"chk_products_stock_non_negative\"")
