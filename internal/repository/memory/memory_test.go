package memory

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func begin(t *testing.T, b *Backend) repository.Tx {
	t.Helper()
	tx, err := b.Begin(context.Background(), nil)
	require.NoError(t, err)
	return tx
}

func TestCommitPublishesAndRollbackDiscards(t *testing.T) {
	b := NewBackend()
	ctx := context.Background()

	tx := begin(t, b)
	require.NoError(t, tx.Repositories().Products.Create(ctx, &model.Product{Code: "PRD00000001", Name: "Amplifier"}))
	require.NoError(t, tx.Commit())

	tx = begin(t, b)
	require.NoError(t, tx.Repositories().Products.Create(ctx, &model.Product{Code: "PRD00000002", Name: "Speaker"}))
	require.NoError(t, tx.Rollback())

	tx = begin(t, b)
	defer tx.Rollback()
	products, err := tx.Repositories().Products.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Amplifier", products[0].Name)
}

func TestReadOnlyCommitDoesNotPublish(t *testing.T) {
	b := NewBackend()
	ctx := context.Background()

	tx, err := b.Begin(ctx, &sql.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	require.NoError(t, tx.Repositories().Suppliers.Create(ctx, &model.Supplier{Code: "SUP00000001", Name: "Yamaha"}))
	require.NoError(t, tx.Commit())

	tx = begin(t, b)
	defer tx.Rollback()
	suppliers, err := tx.Repositories().Suppliers.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, suppliers)
}

func TestBeginWaitsForSingleWriter(t *testing.T) {
	b := NewBackend()
	held := begin(t, b)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := b.Begin(ctx, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	busy := NewBackend(WithMaxWait(10 * time.Millisecond))
	busyHeld := begin(t, busy)
	_, err = busy.Begin(context.Background(), nil)
	assert.ErrorIs(t, err, repository.ErrBusy)
	require.NoError(t, busyHeld.Rollback())

	require.NoError(t, held.Rollback())
	require.NoError(t, held.Rollback())
	next := begin(t, b)
	assert.ErrorIs(t, held.Commit(), sql.ErrTxDone)
	require.NoError(t, next.Rollback())
}

func TestDuplicateCodeIsRejected(t *testing.T) {
	b := NewBackend()
	ctx := context.Background()
	tx := begin(t, b)
	defer tx.Rollback()

	repos := tx.Repositories()
	require.NoError(t, repos.Customers.Create(ctx, &model.Customer{Code: "CUS00000001", Name: "A"}))
	assert.Error(t, repos.Customers.Create(ctx, &model.Customer{Code: "CUS00000001", Name: "B"}))
}

func TestSequenceSeedsFromStoredCodes(t *testing.T) {
	b := NewBackend()
	ctx := context.Background()
	tx := begin(t, b)
	defer tx.Rollback()
	repos := tx.Repositories()

	n, err := repos.Sequences.Next(ctx, model.PrefixSupplier)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repos.Products.Create(ctx, &model.Product{Code: "PRD00000041", Name: "Legacy"}))
	n, err = repos.Sequences.Next(ctx, model.PrefixProduct)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	n, err = repos.Sequences.Next(ctx, model.PrefixProduct)
	require.NoError(t, err)
	assert.Equal(t, int64(43), n)

	_, err = repos.Sequences.Next(ctx, "XX")
	assert.Error(t, err)
}

func TestPurchaseReturnQuantitiesSkipCancelled(t *testing.T) {
	b := NewBackend()
	ctx := context.Background()
	tx := begin(t, b)
	defer tx.Rollback()
	repos := tx.Repositories()

	po := &model.PurchaseOrder{
		Code:   "PO00000001",
		Status: model.PurchaseOrderFinished,
		Details: []model.PurchaseOrderDetail{
			{Quantity: decimal.NewFromInt(5), PurchasePrice: decimal.NewFromInt(100)},
		},
	}
	require.NoError(t, repos.PurchaseOrders.Create(ctx, po))
	lineID := po.Details[0].ID

	for i, status := range []model.ReturnStatus{model.ReturnInProgress, model.ReturnCancelled, model.ReturnFinished} {
		pr := &model.PurchaseReturn{
			Code:            []string{"PR00000001", "PR00000002", "PR00000003"}[i],
			PurchaseOrderID: po.ID,
			Status:          status,
			Details: []model.PurchaseReturnDetail{
				{PurchaseOrderDetailID: lineID, ReturnQuantity: decimal.NewFromInt(2)},
			},
		}
		require.NoError(t, repos.PurchaseReturns.Create(ctx, pr))
	}

	returned, err := repos.PurchaseReturns.ReturnedQuantities(ctx, po.ID)
	require.NoError(t, err)
	assert.True(t, returned[lineID].Equal(decimal.NewFromInt(4)))

	loaded, err := repos.PurchaseOrders.FindByID(ctx, po.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Details, 1)
	assert.Equal(t, po.ID, loaded.Details[0].PurchaseOrderID)
}

func TestSalesReturnCodesByStatus(t *testing.T) {
	b := NewBackend()
	ctx := context.Background()
	tx := begin(t, b)
	defer tx.Rollback()
	repos := tx.Repositories()

	so := &model.SalesOrder{Code: "SO00000001", ProgressStatus: model.ProgressFinished, PaymentStatus: model.PaymentUnpaid}
	require.NoError(t, repos.SalesOrders.Create(ctx, so))
	other := &model.SalesOrder{Code: "SO00000002", ProgressStatus: model.ProgressFinished, PaymentStatus: model.PaymentUnpaid}
	require.NoError(t, repos.SalesOrders.Create(ctx, other))

	for _, sr := range []*model.SalesReturn{
		{Code: "SR00000001", SalesOrderID: so.ID, Status: model.ReturnFinished},
		{Code: "SR00000002", SalesOrderID: so.ID, Status: model.ReturnInProgress},
		{Code: "SR00000003", SalesOrderID: other.ID, Status: model.ReturnFinished},
		{Code: "SR00000004", SalesOrderID: so.ID, Status: model.ReturnFinished},
	} {
		require.NoError(t, repos.SalesReturns.Create(ctx, sr))
	}

	codes, err := repos.SalesReturns.CodesByStatus(ctx, so.ID, model.ReturnFinished)
	require.NoError(t, err)
	assert.Equal(t, []string{"SR00000001", "SR00000004"}, codes)

	codes, err = repos.SalesReturns.CodesByStatus(ctx, so.ID, model.ReturnCancelled)
	require.NoError(t, err)
	assert.Empty(t, codes)
}

func TestStockCannotGoNegative(t *testing.T) {
	b := NewBackend()
	ctx := context.Background()
	tx := begin(t, b)
	defer tx.Rollback()
	repos := tx.Repositories()

	p := &model.Product{Code: "PRD00000001", Name: "Cable"}
	require.NoError(t, repos.Products.Create(ctx, p))
	assert.Error(t, repos.Products.UpdateStock(ctx, p.ID, decimal.NewFromInt(-1), decimal.Zero, "u1"))
	assert.ErrorIs(t, repos.Products.UpdateStock(ctx, model.Product{}.ID, decimal.Zero, decimal.Zero, "u1"), repository.ErrNotFound)
}

func TestDashboardAggregates(t *testing.T) {
	day := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	b := NewBackend(WithClock(func() time.Time { return day }))
	ctx := context.Background()
	tx := begin(t, b)
	defer tx.Rollback()
	repos := tx.Repositories()

	low := &model.Product{Code: "PRD00000001", Name: "Tweeter", Stock: decimal.NewFromInt(2), CostPrice: decimal.NewFromInt(50), RestockThreshold: decimal.NewFromInt(5)}
	ok := &model.Product{Code: "PRD00000002", Name: "Woofer", Stock: decimal.NewFromInt(10), CostPrice: decimal.NewFromInt(100), RestockThreshold: decimal.NewFromInt(5)}
	require.NoError(t, repos.Products.Create(ctx, low))
	require.NoError(t, repos.Products.Create(ctx, ok))
	require.NoError(t, repos.StockMovements.Create(ctx, &model.StockMovement{ProductID: ok.ID, Type: model.MovementIn, Quantity: decimal.NewFromInt(10), Reference: "PO00000001"}))
	require.NoError(t, repos.StockMovements.Create(ctx, &model.StockMovement{ProductID: ok.ID, Type: model.MovementOut, Quantity: decimal.NewFromInt(3), Reference: "SO00000001"}))

	stats, err := repos.StockMovements.GetDashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalProducts)
	assert.Equal(t, int64(1), stats.LowStockCount)
	assert.True(t, stats.TotalValuation.Equal(decimal.NewFromInt(1100)))

	series, err := repos.StockMovements.GetStockMovement(ctx, day.Add(-time.Hour), day.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "2024-03-01", series[0].Date)
	assert.True(t, series[0].Inbound.Equal(decimal.NewFromInt(10)))
	assert.True(t, series[0].Outbound.Equal(decimal.NewFromInt(3)))

	history, err := repos.StockMovements.FindByProduct(ctx, ok.ID, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.MovementOut, history[0].Type)
}
