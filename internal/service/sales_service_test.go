package service

import (
	"testing"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) salesOrder(customerID uuid.UUID, products []model.SalesOrderProductLineRequest, services []model.SalesOrderServiceLineRequest) *SalesOrderView {
	f.t.Helper()
	so, err := f.sales.CreateSalesOrder(f.ctx, staffActor, model.CreateSalesOrderRequest{
		CustomerID:     customerID,
		ProductDetails: products,
		ServiceDetails: services,
	})
	require.NoError(f.t, err)
	return so
}

func soLine(productID uuid.UUID, qty string) model.SalesOrderProductLineRequest {
	return model.SalesOrderProductLineRequest{ProductID: productID, Quantity: d(qty)}
}

func TestCreateSalesOrderTotals(t *testing.T) {
	f := newFixture(t, SalesPolicy{})
	speaker := f.product("Speaker", "10", "100", "150")
	custom := d("120")

	so, err := f.sales.CreateSalesOrder(f.ctx, staffActor, model.CreateSalesOrderRequest{
		CustomerID: f.customer(),
		Discount:   d("50"),
		ProductDetails: []model.SalesOrderProductLineRequest{
			soLine(speaker, "2"),
			{ProductID: speaker, Quantity: d("1"), SellingPrice: &custom},
		},
		ServiceDetails: []model.SalesOrderServiceLineRequest{
			{ServiceName: "Car audio installation", Quantity: d("1"), SellingPrice: d("100")},
		},
	})
	require.NoError(t, err)

	assert.Regexp(t, `^SO\d{8}$`, so.Code)
	assert.Equal(t, model.ProgressNotStarted, so.ProgressStatus)
	assert.Equal(t, model.PaymentUnpaid, so.PaymentStatus)
	assert.True(t, so.ProductDetails[0].SellingPrice.Equal(d("150")))
	assert.True(t, so.ProductDetails[1].SellingPrice.Equal(d("120")))
	assert.True(t, so.SubTotal.Equal(d("520")), "sub total %s", so.SubTotal)
	assert.True(t, so.GrandTotal.Equal(d("470")), "grand total %s", so.GrandTotal)
	assert.True(t, so.UnpaidAmount.Equal(d("470")))
}

func TestCreateSalesOrderRejections(t *testing.T) {
	f := newFixture(t, SalesPolicy{})
	speaker := f.product("Speaker", "10", "100", "150")
	customerID := f.customer()

	_, err := f.sales.CreateSalesOrder(f.ctx, staffActor, model.CreateSalesOrderRequest{CustomerID: customerID})
	assertKind(t, err, apperror.KindValidation)

	_, err = f.sales.CreateSalesOrder(f.ctx, staffActor, model.CreateSalesOrderRequest{
		CustomerID:     customerID,
		Discount:       d("301"),
		ProductDetails: []model.SalesOrderProductLineRequest{soLine(speaker, "2")},
	})
	assertKind(t, err, apperror.KindValidation)

	_, err = f.sales.CreateSalesOrder(f.ctx, staffActor, model.CreateSalesOrderRequest{
		CustomerID:     uuid.New(),
		ProductDetails: []model.SalesOrderProductLineRequest{soLine(speaker, "2")},
	})
	assertKind(t, err, apperror.KindNotFound)

	_, err = f.sales.CreateSalesOrder(f.ctx, nobody, model.CreateSalesOrderRequest{})
	assertKind(t, err, apperror.KindUnauthorized)
}

func TestFinishSalesOrderTakesStock(t *testing.T) {
	f := newFixture(t, SalesPolicy{})
	speaker := f.product("Speaker", "10", "100", "150")
	so := f.salesOrder(f.customer(),
		[]model.SalesOrderProductLineRequest{soLine(speaker, "4")},
		[]model.SalesOrderServiceLineRequest{{ServiceName: "Tuning", Quantity: d("1"), SellingPrice: d("50")}},
	)

	done, err := f.sales.FinishSalesOrder(f.ctx, staffActor, so.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProgressFinished, done.ProgressStatus)

	p := f.stored(speaker)
	assert.True(t, p.Stock.Equal(d("6")))
	assert.True(t, p.CostPrice.Equal(d("100")))

	_, err = f.sales.FinishSalesOrder(f.ctx, staffActor, so.ID)
	assertKind(t, err, apperror.KindForbidden)
	assert.True(t, f.stored(speaker).Stock.Equal(d("6")))
}

func TestFinishSalesOrderRejectsInsufficientStock(t *testing.T) {
	f := newFixture(t, SalesPolicy{})
	speaker := f.product("Speaker", "5", "100", "150")
	tweeter := f.product("Tweeter", "1", "40", "70")
	so := f.salesOrder(f.customer(), []model.SalesOrderProductLineRequest{soLine(speaker, "2"), soLine(tweeter, "2")}, nil)

	_, err := f.sales.FinishSalesOrder(f.ctx, staffActor, so.ID)
	assertKind(t, err, apperror.KindForbidden)

	assert.True(t, f.stored(speaker).Stock.Equal(d("5")))
	assert.True(t, f.stored(tweeter).Stock.Equal(d("1")))
	again, err := f.sales.GetSalesOrder(f.ctx, staffActor, so.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProgressNotStarted, again.ProgressStatus)
}

func TestCancelSalesOrderIsOwnerOnly(t *testing.T) {
	f := newFixture(t, SalesPolicy{})
	speaker := f.product("Speaker", "5", "100", "150")
	so := f.salesOrder(f.customer(), []model.SalesOrderProductLineRequest{soLine(speaker, "2")}, nil)
	_, err := f.sales.FinishSalesOrder(f.ctx, staffActor, so.ID)
	require.NoError(t, err)

	_, err = f.sales.CancelSalesOrder(f.ctx, adminActor, so.ID)
	assertKind(t, err, apperror.KindForbidden)

	cancelled, err := f.sales.CancelSalesOrder(f.ctx, ownerActor, so.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCancelled, cancelled.PaymentStatus)
	assert.True(t, f.stored(speaker).Stock.Equal(d("3")), "no restock by default")

	_, err = f.sales.CancelSalesOrder(f.ctx, ownerActor, so.ID)
	assertKind(t, err, apperror.KindForbidden)
}

func TestCancelledSalesOrderCannotFinish(t *testing.T) {
	f := newFixture(t, SalesPolicy{})
	speaker := f.product("Speaker", "5", "100", "150")
	so := f.salesOrder(f.customer(), []model.SalesOrderProductLineRequest{soLine(speaker, "2")}, nil)

	_, err := f.sales.CancelSalesOrder(f.ctx, ownerActor, so.ID)
	require.NoError(t, err)
	_, err = f.sales.FinishSalesOrder(f.ctx, staffActor, so.ID)
	assertKind(t, err, apperror.KindForbidden)
	assert.True(t, f.stored(speaker).Stock.Equal(d("5")))
}

func TestCancelSalesOrderRestockPolicy(t *testing.T) {
	f := newFixture(t, SalesPolicy{CancelRestock: true})
	speaker := f.product("Speaker", "5", "100", "150")
	finished := f.salesOrder(f.customer(), []model.SalesOrderProductLineRequest{soLine(speaker, "2")}, nil)
	open := f.salesOrder(f.customer(), []model.SalesOrderProductLineRequest{soLine(speaker, "1")}, nil)
	_, err := f.sales.FinishSalesOrder(f.ctx, staffActor, finished.ID)
	require.NoError(t, err)
	assert.True(t, f.stored(speaker).Stock.Equal(d("3")))

	_, err = f.sales.CancelSalesOrder(f.ctx, ownerActor, finished.ID)
	require.NoError(t, err)
	assert.True(t, f.stored(speaker).Stock.Equal(d("5")))

	_, err = f.sales.CancelSalesOrder(f.ctx, ownerActor, open.ID)
	require.NoError(t, err)
	assert.True(t, f.stored(speaker).Stock.Equal(d("5")))
}

func TestSalesReturnSnapshotsPriceAndBoundsQuantity(t *testing.T) {
	f := newFixture(t, SalesPolicy{})
	speaker := f.product("Speaker", "10", "100", "150")
	so := f.salesOrder(f.customer(),
		[]model.SalesOrderProductLineRequest{soLine(speaker, "3")},
		[]model.SalesOrderServiceLineRequest{{ServiceName: "Installation", Quantity: d("1"), SellingPrice: d("80")}},
	)
	_, err := f.sales.FinishSalesOrder(f.ctx, staffActor, so.ID)
	require.NoError(t, err)

	_, err = f.master.UpdateProduct(f.ctx, adminActor, speaker, model.ProductRequest{Name: "Speaker", SellingPrice: d("400")})
	require.NoError(t, err)

	sr, err := f.sales.CreateSalesReturn(f.ctx, staffActor, model.CreateSalesReturnRequest{
		SalesOrderID: so.ID,
		ProductDetails: []model.SalesReturnProductLineRequest{
			{SalesOrderProductDetailID: so.ProductDetails[0].ID, ReturnQuantity: d("2"), Reason: "hum"},
		},
		ServiceDetails: []model.SalesReturnServiceLineRequest{
			{SalesOrderServiceDetailID: so.ServiceDetails[0].ID, ReturnQuantity: d("1")},
		},
	})
	require.NoError(t, err)
	assert.Regexp(t, `^SR\d{8}$`, sr.Code)
	assert.True(t, sr.ProductDetails[0].ReturnPrice.Equal(d("150")))
	assert.Equal(t, "Installation", sr.ServiceDetails[0].ServiceName)
	assert.True(t, sr.GrandTotal.Equal(d("380")), "grand total %s", sr.GrandTotal)

	_, err = f.sales.CreateSalesReturn(f.ctx, staffActor, model.CreateSalesReturnRequest{
		SalesOrderID: so.ID,
		ProductDetails: []model.SalesReturnProductLineRequest{
			{SalesOrderProductDetailID: so.ProductDetails[0].ID, ReturnQuantity: d("2")},
		},
	})
	assertKind(t, err, apperror.KindValidation)

	_, err = f.sales.CreateSalesReturn(f.ctx, staffActor, model.CreateSalesReturnRequest{SalesOrderID: so.ID})
	assertKind(t, err, apperror.KindValidation)
}

func TestSalesReturnAgainstCancelledOrder(t *testing.T) {
	f := newFixture(t, SalesPolicy{})
	speaker := f.product("Speaker", "10", "100", "150")
	so := f.salesOrder(f.customer(), []model.SalesOrderProductLineRequest{soLine(speaker, "1")}, nil)
	_, err := f.sales.CancelSalesOrder(f.ctx, ownerActor, so.ID)
	require.NoError(t, err)

	_, err = f.sales.CreateSalesReturn(f.ctx, staffActor, model.CreateSalesReturnRequest{
		SalesOrderID:   so.ID,
		ProductDetails: []model.SalesReturnProductLineRequest{{SalesOrderProductDetailID: so.ProductDetails[0].ID, ReturnQuantity: d("1")}},
	})
	assertKind(t, err, apperror.KindForbidden)
}

func TestFinishSalesReturnRestockPolicy(t *testing.T) {
	for _, tc := range []struct {
		name    string
		restock bool
		stock   string
	}{
		{name: "status only", restock: false, stock: "7"},
		{name: "restock", restock: true, stock: "9"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, SalesPolicy{ReturnRestock: tc.restock})
			speaker := f.product("Speaker", "10", "100", "150")
			so := f.salesOrder(f.customer(), []model.SalesOrderProductLineRequest{soLine(speaker, "3")}, nil)
			_, err := f.sales.FinishSalesOrder(f.ctx, staffActor, so.ID)
			require.NoError(t, err)

			sr, err := f.sales.CreateSalesReturn(f.ctx, staffActor, model.CreateSalesReturnRequest{
				SalesOrderID:   so.ID,
				ProductDetails: []model.SalesReturnProductLineRequest{{SalesOrderProductDetailID: so.ProductDetails[0].ID, ReturnQuantity: d("2")}},
			})
			require.NoError(t, err)

			_, err = f.sales.FinishSalesReturn(f.ctx, staffActor, sr.ID)
			assertKind(t, err, apperror.KindForbidden)

			done, err := f.sales.FinishSalesReturn(f.ctx, adminActor, sr.ID)
			require.NoError(t, err)
			assert.Equal(t, model.ReturnFinished, done.Status)
			assert.True(t, f.stored(speaker).Stock.Equal(d(tc.stock)))

			_, err = f.sales.CancelSalesReturn(f.ctx, adminActor, sr.ID)
			assertKind(t, err, apperror.KindForbidden)
		})
	}
}

func TestSalesReturnRequiresFinishedOrder(t *testing.T) {
	f := newFixture(t, SalesPolicy{ReturnRestock: true})
	speaker := f.product("Speaker", "10", "100", "150")
	so := f.salesOrder(f.customer(), []model.SalesOrderProductLineRequest{soLine(speaker, "3")}, nil)

	_, err := f.sales.CreateSalesReturn(f.ctx, staffActor, model.CreateSalesReturnRequest{
		SalesOrderID:   so.ID,
		ProductDetails: []model.SalesReturnProductLineRequest{{SalesOrderProductDetailID: so.ProductDetails[0].ID, ReturnQuantity: d("3")}},
	})
	assertKind(t, err, apperror.KindForbidden)
	assert.True(t, f.stored(speaker).Stock.Equal(d("10")))

	_, err = f.sales.FinishSalesOrder(f.ctx, staffActor, so.ID)
	require.NoError(t, err)
	assert.True(t, f.stored(speaker).Stock.Equal(d("7")))
}

func TestCancelSalesOrderRestocksNetOfFinishedReturns(t *testing.T) {
	for _, tc := range []struct {
		name          string
		returned      string
		afterReturn   string
		finishReturns bool
	}{
		{name: "fully returned", returned: "3", afterReturn: "10", finishReturns: true},
		{name: "partly returned", returned: "1", afterReturn: "8", finishReturns: true},
		{name: "return still open", returned: "3", afterReturn: "7", finishReturns: false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, SalesPolicy{CancelRestock: true, ReturnRestock: true})
			speaker := f.product("Speaker", "10", "100", "150")
			so := f.salesOrder(f.customer(), []model.SalesOrderProductLineRequest{soLine(speaker, "3")}, nil)
			_, err := f.sales.FinishSalesOrder(f.ctx, staffActor, so.ID)
			require.NoError(t, err)
			assert.True(t, f.stored(speaker).Stock.Equal(d("7")))

			sr, err := f.sales.CreateSalesReturn(f.ctx, staffActor, model.CreateSalesReturnRequest{
				SalesOrderID:   so.ID,
				ProductDetails: []model.SalesReturnProductLineRequest{{SalesOrderProductDetailID: so.ProductDetails[0].ID, ReturnQuantity: d(tc.returned)}},
			})
			require.NoError(t, err)
			if tc.finishReturns {
				_, err = f.sales.FinishSalesReturn(f.ctx, adminActor, sr.ID)
				require.NoError(t, err)
			}
			assert.True(t, f.stored(speaker).Stock.Equal(d(tc.afterReturn)), "stock %s", f.stored(speaker).Stock)

			_, err = f.sales.CancelSalesOrder(f.ctx, ownerActor, so.ID)
			require.NoError(t, err)
			assert.True(t, f.stored(speaker).Stock.Equal(d("10")), "stock %s", f.stored(speaker).Stock)
		})
	}
}

func TestFinishSalesReturnAfterOrderCancelled(t *testing.T) {
	f := newFixture(t, SalesPolicy{CancelRestock: true, ReturnRestock: true})
	speaker := f.product("Speaker", "10", "100", "150")
	so := f.salesOrder(f.customer(), []model.SalesOrderProductLineRequest{soLine(speaker, "3")}, nil)
	_, err := f.sales.FinishSalesOrder(f.ctx, staffActor, so.ID)
	require.NoError(t, err)

	sr, err := f.sales.CreateSalesReturn(f.ctx, staffActor, model.CreateSalesReturnRequest{
		SalesOrderID:   so.ID,
		ProductDetails: []model.SalesReturnProductLineRequest{{SalesOrderProductDetailID: so.ProductDetails[0].ID, ReturnQuantity: d("2")}},
	})
	require.NoError(t, err)
	_, err = f.sales.CancelSalesOrder(f.ctx, ownerActor, so.ID)
	require.NoError(t, err)
	assert.True(t, f.stored(speaker).Stock.Equal(d("10")))

	_, err = f.sales.FinishSalesReturn(f.ctx, adminActor, sr.ID)
	assertKind(t, err, apperror.KindForbidden)
	assert.True(t, f.stored(speaker).Stock.Equal(d("10")))

	_, err = f.sales.CancelSalesReturn(f.ctx, adminActor, sr.ID)
	require.NoError(t, err)
}
