package service

import (
	"testing"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pay(parentType model.PaymentParentType, id uuid.UUID, amount string) model.RecordPaymentRequest {
	return model.RecordPaymentRequest{ParentType: parentType, ParentID: id, Amount: d(amount), PaymentMethod: "transfer"}
}

func TestPaymentCannotExceedBalance(t *testing.T) {
	f := newFixture(t, SalesPolicy{})
	amp := f.product("Amplifier", "0", "0", "150")
	po := f.purchaseOrder(f.supplier(), poLine(amp, "10", "100"))

	summary, err := f.payments.RecordPayment(f.ctx, adminActor, pay(model.ParentPurchaseOrder, po.ID, "600"))
	require.NoError(t, err)
	assert.True(t, summary.PaidAmount.Equal(d("600")))
	assert.True(t, summary.UnpaidAmount.Equal(d("400")))
	assert.Equal(t, model.PaymentUnpaid, summary.PaymentStatus)

	_, err = f.payments.RecordPayment(f.ctx, adminActor, pay(model.ParentPurchaseOrder, po.ID, "500"))
	assertKind(t, err, apperror.KindForbidden)

	summary, err = f.payments.RecordPayment(f.ctx, adminActor, pay(model.ParentPurchaseOrder, po.ID, "400"))
	require.NoError(t, err)
	assert.True(t, summary.PaidAmount.Equal(d("1000")))
	assert.True(t, summary.UnpaidAmount.IsZero())
	assert.Equal(t, model.PaymentPaid, summary.PaymentStatus)
	assert.Len(t, summary.Histories, 2)

	_, err = f.payments.RecordPayment(f.ctx, adminActor, pay(model.ParentPurchaseOrder, po.ID, "1"))
	assertKind(t, err, apperror.KindForbidden)
}

func TestPartialPaymentKeepsStatus(t *testing.T) {
	f := newFixture(t, SalesPolicy{})
	speaker := f.product("Speaker", "20", "100", "100")
	so := f.salesOrder(f.customer(), []model.SalesOrderProductLineRequest{soLine(speaker, "10")}, nil)

	_, err := f.payments.RecordPayment(f.ctx, adminActor, pay(model.ParentSalesOrder, so.ID, "600"))
	require.NoError(t, err)
	summary, err := f.payments.RecordPayment(f.ctx, adminActor, pay(model.ParentSalesOrder, so.ID, "300"))
	require.NoError(t, err)
	assert.True(t, summary.PaidAmount.Equal(d("900")))
	assert.Equal(t, model.PaymentUnpaid, summary.PaymentStatus)

	view, err := f.sales.GetSalesOrder(f.ctx, staffActor, so.ID)
	require.NoError(t, err)
	assert.True(t, view.PaidAmount.Equal(d("900")))
	assert.True(t, view.UnpaidAmount.Equal(d("100")))
}

func TestPaymentRejections(t *testing.T) {
	f := newFixture(t, SalesPolicy{})
	amp := f.product("Amplifier", "0", "0", "150")
	po := f.purchaseOrder(f.supplier(), poLine(amp, "1", "100"))

	_, err := f.payments.RecordPayment(f.ctx, nobody, pay(model.ParentPurchaseOrder, po.ID, "0"))
	assertKind(t, err, apperror.KindUnauthorized)

	_, err = f.payments.RecordPayment(f.ctx, staffActor, pay(model.ParentPurchaseOrder, po.ID, "10"))
	assertKind(t, err, apperror.KindForbidden)

	_, err = f.payments.RecordPayment(f.ctx, adminActor, pay(model.ParentPurchaseOrder, uuid.New(), "0"))
	assertKind(t, err, apperror.KindValidation)

	_, err = f.payments.RecordPayment(f.ctx, adminActor, model.RecordPaymentRequest{ParentType: "xx", ParentID: po.ID, Amount: d("1"), PaymentMethod: "cash"})
	assertKind(t, err, apperror.KindValidation)

	_, err = f.payments.RecordPayment(f.ctx, adminActor, model.RecordPaymentRequest{ParentType: model.ParentPurchaseOrder, ParentID: po.ID, Amount: d("1")})
	assertKind(t, err, apperror.KindValidation)

	_, err = f.payments.RecordPayment(f.ctx, adminActor, pay(model.ParentPurchaseOrder, uuid.New(), "10"))
	assertKind(t, err, apperror.KindNotFound)

	_, err = f.purchases.CancelPurchaseOrder(f.ctx, adminActor, po.ID)
	require.NoError(t, err)
	_, err = f.payments.RecordPayment(f.ctx, adminActor, pay(model.ParentPurchaseOrder, po.ID, "10"))
	assertKind(t, err, apperror.KindForbidden)

	summary, err := f.payments.ListPayments(f.ctx, adminActor, model.ParentPurchaseOrder, po.ID)
	require.NoError(t, err)
	assert.Empty(t, summary.Histories)
	assert.True(t, summary.PaidAmount.IsZero())
}

func TestZeroValueOrderStartsSettled(t *testing.T) {
	f := newFixture(t, SalesPolicy{})
	gift := f.product("Sticker", "5", "0", "0")
	so := f.salesOrder(f.customer(), []model.SalesOrderProductLineRequest{soLine(gift, "1")}, nil)
	assert.Equal(t, model.PaymentPaid, so.PaymentStatus)

	_, err := f.payments.RecordPayment(f.ctx, adminActor, pay(model.ParentSalesOrder, so.ID, "1"))
	assertKind(t, err, apperror.KindForbidden)
}

func TestListPaymentsValidatesParent(t *testing.T) {
	f := newFixture(t, SalesPolicy{})
	_, err := f.payments.ListPayments(f.ctx, adminActor, "xx", uuid.New())
	assertKind(t, err, apperror.KindValidation)
	_, err = f.payments.ListPayments(f.ctx, adminActor, model.ParentSalesOrder, uuid.Nil)
	assertKind(t, err, apperror.KindValidation)
	_, err = f.payments.ListPayments(f.ctx, adminActor, model.ParentSalesOrder, uuid.New())
	assertKind(t, err, apperror.KindNotFound)
}
