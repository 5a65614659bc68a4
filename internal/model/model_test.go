package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductToResponseHidesPrices(t *testing.T) {
	p := Product{
		Code:              "PRD00000001",
		Stock:             decimal.NewFromInt(2),
		CostPrice:         decimal.NewFromInt(1200000),
		PurchasePrice:     decimal.NewFromInt(1250000),
		PurchasePriceCode: "T.AWI.III",
		RestockThreshold:  decimal.NewFromInt(3),
	}

	hidden := p.ToResponse(false)
	assert.Nil(t, hidden.CostPrice)
	assert.Nil(t, hidden.PurchasePrice)
	assert.Equal(t, "T.AWI.III", hidden.PurchasePriceCode)
	assert.True(t, hidden.NeedsRestock)

	shown := p.ToResponse(true)
	require.NotNil(t, shown.PurchasePrice)
	assert.True(t, shown.PurchasePrice.Equal(decimal.NewFromInt(1250000)))
}

func TestPaymentHistoryIsAppendOnly(t *testing.T) {
	p := &PaymentHistory{}
	require.NoError(t, p.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.ErrorIs(t, p.BeforeUpdate(nil), ErrPaymentImmutable)
	assert.ErrorIs(t, p.BeforeDelete(nil), ErrPaymentImmutable)
}

func TestBaseModelStamp(t *testing.T) {
	var b BaseModel
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	b.Stamp("user-1", now)
	assert.NotEqual(t, uuid.Nil, b.ID)
	assert.Equal(t, now, b.CreatedAt)
	assert.Equal(t, "user-1", b.CreatedBy)
	assert.Equal(t, "user-1", b.UpdatedBy)
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, ReturnReplaceGoods.Valid())
	assert.False(t, PurchaseReturnType("Tukar").Valid())
	assert.True(t, ParentSalesOrder.Valid())
	assert.False(t, PaymentParentType("pr").Valid())
	assert.True(t, IsCodePrefix("PRD"))
	assert.False(t, IsCodePrefix("XYZ"))
}
