package validator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type paymentInput struct {
	ParentID uuid.UUID       `validate:"uuid_required"`
	Amount   decimal.Decimal `validate:"dgt0"`
	Discount decimal.Decimal `validate:"dgte0"`
	Method   string          `validate:"required"`
}

func TestValidateStructDecimalRules(t *testing.T) {
	valid := paymentInput{
		ParentID: uuid.New(),
		Amount:   decimal.NewFromInt(400),
		Discount: decimal.Zero,
		Method:   "Tunai",
	}
	assert.Empty(t, ValidateStruct(valid))
	assert.Equal(t, "", FirstError(valid))

	zero := valid
	zero.Amount = decimal.Zero
	errs := ValidateStruct(zero)
	if assert.Len(t, errs, 1) {
		assert.Equal(t, "paymentInput.Amount", errs[0].FailedField)
		assert.Equal(t, "dgt0", errs[0].Tag)
	}

	negative := valid
	negative.Discount = decimal.NewFromInt(-1)
	assert.Contains(t, FirstError(negative), "dgte0")
}

func TestValidateStructUUIDRequired(t *testing.T) {
	in := paymentInput{Amount: decimal.NewFromInt(1), Method: "Transfer"}
	errs := ValidateStruct(in)
	if assert.Len(t, errs, 1) {
		assert.Equal(t, "uuid_required", errs[0].Tag)
	}
}
