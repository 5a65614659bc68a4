package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrPaymentImmutable is returned for any attempt to change a recorded payment.
var ErrPaymentImmutable = errors.New("payment histories are append-only")

type PaymentParentType string

const (
	ParentPurchaseOrder PaymentParentType = "po"
	ParentSalesOrder    PaymentParentType = "so"
)

func (t PaymentParentType) Valid() bool {
	return t == ParentPurchaseOrder || t == ParentSalesOrder
}

// PaymentHistory is one money movement against a purchase or sales order.
type PaymentHistory struct {
	ID            uuid.UUID         `gorm:"type:uuid;primary_key;" json:"id"`
	ParentType    PaymentParentType `gorm:"type:varchar(10);not null;index:idx_payment_parent,priority:1" json:"parent_type"`
	ParentID      uuid.UUID         `gorm:"type:uuid;not null;index:idx_payment_parent,priority:2" json:"parent_id"`
	Amount        decimal.Decimal   `gorm:"type:numeric(20,4);not null;check:chk_payment_histories_amount_positive,amount > 0" json:"amount"`
	PaymentMethod string            `gorm:"type:varchar(30);not null" json:"payment_method"`
	CreatedBy     string            `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt     time.Time         `json:"created_at"`
}

func (p *PaymentHistory) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *PaymentHistory) BeforeUpdate(tx *gorm.DB) error {
	return ErrPaymentImmutable
}

func (p *PaymentHistory) BeforeDelete(tx *gorm.DB) error {
	return ErrPaymentImmutable
}

// PaymentSummary is the settlement state of one order.
type PaymentSummary struct {
	ParentType    PaymentParentType `json:"parent_type"`
	ParentID      uuid.UUID         `json:"parent_id"`
	ParentCode    string            `json:"parent_code"`
	GrandTotal    decimal.Decimal   `json:"grand_total"`
	PaidAmount    decimal.Decimal   `json:"paid_amount"`
	UnpaidAmount  decimal.Decimal   `json:"unpaid_amount"`
	PaymentStatus PaymentStatus     `json:"payment_status"`
	Histories     []PaymentHistory  `json:"histories"`
}
