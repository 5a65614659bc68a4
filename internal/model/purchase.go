package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PurchaseOrderStatus string

const (
	PurchaseOrderInProgress PurchaseOrderStatus = "DalamProses"
	PurchaseOrderFinished   PurchaseOrderStatus = "Selesai"
	PurchaseOrderCancelled  PurchaseOrderStatus = "Dibatalkan"
)

type PurchaseOrder struct {
	BaseModel
	Code          string              `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	SupplierID    uuid.UUID           `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier      *Supplier           `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	Status        PurchaseOrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentStatus PaymentStatus       `gorm:"type:varchar(20);not null;default:'BelumLunas'" json:"payment_status"`
	GrandTotal    decimal.Decimal     `gorm:"type:numeric(20,4);not null;default:0" json:"grand_total"`
	Note          string              `gorm:"type:text" json:"note"`

	Details          []PurchaseOrderDetail `gorm:"foreignKey:PurchaseOrderID" json:"details"`
	PaymentHistories []PaymentHistory      `gorm:"polymorphic:Parent;polymorphicValue:po" json:"payment_histories,omitempty"`
}

type PurchaseOrderDetail struct {
	BaseModel
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_order_id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product         *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity        decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"quantity"`
	PurchasePrice   decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"purchase_price"`
	TotalPrice      decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"total_price"`
}

type PurchaseReturnType string

const (
	ReturnReplaceGoods PurchaseReturnType = "PenggantianBarang"
	ReturnRefund       PurchaseReturnType = "PengembalianDana"
	ReturnReceivable   PurchaseReturnType = "Piutang"
)

func (t PurchaseReturnType) Valid() bool {
	switch t {
	case ReturnReplaceGoods, ReturnRefund, ReturnReceivable:
		return true
	}
	return false
}

// ReturnStatus is shared by purchase and sales returns.
type ReturnStatus string

const (
	ReturnInProgress ReturnStatus = "DalamProses"
	ReturnFinished   ReturnStatus = "Selesai"
	ReturnCancelled  ReturnStatus = "Batal"
)

// PurchaseReturn sends goods back against a finished purchase order.
// GrandTotal is derived from the referenced purchase lines and never persisted.
type PurchaseReturn struct {
	BaseModel
	Code            string                 `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	PurchaseOrderID uuid.UUID              `gorm:"type:uuid;not null;index" json:"purchase_order_id"`
	PurchaseOrder   *PurchaseOrder         `gorm:"foreignKey:PurchaseOrderID" json:"purchase_order,omitempty"`
	ReturnType      PurchaseReturnType     `gorm:"type:varchar(30);not null" json:"return_type"`
	Status          ReturnStatus           `gorm:"type:varchar(20);not null;index" json:"status"`
	Note            string                 `gorm:"type:text" json:"note"`
	Details         []PurchaseReturnDetail `gorm:"foreignKey:PurchaseReturnID" json:"details"`

	GrandTotal decimal.Decimal `gorm:"-" json:"grand_total"`
}

type PurchaseReturnDetail struct {
	BaseModel
	PurchaseReturnID      uuid.UUID            `gorm:"type:uuid;not null;index" json:"purchase_return_id"`
	PurchaseOrderDetailID uuid.UUID            `gorm:"type:uuid;not null;index" json:"purchase_order_detail_id"`
	PurchaseOrderDetail   *PurchaseOrderDetail `gorm:"foreignKey:PurchaseOrderDetailID" json:"purchase_order_detail,omitempty"`
	ReturnQuantity        decimal.Decimal      `gorm:"type:numeric(20,4);not null" json:"return_quantity"`
	Reason                string               `gorm:"type:text" json:"reason"`

	TotalPrice decimal.Decimal `gorm:"-" json:"total_price"`
}
