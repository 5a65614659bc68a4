package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ProductRequest carries the client-editable product fields. Stock and cost price are absent on purpose.
type ProductRequest struct {
	Name             string          `json:"name" validate:"required,max=255"`
	UOM              string          `json:"uom" validate:"max=20"`
	PurchasePrice    decimal.Decimal `json:"purchase_price" validate:"dgte0"`
	SellingPrice     decimal.Decimal `json:"selling_price" validate:"dgte0"`
	RestockThreshold decimal.Decimal `json:"restock_threshold" validate:"dgte0"`
}

type PartyRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Phone   string `json:"phone" validate:"max=30"`
	Address string `json:"address"`
}

type PurchaseOrderLineRequest struct {
	ProductID     uuid.UUID       `json:"product_id" validate:"uuid_required"`
	Quantity      decimal.Decimal `json:"quantity" validate:"dgte0"`
	PurchasePrice decimal.Decimal `json:"purchase_price" validate:"dgte0"`
}

type CreatePurchaseOrderRequest struct {
	SupplierID uuid.UUID                  `json:"supplier_id" validate:"uuid_required"`
	Note       string                     `json:"note"`
	Details    []PurchaseOrderLineRequest `json:"details" validate:"required,min=1,dive"`
}

type PurchaseReturnLineRequest struct {
	PurchaseOrderDetailID uuid.UUID       `json:"purchase_order_detail_id" validate:"uuid_required"`
	ReturnQuantity        decimal.Decimal `json:"return_quantity" validate:"dgt0"`
	Reason                string          `json:"reason"`
}

type CreatePurchaseReturnRequest struct {
	PurchaseOrderID uuid.UUID                   `json:"purchase_order_id" validate:"uuid_required"`
	ReturnType      PurchaseReturnType          `json:"return_type" validate:"required,oneof=PenggantianBarang PengembalianDana Piutang"`
	Note            string                      `json:"note"`
	Details         []PurchaseReturnLineRequest `json:"details" validate:"required,min=1,dive"`
}

// SalesOrderProductLineRequest leaves SellingPrice nil to use the product's current selling price.
type SalesOrderProductLineRequest struct {
	ProductID    uuid.UUID        `json:"product_id" validate:"uuid_required"`
	Quantity     decimal.Decimal  `json:"quantity" validate:"dgt0"`
	SellingPrice *decimal.Decimal `json:"selling_price" validate:"omitempty,dgte0"`
}

type SalesOrderServiceLineRequest struct {
	ServiceName  string          `json:"service_name" validate:"required,max=255"`
	Quantity     decimal.Decimal `json:"quantity" validate:"dgt0"`
	SellingPrice decimal.Decimal `json:"selling_price" validate:"dgte0"`
}

type CreateSalesOrderRequest struct {
	CustomerID     uuid.UUID                      `json:"customer_id" validate:"uuid_required"`
	Discount       decimal.Decimal                `json:"discount" validate:"dgte0"`
	Note           string                         `json:"note"`
	ProductDetails []SalesOrderProductLineRequest `json:"product_details" validate:"dive"`
	ServiceDetails []SalesOrderServiceLineRequest `json:"service_details" validate:"dive"`
}

type SalesReturnProductLineRequest struct {
	SalesOrderProductDetailID uuid.UUID       `json:"sales_order_product_detail_id" validate:"uuid_required"`
	ReturnQuantity            decimal.Decimal `json:"return_quantity" validate:"dgt0"`
	Reason                    string          `json:"reason"`
}

type SalesReturnServiceLineRequest struct {
	SalesOrderServiceDetailID uuid.UUID       `json:"sales_order_service_detail_id" validate:"uuid_required"`
	ReturnQuantity            decimal.Decimal `json:"return_quantity" validate:"dgt0"`
	Reason                    string          `json:"reason"`
}

type CreateSalesReturnRequest struct {
	SalesOrderID   uuid.UUID                       `json:"sales_order_id" validate:"uuid_required"`
	Note           string                          `json:"note"`
	ProductDetails []SalesReturnProductLineRequest `json:"product_details" validate:"dive"`
	ServiceDetails []SalesReturnServiceLineRequest `json:"service_details" validate:"dive"`
}

type RecordPaymentRequest struct {
	ParentType    PaymentParentType `json:"parent_type" validate:"required,oneof=po so"`
	ParentID      uuid.UUID         `json:"parent_id" validate:"uuid_required"`
	Amount        decimal.Decimal   `json:"amount" validate:"dgt0"`
	PaymentMethod string            `json:"payment_method" validate:"required,max=30"`
}
