package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "BelumDikerjakan"
	ProgressFinished   ProgressStatus = "Selesai"
)

// PaymentStatus tracks settlement of an order. Batal marks a cancelled sales order.
type PaymentStatus string

const (
	PaymentUnpaid    PaymentStatus = "BelumLunas"
	PaymentPaid      PaymentStatus = "Lunas"
	PaymentCancelled PaymentStatus = "Batal"
)

type SalesOrder struct {
	BaseModel
	Code           string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	CustomerID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer       *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	ProgressStatus ProgressStatus  `gorm:"type:varchar(20);not null;index" json:"progress_status"`
	PaymentStatus  PaymentStatus   `gorm:"column:status;type:varchar(20);not null;index" json:"status"`
	SubTotal       decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0" json:"sub_total"`
	Discount       decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0" json:"discount"`
	GrandTotal     decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0" json:"grand_total"`
	Note           string          `gorm:"type:text" json:"note"`

	ProductDetails   []SalesOrderProductDetail `gorm:"foreignKey:SalesOrderID" json:"product_details"`
	ServiceDetails   []SalesOrderServiceDetail `gorm:"foreignKey:SalesOrderID" json:"service_details"`
	PaymentHistories []PaymentHistory          `gorm:"polymorphic:Parent;polymorphicValue:so" json:"payment_histories,omitempty"`
}

type SalesOrderProductDetail struct {
	BaseModel
	SalesOrderID uuid.UUID       `gorm:"type:uuid;not null;index" json:"sales_order_id"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product      *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	SellingPrice decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"selling_price"`
	Quantity     decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"quantity"`
	TotalPrice   decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"total_price"`
}

// SalesOrderServiceDetail is installation or labour work; it never touches stock.
type SalesOrderServiceDetail struct {
	BaseModel
	SalesOrderID uuid.UUID       `gorm:"type:uuid;not null;index" json:"sales_order_id"`
	ServiceName  string          `gorm:"type:varchar(255);not null" json:"service_name"`
	SellingPrice decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"selling_price"`
	Quantity     decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"quantity"`
	TotalPrice   decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"total_price"`
}

// SalesReturn takes goods or services back from a customer. GrandTotal is derived.
type SalesReturn struct {
	BaseModel
	Code           string                     `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	SalesOrderID   uuid.UUID                  `gorm:"type:uuid;not null;index" json:"sales_order_id"`
	SalesOrder     *SalesOrder                `gorm:"foreignKey:SalesOrderID" json:"sales_order,omitempty"`
	Status         ReturnStatus               `gorm:"type:varchar(20);not null;index" json:"status"`
	Note           string                     `gorm:"type:text" json:"note"`
	ProductDetails []SalesReturnProductDetail `gorm:"foreignKey:SalesReturnID" json:"product_details"`
	ServiceDetails []SalesReturnServiceDetail `gorm:"foreignKey:SalesReturnID" json:"service_details"`

	GrandTotal decimal.Decimal `gorm:"-" json:"grand_total"`
}

type SalesReturnProductDetail struct {
	BaseModel
	SalesReturnID             uuid.UUID       `gorm:"type:uuid;not null;index" json:"sales_return_id"`
	SalesOrderProductDetailID uuid.UUID       `gorm:"type:uuid;not null;index" json:"sales_order_product_detail_id"`
	ProductID                 uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	ReturnPrice               decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"return_price"`
	ReturnQuantity            decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"return_quantity"`
	Reason                    string          `gorm:"type:text" json:"reason"`

	TotalPrice decimal.Decimal `gorm:"-" json:"total_price"`
}

type SalesReturnServiceDetail struct {
	BaseModel
	SalesReturnID             uuid.UUID       `gorm:"type:uuid;not null;index" json:"sales_return_id"`
	SalesOrderServiceDetailID uuid.UUID       `gorm:"type:uuid;not null;index" json:"sales_order_service_detail_id"`
	ServiceName               string          `gorm:"type:varchar(255);not null" json:"service_name"`
	ReturnPrice               decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"return_price"`
	ReturnQuantity            decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"return_quantity"`
	Reason                    string          `gorm:"type:text" json:"reason"`

	TotalPrice decimal.Decimal `gorm:"-" json:"total_price"`
}
