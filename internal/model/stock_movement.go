package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
)

// StockMovement logs one stock change caused by an order transition.
type StockMovement struct {
	BaseModel
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product        *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Type           MovementType    `gorm:"type:varchar(10);not null" json:"type"`
	Quantity       decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"quantity"`
	StockAfter     decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"stock_after"`
	CostPriceAfter decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"cost_price_after"`
	Reference      string          `gorm:"type:varchar(20);not null;index" json:"reference"`
}
