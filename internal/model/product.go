package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Code prefixes for sequential document and master-data codes.
const (
	PrefixProduct        = "PRD"
	PrefixSupplier       = "SUP"
	PrefixCustomer       = "CUS"
	PrefixPurchaseOrder  = "PO"
	PrefixPurchaseReturn = "PR"
	PrefixSalesOrder     = "SO"
	PrefixSalesReturn    = "SR"
)

// CodePrefixes lists every prefix the sequence counter will issue codes for.
var CodePrefixes = []string{
	PrefixProduct, PrefixSupplier, PrefixCustomer,
	PrefixPurchaseOrder, PrefixPurchaseReturn, PrefixSalesOrder, PrefixSalesReturn,
}

func IsCodePrefix(prefix string) bool {
	for _, p := range CodePrefixes {
		if p == prefix {
			return true
		}
	}
	return false
}

// Product is a stocked item. Stock and CostPrice are only written by order transitions.
// Cost and purchase price never leave the server directly; see ToResponse.
type Product struct {
	BaseModel
	Code              string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	Name              string          `gorm:"type:varchar(255);not null" json:"name"`
	UOM               string          `gorm:"type:varchar(20)" json:"uom"`
	Stock             decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0;check:chk_products_stock_non_negative,stock >= 0" json:"stock"`
	CostPrice         decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0" json:"-"`
	PurchasePrice     decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0" json:"-"`
	PurchasePriceCode string          `gorm:"type:varchar(50)" json:"purchase_price_code"`
	SellingPrice      decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0" json:"selling_price"`
	RestockThreshold  decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0" json:"restock_threshold"`
}

// ProductResponse hides cost and purchase price from roles that may only see the price code.
type ProductResponse struct {
	ID                uuid.UUID        `json:"id"`
	Code              string           `json:"code"`
	Name              string           `json:"name"`
	UOM               string           `json:"uom"`
	Stock             decimal.Decimal  `json:"stock"`
	CostPrice         *decimal.Decimal `json:"cost_price,omitempty"`
	PurchasePrice     *decimal.Decimal `json:"purchase_price,omitempty"`
	PurchasePriceCode string           `json:"purchase_price_code"`
	SellingPrice      decimal.Decimal  `json:"selling_price"`
	RestockThreshold  decimal.Decimal  `json:"restock_threshold"`
	NeedsRestock      bool             `json:"needs_restock"`
}

func (p *Product) NeedsRestock() bool {
	return p.Stock.LessThanOrEqual(p.RestockThreshold)
}

// ToResponse projects the product; showPrices exposes the numeric purchase and cost price.
func (p *Product) ToResponse(showPrices bool) ProductResponse {
	resp := ProductResponse{
		ID:                p.ID,
		Code:              p.Code,
		Name:              p.Name,
		UOM:               p.UOM,
		Stock:             p.Stock,
		PurchasePriceCode: p.PurchasePriceCode,
		SellingPrice:      p.SellingPrice,
		RestockThreshold:  p.RestockThreshold,
		NeedsRestock:      p.NeedsRestock(),
	}
	if showPrices {
		cost := p.CostPrice
		purchase := p.PurchasePrice
		resp.CostPrice = &cost
		resp.PurchasePrice = &purchase
	}
	return resp
}
