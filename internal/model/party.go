package model

// Supplier sells goods to the shop.
type Supplier struct {
	BaseModel
	Code    string `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	Phone   string `gorm:"type:varchar(30)" json:"phone"`
	Address string `gorm:"type:text" json:"address"`
}

// Customer buys goods and installation services.
type Customer struct {
	BaseModel
	Code    string `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	Phone   string `gorm:"type:varchar(30)" json:"phone"`
	Address string `gorm:"type:text" json:"address"`
}
