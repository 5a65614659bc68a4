package model

// Role represents user roles in the system
type Role struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Code        string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // MASTER_ADMIN, ADMIN, STAFF
	Name        string `gorm:"type:varchar(100)" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

// Role codes as constants
const (
	RoleMasterAdmin = "MASTER_ADMIN"
	RoleAdmin       = "ADMIN"
	RoleStaff       = "STAFF"
)

// DefaultRoles defines the default roles in the system
var DefaultRoles = []Role{
	{
		Code:        RoleMasterAdmin,
		Name:        "Owner",
		Description: "Full access, including sales cancellation and purchase prices",
	},
	{
		Code:        RoleAdmin,
		Name:        "Administrator",
		Description: "Runs purchasing, sales and payments",
	},
	{
		Code:        RoleStaff,
		Name:        "Staff",
		Description: "Shop floor staff; sees price codes instead of purchase prices",
	},
}
