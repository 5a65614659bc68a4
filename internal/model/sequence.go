package model

import "time"

// CodeSequence is the store-level counter behind sequential codes.
type CodeSequence struct {
	Prefix     string    `gorm:"type:varchar(10);primaryKey" json:"prefix"`
	LastNumber int64     `gorm:"not null" json:"last_number"`
	UpdatedAt  time.Time `json:"updated_at"`
}
