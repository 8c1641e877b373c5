package models

import (
	"time"
)

// CreditPackage is static catalog data, not ledger state.
type CreditPackage struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:100;not null" json:"name"`
	CreditsAmount int64     `gorm:"not null" json:"credits_amount"`
	PriceCents    int64     `gorm:"not null" json:"price_cents"`
	Currency      string    `gorm:"size:3;default:'EUR'" json:"currency"`
	Featured      bool      `gorm:"default:false" json:"featured"`
	Active        bool      `gorm:"default:true;index" json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (CreditPackage) TableName() string {
	return "credit_packages"
}
