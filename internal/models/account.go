package models

import (
	"time"
)

// Account is a ledger entity (user or club) holding a credit balance.
// CachedBalance is always reconcilable from the transaction log; Version
// is bumped on every balance-affecting write and backs the optimistic
// compare-and-swap in the ledger repository.
type Account struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	OwnerID        uint       `gorm:"uniqueIndex;not null" json:"owner_id"`
	Kind           string     `gorm:"size:10;not null;default:'USER'" json:"kind"` // USER, CLUB
	CachedBalance  int64      `gorm:"not null;default:0" json:"balance"`
	TotalPurchased int64      `gorm:"not null;default:0" json:"total_purchased"`
	TotalSpent     int64      `gorm:"not null;default:0" json:"total_spent"`
	Version        int64      `gorm:"not null;default:0" json:"-"`
	LastPurchaseAt *time.Time `json:"last_purchase_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}
