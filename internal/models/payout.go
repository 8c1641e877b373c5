package models

import (
	"time"
)

// Payout is a request to convert credits into external currency. It is
// created by the account holder and only ever mutated by admin-invoked
// state transitions; completed/failed are terminal.
type Payout struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	AccountID   uint       `gorm:"not null;index" json:"account_id"`
	OrderID     string     `gorm:"size:64;uniqueIndex;not null" json:"order_id"`
	Amount      int64      `gorm:"not null" json:"amount"`
	Status      string     `gorm:"size:20;not null;index" json:"status"`
	Method      string     `gorm:"size:30;not null" json:"method"` // bank, mpesa, crypto, ...
	Details     string     `gorm:"type:text" json:"details"`       // method-specific payout target
	Reason      string     `gorm:"size:255" json:"reason,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`

	Account Account `gorm:"foreignKey:AccountID" json:"-"`
}

func (Payout) TableName() string {
	return "payouts"
}
