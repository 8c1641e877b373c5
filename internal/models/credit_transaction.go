package models

import (
	"time"
)

// CreditTransaction is an immutable ledger entry. Rows are never updated
// after creation except for the status column (pending -> completed|failed,
// completed -> refunded) and are never deleted, so the table has no soft
// delete and no UpdatedAt.
type CreditTransaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AccountID   uint      `gorm:"not null;index" json:"account_id"`
	Type        string    `gorm:"size:20;not null;index" json:"type"`
	Direction   string    `gorm:"size:10;not null" json:"direction"` // credit, debit
	Amount      int64     `gorm:"not null" json:"amount"`            // always positive
	Status      string    `gorm:"size:20;not null;index" json:"status"`
	Source      string    `gorm:"size:20;index" json:"source"`
	Description string    `gorm:"size:255" json:"description"`
	PackageID   *uint     `gorm:"index" json:"package_id,omitempty"`
	PaymentRef  string    `gorm:"size:128;index" json:"payment_ref,omitempty"`
	RelatedTxID *uint     `gorm:"index" json:"related_tx_id,omitempty"` // refund <-> original, transfer legs
	Metadata    string    `gorm:"type:text" json:"metadata,omitempty"`  // JSON
	CreatedAt   time.Time `json:"created_at"`

	Account Account `gorm:"foreignKey:AccountID" json:"-"`
}

func (CreditTransaction) TableName() string {
	return "credit_transactions"
}
