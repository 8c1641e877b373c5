package models

import (
	"time"
)

// AdminAction is one row of the append-only audit trail of privileged
// actions. Rows are never updated or deleted.
type AdminAction struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ActorID    uint      `gorm:"not null;index" json:"actor_id"`
	ActionType string    `gorm:"size:50;not null;index" json:"action_type"`
	TargetType string    `gorm:"size:30;index" json:"target_type"` // account, payout, transaction
	TargetID   string    `gorm:"size:100;index" json:"target_id"`
	Reason     string    `gorm:"size:255" json:"reason,omitempty"`
	Notes      string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (AdminAction) TableName() string {
	return "admin_actions"
}
