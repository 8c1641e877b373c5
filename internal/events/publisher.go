package events

import (
	"encoding/json"
	"log"
	"time"

	"velour/internal/models"

	"github.com/nats-io/nats.go"
)

const (
	SubjectTransactionCompleted = "ledger.transaction.completed"
	SubjectPayoutCompleted      = "ledger.payout.completed"
	SubjectPayoutFailed         = "ledger.payout.failed"
)

type TransactionEvent struct {
	TransactionID uint      `json:"transaction_id"`
	AccountID     uint      `json:"account_id"`
	Type          string    `json:"type"`
	Direction     string    `json:"direction"`
	Amount        int64     `json:"amount"`
	Source        string    `json:"source,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type PayoutEvent struct {
	PayoutID  uint   `json:"payout_id"`
	AccountID uint   `json:"account_id"`
	OrderID   string `json:"order_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

// Publisher emits ledger events onto NATS for downstream consumers
// (analytics, reconciliation jobs). A nil Publisher is valid and drops
// everything; publishing is fire-and-forget and never blocks a ledger write.
type Publisher struct {
	nc *nats.Conn
}

// Connect dials NATS. An empty URL disables publishing.
func Connect(url string) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}
	nc, err := nats.Connect(url, nats.Name("velour-ledger"))
	if err != nil {
		return nil, err
	}
	return &Publisher{nc: nc}, nil
}

func (p *Publisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	p.nc.Close()
}

func (p *Publisher) TransactionCompleted(tx *models.CreditTransaction) {
	if p == nil {
		return
	}
	p.publish(SubjectTransactionCompleted, TransactionEvent{
		TransactionID: tx.ID,
		AccountID:     tx.AccountID,
		Type:          tx.Type,
		Direction:     tx.Direction,
		Amount:        tx.Amount,
		Source:        tx.Source,
		CreatedAt:     tx.CreatedAt,
	})
}

func (p *Publisher) PayoutCompleted(payout *models.Payout) {
	if p == nil {
		return
	}
	p.publish(SubjectPayoutCompleted, payoutEvent(payout))
}

func (p *Publisher) PayoutFailed(payout *models.Payout) {
	if p == nil {
		return
	}
	p.publish(SubjectPayoutFailed, payoutEvent(payout))
}

func payoutEvent(payout *models.Payout) PayoutEvent {
	return PayoutEvent{
		PayoutID:  payout.ID,
		AccountID: payout.AccountID,
		OrderID:   payout.OrderID,
		Amount:    payout.Amount,
		Status:    payout.Status,
		Reason:    payout.Reason,
	}
}

func (p *Publisher) publish(subject string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := p.nc.Publish(subject, data); err != nil {
		log.Printf("[Events] publish %s failed: %v", subject, err)
	}
}
