package payment

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidAmount = errors.New("payment amount out of range")

type PaymentRequest struct {
	AccountID   uint
	AmountCents int64
	Currency    string
	OrderID     string // unique per purchase, echoed back on the webhook
	Description string
	CallbackURL string
	ExpiresIn   time.Duration
}

type PaymentResponse struct {
	Reference   string // gateway payment reference; keyed on the ledger row
	Status      string
	CheckoutURL string
	ExpiresAt   time.Time
}

// Provider is the seam to the external payment collaborator. The ledger
// never talks to a card network directly: it initiates here, then waits
// for the gateway's confirm/fail webhook.
type Provider interface {
	ValidateAmount(amountCents int64) error
	InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error)
	VerifyPayment(ctx context.Context, reference string) (bool, error)
}
