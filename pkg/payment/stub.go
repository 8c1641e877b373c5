package payment

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// StubProvider is a no-op provider for development; replace with a real
// gateway integration. It accepts any amount between 1 cent and 10k EUR.
type StubProvider struct{}

func (s *StubProvider) ValidateAmount(amountCents int64) error {
	if amountCents <= 0 || amountCents > 1_000_000 {
		return ErrInvalidAmount
	}
	return nil
}

func (s *StubProvider) InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	if err := s.ValidateAmount(req.AmountCents); err != nil {
		return nil, err
	}
	ref := fmt.Sprintf("stub_%d_%d", time.Now().UnixNano(), req.AccountID)
	return &PaymentResponse{
		Reference:   ref,
		Status:      "PENDING",
		CheckoutURL: "",
		ExpiresAt:   time.Now().Add(req.ExpiresIn),
	}, nil
}

func (s *StubProvider) VerifyPayment(ctx context.Context, reference string) (bool, error) {
	return strings.HasPrefix(reference, "stub_"), nil
}
