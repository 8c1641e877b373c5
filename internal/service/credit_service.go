package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"velour/internal/domain"
	"velour/internal/events"
	"velour/internal/metrics"
	"velour/internal/models"
	"velour/internal/repository"
	"velour/pkg/payment"

	"github.com/google/uuid"
)

// CreditService validates and orchestrates purchase, spend, refund,
// transfer and admin-adjustment semantics on top of the ledger repository.
// All balance changes go through the repository's atomic unit; this layer
// adds business validation, audit, notifications and events.
type CreditService struct {
	ledger   *repository.LedgerRepository
	packages *repository.CreditPackageRepository
	audit    *repository.AuditLogRepository
	notif    *NotificationService
	events   *events.Publisher
	provider payment.Provider
}

func NewCreditService(
	ledger *repository.LedgerRepository,
	packages *repository.CreditPackageRepository,
	audit *repository.AuditLogRepository,
	notif *NotificationService,
	pub *events.Publisher,
	provider payment.Provider,
) *CreditService {
	return &CreditService{
		ledger:   ledger,
		packages: packages,
		audit:    audit,
		notif:    notif,
		events:   pub,
		provider: provider,
	}
}

// InitiatePurchase creates a pending purchase transaction tied to a
// gateway payment. The gateway round-trip happens before any ledger
// write; nothing is credited until OnPaymentConfirmed.
func (s *CreditService) InitiatePurchase(ctx context.Context, accountID, packageID uint, callbackURL string) (*models.CreditTransaction, *payment.PaymentResponse, error) {
	pkg, err := s.packages.GetByID(packageID)
	if err != nil {
		return nil, nil, fmt.Errorf("load package: %w", err)
	}
	if !pkg.Active {
		return nil, nil, fmt.Errorf("%w: package %d is not purchasable", repository.ErrNotFound, packageID)
	}
	if err := s.provider.ValidateAmount(pkg.PriceCents); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", repository.ErrInvalidAmount, err)
	}
	orderID := "cp-" + uuid.New().String()
	resp, err := s.provider.InitiatePayment(ctx, payment.PaymentRequest{
		AccountID:   accountID,
		AmountCents: pkg.PriceCents,
		Currency:    pkg.Currency,
		OrderID:     orderID,
		Description: fmt.Sprintf("credit package %q (%d credits)", pkg.Name, pkg.CreditsAmount),
		CallbackURL: callbackURL,
		ExpiresIn:   30 * time.Minute,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("initiate payment: %w", err)
	}
	tx, err := s.ledger.CreatePending(repository.Entry{
		AccountID:  accountID,
		Type:       domain.TxPurchase,
		Direction:  domain.DirectionCredit,
		Amount:     pkg.CreditsAmount,
		Source:     domain.SourcePackage,
		PackageID:  &pkg.ID,
		PaymentRef: resp.Reference,
		Metadata:   fmt.Sprintf(`{"order_id":%q,"price_cents":%d}`, orderID, pkg.PriceCents),
	})
	if err != nil {
		return nil, nil, err
	}
	return tx, resp, nil
}

// OnPaymentConfirmed credits the pending purchase under the account's
// critical section. Idempotent: a confirmed ref yields ErrAlreadyProcessed.
func (s *CreditService) OnPaymentConfirmed(paymentRef string) (*models.CreditTransaction, error) {
	pending, err := s.ledger.GetByPaymentRef(paymentRef)
	if err != nil {
		return nil, err
	}
	tx, err := s.ledger.CompletePending(pending.ID)
	if err != nil {
		s.countFailure(err)
		return nil, err
	}
	metrics.TransactionsCommitted.WithLabelValues(domain.TxPurchase).Inc()
	s.events.TransactionCompleted(tx)
	if acc, err := s.ledger.GetAccount(tx.AccountID); err == nil {
		_ = s.notif.NotifyPaymentConfirmed(acc.OwnerID, tx.Amount, paymentRef)
		_ = s.audit.Record(acc.OwnerID, domain.AuditPaymentConfirmed, "transaction", strconv.FormatUint(uint64(tx.ID), 10), "", "gateway ref "+paymentRef)
	}
	return tx, nil
}

// OnPaymentFailed marks the pending purchase failed; no balance effect.
func (s *CreditService) OnPaymentFailed(paymentRef string) (*models.CreditTransaction, error) {
	pending, err := s.ledger.GetByPaymentRef(paymentRef)
	if err != nil {
		return nil, err
	}
	tx, err := s.ledger.FailPending(pending.ID)
	if err != nil {
		return nil, err
	}
	if acc, err := s.ledger.GetAccount(tx.AccountID); err == nil {
		_ = s.notif.NotifyPaymentFailed(acc.OwnerID, paymentRef)
	}
	return tx, nil
}

// CancelPurchase cancels the caller's own still-unconfirmed purchase.
// Nothing was ever credited, so cancellation is side-effect-free.
func (s *CreditService) CancelPurchase(txID, accountID uint) error {
	tx, err := s.ledger.GetTransaction(txID)
	if err != nil {
		return err
	}
	if tx.AccountID != accountID || tx.Type != domain.TxPurchase {
		return repository.ErrNotFound
	}
	_, err = s.ledger.CancelPending(txID)
	return err
}

// Spend appends a completed spend debit or fails with
// ErrInsufficientCredits.
func (s *CreditService) Spend(accountID uint, amount int64, description, source string) (*models.CreditTransaction, error) {
	tx, err := s.ledger.Apply(repository.Entry{
		AccountID:   accountID,
		Type:        domain.TxSpend,
		Direction:   domain.DirectionDebit,
		Amount:      amount,
		Source:      source,
		Description: description,
	})
	if err != nil {
		s.countFailure(err)
		return nil, err
	}
	metrics.TransactionsCommitted.WithLabelValues(domain.TxSpend).Inc()
	s.events.TransactionCompleted(tx)
	return tx, nil
}

// Refund issues the inverse-effect transaction for a completed ledger
// entry. A second call returns ErrAlreadyRefunded with no further effect.
func (s *CreditService) Refund(originalTxID, actorID uint, reason string) (*models.CreditTransaction, error) {
	refund, err := s.ledger.Refund(originalTxID, reason)
	if err != nil {
		s.countFailure(err)
		return nil, err
	}
	metrics.TransactionsCommitted.WithLabelValues(domain.TxRefund).Inc()
	s.events.TransactionCompleted(refund)
	_ = s.audit.Record(actorID, domain.AuditRefundIssued, "transaction", strconv.FormatUint(uint64(originalTxID), 10), reason, "")
	return refund, nil
}

// Transfer moves credits between two accounts as one atomic unit.
func (s *CreditService) Transfer(fromAccountID, toAccountID uint, amount int64, source, note string) (*models.CreditTransaction, *models.CreditTransaction, error) {
	if source == "" {
		source = domain.SourceTransfer
	}
	out, in, err := s.ledger.Transfer(fromAccountID, toAccountID, amount, source, note)
	if err != nil {
		s.countFailure(err)
		return nil, nil, err
	}
	metrics.TransactionsCommitted.WithLabelValues(domain.TxTransferOut).Inc()
	metrics.TransactionsCommitted.WithLabelValues(domain.TxTransferIn).Inc()
	s.events.TransactionCompleted(out)
	s.events.TransactionCompleted(in)
	if acc, err := s.ledger.GetAccount(toAccountID); err == nil {
		_ = s.notif.NotifyCreditsReceived(acc.OwnerID, amount, source)
	}
	return out, in, nil
}

// AdminAdjustment applies a signed balance correction. Reason is
// mandatory and the action is always audited.
func (s *CreditService) AdminAdjustment(accountID uint, amount int64, direction, reason string, adminID uint) (*models.CreditTransaction, error) {
	if reason == "" {
		return nil, repository.ErrReasonRequired
	}
	tx, err := s.ledger.Apply(repository.Entry{
		AccountID:   accountID,
		Type:        domain.TxAdminAdjustment,
		Direction:   direction,
		Amount:      amount,
		Source:      domain.SourceAdmin,
		Description: reason,
	})
	if err != nil {
		s.countFailure(err)
		return nil, err
	}
	metrics.TransactionsCommitted.WithLabelValues(domain.TxAdminAdjustment).Inc()
	s.events.TransactionCompleted(tx)
	_ = s.audit.Record(adminID, domain.AuditAdminAdjustment, "account", strconv.FormatUint(uint64(accountID), 10), reason, fmt.Sprintf("%s %d credits", direction, amount))
	if acc, err := s.ledger.GetAccount(accountID); err == nil {
		_ = s.notif.NotifyBalanceAdjusted(acc.OwnerID, amount, direction, reason)
	}
	return tx, nil
}

func (s *CreditService) countFailure(err error) {
	switch {
	case errors.Is(err, repository.ErrConflict):
		metrics.LedgerConflicts.Inc()
	case errors.Is(err, repository.ErrInsufficientCredits):
		metrics.InsufficientCredits.Inc()
	case errors.Is(err, repository.ErrIntegrityViolation):
		log.Printf("[ALARM] ledger operation aborted on integrity violation")
	}
}
