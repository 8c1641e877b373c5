package service

import (
	"errors"
	"fmt"
	"strconv"

	"velour/internal/domain"
	"velour/internal/events"
	"velour/internal/metrics"
	"velour/internal/models"
	"velour/internal/repository"

	"github.com/google/uuid"
)

// PayoutService runs the payout state machine:
// pending -> processing -> completed|failed, with failed also reachable
// from pending. Requests earmark funds via the reservation invariant;
// the ledger is only debited at completion.
type PayoutService struct {
	payouts *repository.PayoutRepository
	ledger  *repository.LedgerRepository
	audit   *repository.AuditLogRepository
	notif   *NotificationService
	events  *events.Publisher
}

func NewPayoutService(
	payouts *repository.PayoutRepository,
	ledger *repository.LedgerRepository,
	audit *repository.AuditLogRepository,
	notif *NotificationService,
	pub *events.Publisher,
) *PayoutService {
	return &PayoutService{payouts: payouts, ledger: ledger, audit: audit, notif: notif, events: pub}
}

// Request creates a pending payout for the account holder. The amount
// must not exceed availableForWithdrawal at creation time; the check is
// serialized against concurrent requests and spends.
func (s *PayoutService) Request(accountID uint, amount int64, method, details string) (*models.Payout, error) {
	if method == "" {
		return nil, fmt.Errorf("%w: payout method", repository.ErrReasonRequired)
	}
	p := &models.Payout{
		AccountID: accountID,
		OrderID:   "po-" + uuid.New().String(),
		Amount:    amount,
		Method:    method,
		Details:   details,
	}
	if err := s.payouts.CreateReserved(p); err != nil {
		if errors.Is(err, repository.ErrInsufficientCredits) {
			metrics.InsufficientCredits.Inc()
		}
		return nil, err
	}
	metrics.PayoutTransitions.WithLabelValues(domain.PayoutStatusPending).Inc()
	return p, nil
}

// Approve moves a pending payout to processing after re-validating the
// available balance.
func (s *PayoutService) Approve(payoutID, adminID uint) (*models.Payout, error) {
	p, err := s.payouts.Approve(payoutID)
	if err != nil {
		return nil, err
	}
	metrics.PayoutTransitions.WithLabelValues(domain.PayoutStatusProcessing).Inc()
	_ = s.audit.Record(adminID, domain.AuditPayoutApproved, "payout", strconv.FormatUint(uint64(payoutID), 10), "", "")
	s.notifyOwner(p)
	return p, nil
}

// Complete debits the ledger and finalizes the payout as one atomic unit.
// When the balance raced below the amount the payout auto-fails and
// ErrStaleBalance is returned; admins are alerted.
func (s *PayoutService) Complete(payoutID, adminID uint) (*models.Payout, error) {
	p, debit, err := s.payouts.CompleteWithDebit(payoutID)
	if errors.Is(err, repository.ErrStaleBalance) {
		metrics.PayoutTransitions.WithLabelValues(domain.PayoutStatusFailed).Inc()
		_ = s.audit.Record(adminID, domain.AuditPayoutFailed, "payout", strconv.FormatUint(uint64(payoutID), 10), p.Reason, "auto-failed on stale balance")
		s.events.PayoutFailed(p)
		s.notifyOwner(p)
		s.notif.NotifyAdmins("PAYOUT_STALE_BALANCE", "Payout auto-failed",
			fmt.Sprintf("Payout %s could not be completed: balance raced below %d credits.", p.OrderID, p.Amount),
			map[string]interface{}{"payout_id": p.ID, "order_id": p.OrderID})
		return p, err
	}
	if err != nil {
		return nil, err
	}
	metrics.PayoutTransitions.WithLabelValues(domain.PayoutStatusCompleted).Inc()
	metrics.TransactionsCommitted.WithLabelValues(domain.TxPayout).Inc()
	_ = s.audit.Record(adminID, domain.AuditPayoutCompleted, "payout", strconv.FormatUint(uint64(payoutID), 10), "", fmt.Sprintf("debit tx %d", debit.ID))
	s.events.PayoutCompleted(p)
	s.events.TransactionCompleted(debit)
	s.notifyOwner(p)
	return p, nil
}

// Fail rejects a pending or processing payout. Reason is mandatory and
// there is no ledger effect.
func (s *PayoutService) Fail(payoutID, adminID uint, reason string) (*models.Payout, error) {
	p, err := s.payouts.Fail(payoutID, reason)
	if err != nil {
		return nil, err
	}
	metrics.PayoutTransitions.WithLabelValues(domain.PayoutStatusFailed).Inc()
	_ = s.audit.Record(adminID, domain.AuditPayoutFailed, "payout", strconv.FormatUint(uint64(payoutID), 10), reason, "")
	s.events.PayoutFailed(p)
	s.notifyOwner(p)
	return p, nil
}

func (s *PayoutService) notifyOwner(p *models.Payout) {
	acc, err := s.ledger.GetAccount(p.AccountID)
	if err != nil {
		return
	}
	_ = s.notif.NotifyPayoutStatus(acc.OwnerID, p.OrderID, p.Status, p.Amount)
}
