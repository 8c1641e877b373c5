package repository

import (
	"errors"
	"fmt"
	"time"

	"velour/internal/domain"
	"velour/internal/models"

	"gorm.io/gorm"
)

// PayoutRepository owns the payout state machine rows and the reservation
// invariant: the sum of pending+processing payout amounts never exceeds
// the account balance. Reservation checks serialize against balance
// writers by bumping accounts.version inside the same DB transaction.
type PayoutRepository struct {
	db     *gorm.DB
	ledger *LedgerRepository
}

func NewPayoutRepository(db *gorm.DB, ledger *LedgerRepository) *PayoutRepository {
	return &PayoutRepository{db: db, ledger: ledger}
}

func (r *PayoutRepository) GetByID(id uint) (*models.Payout, error) {
	var p models.Payout
	if err := r.db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PayoutRepository) ListByAccount(accountID uint, page, pageSize int) ([]models.Payout, int64, error) {
	return r.list(r.db.Model(&models.Payout{}).Where("account_id = ?", accountID), page, pageSize)
}

func (r *PayoutRepository) ListByStatus(status string, page, pageSize int) ([]models.Payout, int64, error) {
	q := r.db.Model(&models.Payout{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return r.list(q, page, pageSize)
}

func (r *PayoutRepository) list(q *gorm.DB, page, pageSize int) ([]models.Payout, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	var total int64
	q.Count(&total)
	var list []models.Payout
	err := q.Order("created_at DESC, id DESC").Limit(pageSize).Offset((page - 1) * pageSize).Find(&list).Error
	return list, total, err
}

// SumReserved returns the total of pending+processing payout amounts.
func (r *PayoutRepository) SumReserved(accountID uint) (int64, error) {
	return sumReserved(r.db, accountID)
}

func sumReserved(tx *gorm.DB, accountID uint) (int64, error) {
	var sum struct{ Total int64 }
	err := tx.Model(&models.Payout{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("account_id = ? AND status IN ?", accountID, []string{domain.PayoutStatusPending, domain.PayoutStatusProcessing}).
		Scan(&sum).Error
	return sum.Total, err
}

// CreateReserved inserts a pending payout after re-checking the
// reservation invariant under the account's version, so concurrent
// requests cannot jointly exceed the balance. No ledger debit happens
// here; funds are only earmarked.
func (r *PayoutRepository) CreateReserved(p *models.Payout) error {
	if p.Amount <= 0 {
		return ErrInvalidAmount
	}
	return r.ledger.withConflictRetry(func(tx *gorm.DB) error {
		acc, err := bumpAccountVersion(tx, p.AccountID)
		if err != nil {
			return err
		}
		reserved, err := sumReserved(tx, p.AccountID)
		if err != nil {
			return err
		}
		if p.Amount > acc.CachedBalance-reserved {
			return ErrInsufficientCredits
		}
		p.Status = domain.PayoutStatusPending
		return tx.Create(p).Error
	})
}

// Approve moves pending -> processing, re-validating availability at
// approval time. ErrStaleBalance when the balance has raced below the
// requested amount since the payout was created.
func (r *PayoutRepository) Approve(payoutID uint) (*models.Payout, error) {
	var p models.Payout
	err := r.ledger.withConflictRetry(func(tx *gorm.DB) error {
		if err := tx.First(&p, payoutID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if domain.PayoutTerminal(p.Status) {
			return ErrAlreadyProcessed
		}
		if p.Status != domain.PayoutStatusPending {
			return fmt.Errorf("%w: approve requires a pending payout, got %s", ErrInvalidTransition, p.Status)
		}
		acc, err := bumpAccountVersion(tx, p.AccountID)
		if err != nil {
			return err
		}
		reserved, err := sumReserved(tx, p.AccountID)
		if err != nil {
			return err
		}
		// This payout is itself part of the reserved sum.
		if p.Amount > acc.CachedBalance-(reserved-p.Amount) {
			return ErrStaleBalance
		}
		return tx.Model(&p).Update("status", domain.PayoutStatusProcessing).Error
	})
	if err != nil {
		return nil, err
	}
	p.Status = domain.PayoutStatusProcessing
	return &p, nil
}

// CompleteWithDebit moves processing -> completed and appends the payout
// debit as one atomic unit. If the debit loses a balance race the payout
// flips to failed instead, the transaction still commits, and
// ErrStaleBalance surfaces. Completion and debit are never split.
func (r *PayoutRepository) CompleteWithDebit(payoutID uint) (*models.Payout, *models.CreditTransaction, error) {
	var p models.Payout
	var debit *models.CreditTransaction
	var stale bool
	err := r.ledger.withConflictRetry(func(tx *gorm.DB) error {
		stale = false
		debit = nil
		if err := tx.First(&p, payoutID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if domain.PayoutTerminal(p.Status) {
			return ErrAlreadyProcessed
		}
		if p.Status != domain.PayoutStatusProcessing {
			return fmt.Errorf("%w: complete requires a processing payout, got %s", ErrInvalidTransition, p.Status)
		}
		var err error
		debit, err = applyEntry(tx, Entry{
			AccountID:   p.AccountID,
			Type:        domain.TxPayout,
			Direction:   domain.DirectionDebit,
			Amount:      p.Amount,
			Source:      domain.SourcePayout,
			Description: "payout " + p.OrderID,
		})
		if errors.Is(err, ErrInsufficientCredits) {
			stale = true
			return tx.Model(&p).Updates(map[string]interface{}{
				"status": domain.PayoutStatusFailed,
				"reason": "balance insufficient at completion",
			}).Error
		}
		if err != nil {
			return err
		}
		now := time.Now()
		return tx.Model(&p).Updates(map[string]interface{}{
			"status":       domain.PayoutStatusCompleted,
			"processed_at": &now,
		}).Error
	})
	if err != nil {
		return nil, nil, err
	}
	if stale {
		p.Status = domain.PayoutStatusFailed
		return &p, nil, ErrStaleBalance
	}
	p.Status = domain.PayoutStatusCompleted
	return &p, debit, nil
}

// Fail moves pending|processing -> failed with a mandatory reason.
// No ledger effect; the reservation is simply released.
func (r *PayoutRepository) Fail(payoutID uint, reason string) (*models.Payout, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}
	var p models.Payout
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, payoutID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if domain.PayoutTerminal(p.Status) {
			return ErrAlreadyProcessed
		}
		return tx.Model(&p).Updates(map[string]interface{}{
			"status": domain.PayoutStatusFailed,
			"reason": reason,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	p.Status = domain.PayoutStatusFailed
	p.Reason = reason
	return &p, nil
}
