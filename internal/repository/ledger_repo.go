package repository

import (
	"errors"
	"fmt"
	"log"
	"time"

	"velour/internal/domain"
	"velour/internal/models"

	"gorm.io/gorm"
)

// LedgerRepository owns all balance-changing writes. Every mutation runs
// as one atomic unit: read account, validate, insert transaction row,
// compare-and-swap cached_balance/version. A lost CAS rolls the whole
// unit back and is retried with backoff up to maxAttempts, after which
// ErrConflict surfaces to the caller.
type LedgerRepository struct {
	db          *gorm.DB
	maxAttempts int
	backoff     time.Duration
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db, maxAttempts: 5, backoff: 5 * time.Millisecond}
}

// Entry describes one balance-affecting ledger append.
type Entry struct {
	AccountID   uint
	Type        string
	Direction   string // domain.DirectionCredit | domain.DirectionDebit
	Amount      int64
	Source      string
	Description string
	PackageID   *uint
	PaymentRef  string
	RelatedTxID *uint
	Metadata    string
}

// BalanceSnapshot is the committed read view of an account.
type BalanceSnapshot struct {
	AccountID      uint       `json:"account_id"`
	Balance        int64      `json:"balance"`
	TotalPurchased int64      `json:"total_purchased"`
	TotalSpent     int64      `json:"total_spent"`
	LastPurchaseAt *time.Time `json:"last_purchase_at"`
}

func (r *LedgerRepository) GetAccount(accountID uint) (*models.Account, error) {
	var acc models.Account
	if err := r.db.First(&acc, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &acc, nil
}

func (r *LedgerRepository) GetAccountByOwner(ownerID uint) (*models.Account, error) {
	var acc models.Account
	err := r.db.Where("owner_id = ?", ownerID).First(&acc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &acc, nil
}

func (r *LedgerRepository) GetOrCreateAccount(ownerID uint, kind string) (*models.Account, error) {
	acc, err := r.GetAccountByOwner(ownerID)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	acc = &models.Account{OwnerID: ownerID, Kind: kind}
	if err := r.db.Create(acc).Error; err != nil {
		return nil, err
	}
	return acc, nil
}

// GetBalance returns the latest committed snapshot; it takes no locks.
func (r *LedgerRepository) GetBalance(accountID uint) (*BalanceSnapshot, error) {
	acc, err := r.GetAccount(accountID)
	if err != nil {
		return nil, err
	}
	return &BalanceSnapshot{
		AccountID:      acc.ID,
		Balance:        acc.CachedBalance,
		TotalPurchased: acc.TotalPurchased,
		TotalSpent:     acc.TotalSpent,
		LastPurchaseAt: acc.LastPurchaseAt,
	}, nil
}

// GetHistory returns the account's transactions newest first. Pure offset
// pagination: the sequence is restartable from any page.
func (r *LedgerRepository) GetHistory(accountID uint, page, pageSize int) ([]models.CreditTransaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	q := r.db.Model(&models.CreditTransaction{}).Where("account_id = ?", accountID)
	var total int64
	q.Count(&total)
	var list []models.CreditTransaction
	err := q.Order("created_at DESC, id DESC").Limit(pageSize).Offset((page - 1) * pageSize).Find(&list).Error
	return list, total, err
}

func (r *LedgerRepository) GetTransaction(id uint) (*models.CreditTransaction, error) {
	var t models.CreditTransaction
	if err := r.db.First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *LedgerRepository) GetByPaymentRef(ref string) (*models.CreditTransaction, error) {
	var t models.CreditTransaction
	err := r.db.Where("payment_ref = ?", ref).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// CreatePending inserts a pending transaction row with no balance effect.
// Used for purchases awaiting gateway confirmation.
func (r *LedgerRepository) CreatePending(e Entry) (*models.CreditTransaction, error) {
	if e.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	row := rowFromEntry(e, domain.TxStatusPending)
	if err := r.db.Create(row).Error; err != nil {
		return nil, fmt.Errorf("create pending transaction: %w", err)
	}
	return row, nil
}

// Apply appends a completed transaction and moves the balance in one
// atomic unit.
func (r *LedgerRepository) Apply(e Entry) (*models.CreditTransaction, error) {
	var row *models.CreditTransaction
	err := r.withConflictRetry(func(tx *gorm.DB) error {
		var err error
		row, err = applyEntry(tx, e)
		return err
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// CompletePending flips a pending transaction to completed and applies its
// balance effect atomically. A second call returns ErrAlreadyProcessed.
func (r *LedgerRepository) CompletePending(txID uint) (*models.CreditTransaction, error) {
	var row models.CreditTransaction
	err := r.withConflictRetry(func(tx *gorm.DB) error {
		if err := tx.First(&row, txID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if row.Status != domain.TxStatusPending {
			return ErrAlreadyProcessed
		}
		if _, err := casAccount(tx, row.AccountID, row.Direction, row.Amount, row.Type); err != nil {
			return err
		}
		return tx.Model(&row).Update("status", domain.TxStatusCompleted).Error
	})
	if err != nil {
		return nil, err
	}
	row.Status = domain.TxStatusCompleted
	return &row, nil
}

// FailPending marks a pending transaction failed; no balance effect.
func (r *LedgerRepository) FailPending(txID uint) (*models.CreditTransaction, error) {
	var row models.CreditTransaction
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, txID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if row.Status != domain.TxStatusPending {
			return ErrAlreadyProcessed
		}
		return tx.Model(&row).Update("status", domain.TxStatusFailed).Error
	})
	if err != nil {
		return nil, err
	}
	row.Status = domain.TxStatusFailed
	return &row, nil
}

// DeletePending is not offered: cancelled purchases stay as failed rows so
// the log remains a full history. CancelPending marks an unconfirmed
// purchase failed; since nothing was credited it is side-effect-free.
func (r *LedgerRepository) CancelPending(txID uint) (*models.CreditTransaction, error) {
	return r.FailPending(txID)
}

// Refund creates the inverse-effect refund transaction and flips the
// original to refunded, all in one atomic unit. Idempotent: a refunded
// original yields ErrAlreadyRefunded.
func (r *LedgerRepository) Refund(originalID uint, description string) (*models.CreditTransaction, error) {
	var refund *models.CreditTransaction
	err := r.withConflictRetry(func(tx *gorm.DB) error {
		var orig models.CreditTransaction
		if err := tx.First(&orig, originalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		switch orig.Status {
		case domain.TxStatusRefunded:
			return ErrAlreadyRefunded
		case domain.TxStatusCompleted:
		default:
			return fmt.Errorf("%w: cannot refund a %s transaction", ErrInvalidTransition, orig.Status)
		}
		// Refunding a credit takes the credits back; refunding a debit
		// returns them.
		inverse := domain.DirectionDebit
		if orig.Direction == domain.DirectionDebit {
			inverse = domain.DirectionCredit
		}
		var err error
		refund, err = applyEntry(tx, Entry{
			AccountID:   orig.AccountID,
			Type:        domain.TxRefund,
			Direction:   inverse,
			Amount:      orig.Amount,
			Source:      orig.Source,
			Description: description,
			RelatedTxID: &orig.ID,
		})
		if err != nil {
			return err
		}
		return tx.Model(&orig).Update("status", domain.TxStatusRefunded).Error
	})
	if err != nil {
		return nil, err
	}
	return refund, nil
}

// Transfer commits both legs as one unit: either both accounts move by
// exactly amount or neither does.
func (r *LedgerRepository) Transfer(fromID, toID uint, amount int64, source, note string) (*models.CreditTransaction, *models.CreditTransaction, error) {
	if fromID == toID {
		return nil, nil, fmt.Errorf("%w: cannot transfer to the same account", ErrInvalidAmount)
	}
	var out, in *models.CreditTransaction
	err := r.withConflictRetry(func(tx *gorm.DB) error {
		var err error
		out, err = applyEntry(tx, Entry{
			AccountID:   fromID,
			Type:        domain.TxTransferOut,
			Direction:   domain.DirectionDebit,
			Amount:      amount,
			Source:      source,
			Description: note,
		})
		if err != nil {
			return err
		}
		in, err = applyEntry(tx, Entry{
			AccountID:   toID,
			Type:        domain.TxTransferIn,
			Direction:   domain.DirectionCredit,
			Amount:      amount,
			Source:      source,
			Description: note,
			RelatedTxID: &out.ID,
		})
		if err != nil {
			return err
		}
		// Back-link before the rows become visible; no post-commit mutation.
		return tx.Model(out).Update("related_tx_id", in.ID).Error
	})
	if err != nil {
		return nil, nil, err
	}
	out.RelatedTxID = &in.ID
	return out, in, nil
}

// ReconcileBalance recomputes the balance from the transaction log.
// The cached balance must always match; callers treat a mismatch as
// ErrIntegrityViolation.
func (r *LedgerRepository) ReconcileBalance(accountID uint) (int64, error) {
	var sums struct {
		Credits int64
		Debits  int64
	}
	err := r.db.Model(&models.CreditTransaction{}).
		Select("COALESCE(SUM(CASE WHEN direction = 'credit' THEN amount ELSE 0 END), 0) as credits, COALESCE(SUM(CASE WHEN direction = 'debit' THEN amount ELSE 0 END), 0) as debits").
		Where("account_id = ? AND status IN ?", accountID, []string{domain.TxStatusCompleted, domain.TxStatusRefunded}).
		Scan(&sums).Error
	if err != nil {
		return 0, err
	}
	return sums.Credits - sums.Debits, nil
}

// VerifyIntegrity compares the cached balance against the log.
func (r *LedgerRepository) VerifyIntegrity(accountID uint) error {
	acc, err := r.GetAccount(accountID)
	if err != nil {
		return err
	}
	derived, err := r.ReconcileBalance(accountID)
	if err != nil {
		return err
	}
	if derived != acc.CachedBalance || acc.CachedBalance < 0 {
		log.Printf("[ALARM] ledger integrity violation on account %d: cached=%d derived=%d", accountID, acc.CachedBalance, derived)
		return ErrIntegrityViolation
	}
	return nil
}

// withConflictRetry runs fn in a DB transaction, retrying lost optimistic
// races with linear backoff. Lock hold time is the read-validate-write
// unit only; callers must not do external I/O inside fn.
func (r *LedgerRepository) withConflictRetry(fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		err = r.db.Transaction(fn)
		if !errors.Is(err, errVersionConflict) {
			return err
		}
		time.Sleep(r.backoff * time.Duration(attempt+1))
	}
	return ErrConflict
}

// applyEntry is the single-attempt atomic append: validate, insert row,
// CAS the cached balance. Must run inside a DB transaction.
func applyEntry(tx *gorm.DB, e Entry) (*models.CreditTransaction, error) {
	if e.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if e.Direction != domain.DirectionCredit && e.Direction != domain.DirectionDebit {
		return nil, fmt.Errorf("%w: bad direction %q", ErrInvalidAmount, e.Direction)
	}
	if _, err := casAccount(tx, e.AccountID, e.Direction, e.Amount, e.Type); err != nil {
		return nil, err
	}
	row := rowFromEntry(e, domain.TxStatusCompleted)
	if err := tx.Create(row).Error; err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	return row, nil
}

// casAccount moves the cached balance by amount under optimistic
// concurrency and returns the new balance. Zero rows affected means a
// concurrent writer won the version; the caller's transaction is rolled
// back and retried.
func casAccount(tx *gorm.DB, accountID uint, direction string, amount int64, txType string) (int64, error) {
	var acc models.Account
	if err := tx.First(&acc, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	if acc.CachedBalance < 0 {
		log.Printf("[ALARM] account %d has negative cached balance %d", acc.ID, acc.CachedBalance)
		return 0, ErrIntegrityViolation
	}
	newBalance := acc.CachedBalance
	if direction == domain.DirectionDebit {
		if acc.CachedBalance < amount {
			return 0, ErrInsufficientCredits
		}
		newBalance -= amount
	} else {
		newBalance += amount
	}
	updates := map[string]interface{}{
		"cached_balance": newBalance,
		"version":        acc.Version + 1,
	}
	switch txType {
	case domain.TxPurchase:
		updates["total_purchased"] = acc.TotalPurchased + amount
		updates["last_purchase_at"] = time.Now()
	case domain.TxSpend:
		updates["total_spent"] = acc.TotalSpent + amount
	}
	res := tx.Model(&models.Account{}).
		Where("id = ? AND version = ?", acc.ID, acc.Version).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, errVersionConflict
	}
	return newBalance, nil
}

// bumpAccountVersion serializes against concurrent balance writers without
// moving the balance. Used to make payout reservations race-safe.
func bumpAccountVersion(tx *gorm.DB, accountID uint) (*models.Account, error) {
	var acc models.Account
	if err := tx.First(&acc, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	res := tx.Model(&models.Account{}).
		Where("id = ? AND version = ?", acc.ID, acc.Version).
		Update("version", acc.Version+1)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errVersionConflict
	}
	return &acc, nil
}

func rowFromEntry(e Entry, status string) *models.CreditTransaction {
	direction := e.Direction
	if direction == "" {
		direction = domain.DirectionCredit
	}
	return &models.CreditTransaction{
		AccountID:   e.AccountID,
		Type:        e.Type,
		Direction:   direction,
		Amount:      e.Amount,
		Status:      status,
		Source:      e.Source,
		Description: e.Description,
		PackageID:   e.PackageID,
		PaymentRef:  e.PaymentRef,
		RelatedTxID: e.RelatedTxID,
		Metadata:    e.Metadata,
	}
}
