package service

import (
	"errors"
	"time"

	"velour/internal/domain"
	"velour/internal/models"
	"velour/internal/repository"

	"gorm.io/gorm"
)

type ClubCreditSummary struct {
	AccountID              uint  `json:"account_id"`
	Balance                int64 `json:"balance"`
	TotalEarned            int64 `json:"total_earned"`
	TotalSpent             int64 `json:"total_spent"`
	PendingWithdrawals     int64 `json:"pending_withdrawals"`
	AvailableForWithdrawal int64 `json:"available_for_withdrawal"`
}

type EarningsSummary struct {
	AccountID           uint       `json:"account_id"`
	CreditsFromGifts    int64      `json:"credits_from_gifts"`
	CreditsFromFanposts int64      `json:"credits_from_fanposts"`
	CreditsPayouts      int64      `json:"credits_payouts"`
	CreditsAvailable    int64      `json:"credits_available"`
	LastPayoutAt        *time.Time `json:"last_payout_at"`
}

// SummaryService computes read-only rollups from committed ledger state.
// Pure projections: no locks, no writes, never a partially-applied view.
type SummaryService struct {
	db      *gorm.DB
	ledger  *repository.LedgerRepository
	payouts *repository.PayoutRepository
}

func NewSummaryService(db *gorm.DB, ledger *repository.LedgerRepository, payouts *repository.PayoutRepository) *SummaryService {
	return &SummaryService{db: db, ledger: ledger, payouts: payouts}
}

// ClubCredits summarizes a club account's balance and payout headroom,
// availableForWithdrawal = balance - sum(pending+processing payouts).
func (s *SummaryService) ClubCredits(accountID uint) (*ClubCreditSummary, error) {
	snap, err := s.ledger.GetBalance(accountID)
	if err != nil {
		return nil, err
	}
	reserved, err := s.payouts.SumReserved(accountID)
	if err != nil {
		return nil, err
	}
	earned, err := s.sumByDirection(accountID, domain.DirectionCredit)
	if err != nil {
		return nil, err
	}
	spent, err := s.sumByDirection(accountID, domain.DirectionDebit)
	if err != nil {
		return nil, err
	}
	return &ClubCreditSummary{
		AccountID:              accountID,
		Balance:                snap.Balance,
		TotalEarned:            earned,
		TotalSpent:             spent,
		PendingWithdrawals:     reserved,
		AvailableForWithdrawal: snap.Balance - reserved,
	}, nil
}

// Earnings breaks a performer account's income down by source category.
func (s *SummaryService) Earnings(accountID uint) (*EarningsSummary, error) {
	snap, err := s.ledger.GetBalance(accountID)
	if err != nil {
		return nil, err
	}
	reserved, err := s.payouts.SumReserved(accountID)
	if err != nil {
		return nil, err
	}
	gifts, err := s.netBySource(accountID, domain.SourceGift)
	if err != nil {
		return nil, err
	}
	fanposts, err := s.netBySource(accountID, domain.SourceFanpost)
	if err != nil {
		return nil, err
	}
	var payouts struct{ Total int64 }
	err = s.db.Model(&models.CreditTransaction{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("account_id = ? AND type = ? AND status = ?", accountID, domain.TxPayout, domain.TxStatusCompleted).
		Scan(&payouts).Error
	if err != nil {
		return nil, err
	}
	var lastPayoutAt *time.Time
	var last models.Payout
	err = s.db.Where("account_id = ? AND status = ?", accountID, domain.PayoutStatusCompleted).
		Order("processed_at DESC").First(&last).Error
	if err == nil {
		lastPayoutAt = last.ProcessedAt
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &EarningsSummary{
		AccountID:           accountID,
		CreditsFromGifts:    gifts,
		CreditsFromFanposts: fanposts,
		CreditsPayouts:      payouts.Total,
		CreditsAvailable:    snap.Balance - reserved,
		LastPayoutAt:        lastPayoutAt,
	}, nil
}

func (s *SummaryService) sumByDirection(accountID uint, direction string) (int64, error) {
	var sum struct{ Total int64 }
	err := s.db.Model(&models.CreditTransaction{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("account_id = ? AND direction = ? AND status IN ?", accountID, direction,
			[]string{domain.TxStatusCompleted, domain.TxStatusRefunded}).
		Scan(&sum).Error
	return sum.Total, err
}

// netBySource nets credits against debits (refunds) for one source tag.
func (s *SummaryService) netBySource(accountID uint, source string) (int64, error) {
	var sum struct{ Total int64 }
	err := s.db.Model(&models.CreditTransaction{}).
		Select("COALESCE(SUM(CASE WHEN direction = 'credit' THEN amount ELSE -amount END), 0) as total").
		Where("account_id = ? AND source = ? AND status IN ?", accountID, source,
			[]string{domain.TxStatusCompleted, domain.TxStatusRefunded}).
		Scan(&sum).Error
	return sum.Total, err
}
