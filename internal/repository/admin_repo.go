package repository

import (
	"time"

	"velour/internal/domain"
	"velour/internal/models"

	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalAccounts          int64 `json:"total_accounts"`
	TotalTransactions      int64 `json:"total_transactions"`
	TotalCreditsIssued     int64 `json:"total_credits_issued"`
	TotalCreditsSpent      int64 `json:"total_credits_spent"`
	TotalPayouts           int64 `json:"total_payouts"`
	PendingPayouts         int64 `json:"pending_payouts"`
	PendingPayoutLiability int64 `json:"pending_payout_liability"`
	PaidOutCredits         int64 `json:"paid_out_credits"`
}

type VolumePoint struct {
	Date   string `json:"date"`
	Amount int64  `json:"amount"`
}

// AdminRepository serves the moderation surface: rollup stats and
// filtered listings over ledger state. Read-only.
type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) GetDashboardStats() (*DashboardStats, error) {
	var s DashboardStats
	r.db.Model(&models.Account{}).Count(&s.TotalAccounts)
	r.db.Model(&models.CreditTransaction{}).Count(&s.TotalTransactions)

	var issued struct{ Total int64 }
	r.db.Model(&models.CreditTransaction{}).Select("COALESCE(SUM(amount), 0) as total").
		Where("direction = ? AND status IN ?", domain.DirectionCredit, []string{domain.TxStatusCompleted, domain.TxStatusRefunded}).
		Scan(&issued)
	s.TotalCreditsIssued = issued.Total

	var spent struct{ Total int64 }
	r.db.Model(&models.CreditTransaction{}).Select("COALESCE(SUM(amount), 0) as total").
		Where("direction = ? AND status IN ?", domain.DirectionDebit, []string{domain.TxStatusCompleted, domain.TxStatusRefunded}).
		Scan(&spent)
	s.TotalCreditsSpent = spent.Total

	r.db.Model(&models.Payout{}).Count(&s.TotalPayouts)
	r.db.Model(&models.Payout{}).Where("status = ?", domain.PayoutStatusPending).Count(&s.PendingPayouts)

	var liability struct{ Total int64 }
	r.db.Model(&models.Payout{}).Select("COALESCE(SUM(amount), 0) as total").
		Where("status IN ?", []string{domain.PayoutStatusPending, domain.PayoutStatusProcessing}).
		Scan(&liability)
	s.PendingPayoutLiability = liability.Total

	var paid struct{ Total int64 }
	r.db.Model(&models.Payout{}).Select("COALESCE(SUM(amount), 0) as total").
		Where("status = ?", domain.PayoutStatusCompleted).
		Scan(&paid)
	s.PaidOutCredits = paid.Total

	return &s, nil
}

// ListTransactions returns ledger entries with optional type/status filters.
func (r *AdminRepository) ListTransactions(txType, status string, page, limit int) ([]models.CreditTransaction, int64, error) {
	q := r.db.Model(&models.CreditTransaction{})
	if txType != "" {
		q = q.Where("type = ?", txType)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	q.Count(&total)
	var list []models.CreditTransaction
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

// ListAccounts returns ledger accounts with pagination.
func (r *AdminRepository) ListAccounts(page, limit int) ([]models.Account, int64, error) {
	var total int64
	r.db.Model(&models.Account{}).Count(&total)
	var list []models.Account
	err := r.db.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

// CreditVolumeByDay returns daily completed credit volume for the last N days.
func (r *AdminRepository) CreditVolumeByDay(days int) ([]VolumePoint, error) {
	since := time.Now().AddDate(0, 0, -days)
	var points []VolumePoint
	err := r.db.Model(&models.CreditTransaction{}).
		Select("DATE(created_at) as date, COALESCE(SUM(amount), 0) as amount").
		Where("direction = ? AND status IN ? AND created_at >= ?", domain.DirectionCredit, []string{domain.TxStatusCompleted, domain.TxStatusRefunded}, since).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&points).Error
	return points, err
}
