package service

import (
	"fmt"
	"path/filepath"
	"testing"

	"velour/internal/domain"
	"velour/internal/models"
	"velour/internal/repository"
	"velour/pkg/payment"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fixture wires the full service stack over a file-backed SQLite
// database. Events run against a nil publisher; payments go through the
// stub provider.
type fixture struct {
	db        *gorm.DB
	ledger    *repository.LedgerRepository
	payouts   *repository.PayoutRepository
	packages  *repository.CreditPackageRepository
	audit     *repository.AuditLogRepository
	notifRepo *repository.NotificationRepository
	users     *repository.UserRepository

	credits   *CreditService
	payoutSvc *PayoutService
	summary   *SummaryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "service_test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	err = db.AutoMigrate(
		&models.User{},
		&models.Account{},
		&models.CreditTransaction{},
		&models.CreditPackage{},
		&models.Payout{},
		&models.AdminAction{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	f := &fixture{
		db:        db,
		ledger:    repository.NewLedgerRepository(db),
		packages:  repository.NewCreditPackageRepository(db),
		audit:     repository.NewAuditLogRepository(db),
		notifRepo: repository.NewNotificationRepository(db),
		users:     repository.NewUserRepository(db),
	}
	f.payouts = repository.NewPayoutRepository(db, f.ledger)
	notif := NewNotificationService(f.notifRepo, f.users)
	f.credits = NewCreditService(f.ledger, f.packages, f.audit, notif, nil, &payment.StubProvider{})
	f.payoutSvc = NewPayoutService(f.payouts, f.ledger, f.audit, notif, nil)
	f.summary = NewSummaryService(db, f.ledger, f.payouts)
	return f
}

// user creates a user row plus its ledger account with an opening balance.
func (f *fixture) user(t *testing.T, role string, balance int64) (*models.User, *models.Account) {
	t.Helper()
	uniqCounter++
	u := &models.User{
		Username: fmt.Sprintf("u%s%d", role, uniqCounter),
		Email:    fmt.Sprintf("u%s%d@velour.test", role, uniqCounter),
		Role:     role,
	}
	if err := f.users.Create(u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	kind := domain.AccountKindUser
	if role == domain.RoleClub {
		kind = domain.AccountKindClub
	}
	acc, err := f.ledger.GetOrCreateAccount(u.ID, kind)
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if balance > 0 {
		_, err := f.ledger.Apply(repository.Entry{
			AccountID: acc.ID,
			Type:      domain.TxPurchase,
			Direction: domain.DirectionCredit,
			Amount:    balance,
			Source:    domain.SourcePackage,
		})
		if err != nil {
			t.Fatalf("seed balance: %v", err)
		}
	}
	return u, acc
}

func (f *fixture) pkg(t *testing.T, name string, credits, priceCents int64) *models.CreditPackage {
	t.Helper()
	p := &models.CreditPackage{
		Name:          name,
		CreditsAmount: credits,
		PriceCents:    priceCents,
		Currency:      "EUR",
		Active:        true,
	}
	if err := f.packages.Create(p); err != nil {
		t.Fatalf("create package: %v", err)
	}
	return p
}

func (f *fixture) notifications(t *testing.T, userID uint) []models.Notification {
	t.Helper()
	list, err := f.notifRepo.ListByUserID(userID, 50, 0)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	return list
}

var uniqCounter int
