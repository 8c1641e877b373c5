package repository

import (
	"path/filepath"
	"testing"

	"velour/internal/domain"
	"velour/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB returns a file-backed SQLite database scoped to the test.
// A single connection keeps concurrent test writers serialized the way
// a row lock would in MySQL.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "ledger_test.db")
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
	return db
}

// seedAccount creates an account with an opening balance backed by a
// matching ledger row, so the balance invariant holds from the start.
func seedAccount(t *testing.T, db *gorm.DB, ownerID uint, balance int64) *models.Account {
	t.Helper()
	acc := &models.Account{OwnerID: ownerID, Kind: domain.AccountKindUser}
	if err := db.Create(acc).Error; err != nil {
		t.Fatalf("seed account(owner=%d): %v", ownerID, err)
	}
	if balance > 0 {
		ledger := NewLedgerRepository(db)
		_, err := ledger.Apply(Entry{
			AccountID: acc.ID,
			Type:      domain.TxPurchase,
			Direction: domain.DirectionCredit,
			Amount:    balance,
			Source:    domain.SourcePackage,
		})
		if err != nil {
			t.Fatalf("seed balance(owner=%d, amount=%d): %v", ownerID, balance, err)
		}
	}
	if err := db.First(acc, acc.ID).Error; err != nil {
		t.Fatalf("reload account: %v", err)
	}
	return acc
}
