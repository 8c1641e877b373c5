package database

import (
	"errors"
	"log"

	"velour/config"
	"velour/internal/domain"
	"velour/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error), // Only log errors, not every SQL query
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Account{},
		&models.CreditTransaction{},
		&models.CreditPackage{},
		&models.Payout{},
		&models.AdminAction{},
		&models.Notification{},
	)
}

// SeedAdmin creates the initial admin user when none exists.
func SeedAdmin(db *gorm.DB) {
	var admin models.User
	err := db.Where("role = ?", domain.RoleAdmin).First(&admin).Error
	if err == nil {
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[Seed] admin lookup failed: %v", err)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-change-me"), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[Seed] hash admin password: %v", err)
		return
	}
	admin = models.User{
		Username:     "admin",
		Email:        "admin@velour.local",
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Printf("[Seed] create admin: %v", err)
		return
	}
	log.Printf("[Seed] created default admin user (change the password)")
}

// SeedCreditPackages inserts the default catalog when the table is empty.
func SeedCreditPackages(db *gorm.DB) {
	var count int64
	db.Model(&models.CreditPackage{}).Count(&count)
	if count > 0 {
		return
	}
	packages := []models.CreditPackage{
		{Name: "Starter", CreditsAmount: 100, PriceCents: 999, Currency: "EUR", Active: true},
		{Name: "Popular", CreditsAmount: 550, PriceCents: 4999, Currency: "EUR", Featured: true, Active: true},
		{Name: "Pro", CreditsAmount: 1200, PriceCents: 9999, Currency: "EUR", Active: true},
		{Name: "VIP", CreditsAmount: 3250, PriceCents: 24999, Currency: "EUR", Active: true},
	}
	if err := db.Create(&packages).Error; err != nil {
		log.Printf("[Seed] create credit packages: %v", err)
		return
	}
	log.Printf("[Seed] created %d default credit packages", len(packages))
}
