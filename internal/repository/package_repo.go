package repository

import (
	"errors"

	"velour/internal/models"

	"gorm.io/gorm"
)

type CreditPackageRepository struct {
	db *gorm.DB
}

func NewCreditPackageRepository(db *gorm.DB) *CreditPackageRepository {
	return &CreditPackageRepository{db: db}
}

// ListActive returns purchasable packages, featured first.
func (r *CreditPackageRepository) ListActive() ([]models.CreditPackage, error) {
	var list []models.CreditPackage
	err := r.db.Where("active = ?", true).Order("featured DESC, price_cents ASC").Find(&list).Error
	return list, err
}

func (r *CreditPackageRepository) GetByID(id uint) (*models.CreditPackage, error) {
	var p models.CreditPackage
	if err := r.db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *CreditPackageRepository) Create(p *models.CreditPackage) error {
	return r.db.Create(p).Error
}

func (r *CreditPackageRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.CreditPackage{}).Where("id = ?", id).Updates(updates).Error
}

func (r *CreditPackageRepository) Deactivate(id uint) error {
	return r.Update(id, map[string]interface{}{"active": false})
}
