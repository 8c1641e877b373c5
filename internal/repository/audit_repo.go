package repository

import (
	"velour/internal/models"

	"gorm.io/gorm"
)

// AuditLogRepository is the append-only trail of privileged actions.
// Rows are only ever inserted; there is no update or delete path.
type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Record(actorID uint, actionType, targetType, targetID, reason, notes string) error {
	return r.db.Create(&models.AdminAction{
		ActorID:    actorID,
		ActionType: actionType,
		TargetType: targetType,
		TargetID:   targetID,
		Reason:     reason,
		Notes:      notes,
	}).Error
}

// ListByTarget returns actions against a target, newest first,
// restartable by offset.
func (r *AuditLogRepository) ListByTarget(targetType, targetID string, limit, offset int) ([]models.AdminAction, error) {
	var list []models.AdminAction
	err := r.db.Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("created_at DESC, id DESC").Limit(clampLimit(limit)).Offset(offset).Find(&list).Error
	return list, err
}

func (r *AuditLogRepository) ListByActor(actorID uint, limit, offset int) ([]models.AdminAction, error) {
	var list []models.AdminAction
	err := r.db.Where("actor_id = ?", actorID).
		Order("created_at DESC, id DESC").Limit(clampLimit(limit)).Offset(offset).Find(&list).Error
	return list, err
}

func (r *AuditLogRepository) ListRecent(limit, offset int) ([]models.AdminAction, error) {
	var list []models.AdminAction
	err := r.db.Order("created_at DESC, id DESC").Limit(clampLimit(limit)).Offset(offset).Find(&list).Error
	return list, err
}

func clampLimit(limit int) int {
	if limit < 1 || limit > 200 {
		return 50
	}
	return limit
}
