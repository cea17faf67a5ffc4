package repository

import (
	"context"

	"gorm.io/gorm"

	"floweradmin/internal/model"
)

// AuditRepository persists lifecycle events consumed from the event stream.
type AuditRepository interface {
	Create(ctx context.Context, record *model.AuditRecord) error
	ListByAccount(ctx context.Context, accountID uint, limit int) ([]model.AuditRecord, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, record *model.AuditRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *auditRepository) ListByAccount(ctx context.Context, accountID uint, limit int) ([]model.AuditRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var records []model.AuditRecord
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at desc").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
