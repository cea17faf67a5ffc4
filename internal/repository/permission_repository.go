package repository

import (
	"context"

	"gorm.io/gorm"

	"floweradmin/internal/model"
)

// PermissionRepository defines permission persistence operations.
type PermissionRepository interface {
	Create(ctx context.Context, permission *model.Permission) error
	FindByIDs(ctx context.Context, ids []uint) ([]model.Permission, error)
	FirstOrCreate(ctx context.Context, permission *model.Permission) error
	List(ctx context.Context) ([]model.Permission, error)
}

type permissionRepository struct {
	db *gorm.DB
}

// NewPermissionRepository creates a new permission repository.
func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &permissionRepository{db: db}
}

func (r *permissionRepository) Create(ctx context.Context, permission *model.Permission) error {
	return r.db.WithContext(ctx).Create(permission).Error
}

func (r *permissionRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Permission, error) {
	var permissions []model.Permission
	if len(ids) == 0 {
		return permissions, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&permissions).Error; err != nil {
		return nil, err
	}
	return permissions, nil
}

func (r *permissionRepository) FirstOrCreate(ctx context.Context, permission *model.Permission) error {
	return r.db.WithContext(ctx).Where("name = ?", permission.Name).FirstOrCreate(permission).Error
}

func (r *permissionRepository) List(ctx context.Context) ([]model.Permission, error) {
	var permissions []model.Permission
	if err := r.db.WithContext(ctx).Find(&permissions).Error; err != nil {
		return nil, err
	}
	return permissions, nil
}
