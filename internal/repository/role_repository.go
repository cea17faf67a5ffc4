package repository

import (
	"context"

	"gorm.io/gorm"

	"floweradmin/internal/model"
)

// RoleRepository defines role persistence operations.
type RoleRepository interface {
	Create(ctx context.Context, role *model.Role) error
	FindByIDs(ctx context.Context, ids []uint) ([]model.Role, error)
	FindByName(ctx context.Context, name string) (*model.Role, error)
	FirstOrCreate(ctx context.Context, role *model.Role) error
	List(ctx context.Context) ([]model.Role, error)
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a new role repository.
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) error {
	return r.db.WithContext(ctx).Create(role).Error
}

// FindByIDs resolves role ids to rows; missing ids are silently absent from
// the result, callers compare lengths when that matters.
func (r *roleRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Role, error) {
	var roles []model.Role
	if len(ids) == 0 {
		return roles, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// FirstOrCreate fetches the role by name, creating it if absent. Used by the
// seed command.
func (r *roleRepository) FirstOrCreate(ctx context.Context, role *model.Role) error {
	return r.db.WithContext(ctx).Where("name = ?", role.Name).FirstOrCreate(role).Error
}

func (r *roleRepository) List(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := r.db.WithContext(ctx).Preload("Permissions").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}
