package repository

import (
	"context"

	"gorm.io/gorm"

	"floweradmin/internal/model"
)

// ListParams controls pagination and ordering of listing queries. OrderBy is
// validated against an allow-list at the handler layer before it reaches here.
type ListParams struct {
	Page    int
	PerPage int
	OrderBy string
	Sort    string
}

func (p ListParams) normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage <= 0 || p.PerPage > 100 {
		p.PerPage = 25
	}
	if p.OrderBy == "" {
		p.OrderBy = "created_at"
	}
	if p.Sort != "asc" {
		p.Sort = "desc"
	}
	return p
}

// AccountRepository defines account persistence operations.
type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	Save(ctx context.Context, account *model.Account) error
	FindByID(ctx context.Context, id uint) (*model.Account, error)
	FindByIDAnyState(ctx context.Context, id uint) (*model.Account, error)
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	FindByConfirmationCode(ctx context.Context, code string) (*model.Account, error)
	List(ctx context.Context, active bool, p ListParams) ([]model.Account, int64, error)
	ListDeleted(ctx context.Context, p ListParams) ([]model.Account, int64, error)
	ReplaceRoles(ctx context.Context, account *model.Account, roles []model.Role) error
	ReplacePermissions(ctx context.Context, account *model.Account, permissions []model.Permission) error
	SoftDelete(ctx context.Context, account *model.Account) error
	Restore(ctx context.Context, account *model.Account) error
	ForceDelete(ctx context.Context, account *model.Account) error
	DeletePasswordHistories(ctx context.Context, accountID uint) error
	DeleteProviders(ctx context.Context, accountID uint) error
	AddPasswordHistory(ctx context.Context, history *model.PasswordHistory) error
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo AccountRepository) error) error
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Roles").Preload("Permissions").Preload("Providers")
}

// Create persists a new account.
func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	return r.db.WithContext(ctx).Omit("Roles", "Permissions").Create(account).Error
}

// Save persists field changes on an existing account.
func (r *accountRepository) Save(ctx context.Context, account *model.Account) error {
	return r.db.WithContext(ctx).Omit("Roles", "Permissions", "Providers", "PasswordHistories").Save(account).Error
}

// FindByID finds a live account by ID with relations loaded.
func (r *accountRepository) FindByID(ctx context.Context, id uint) (*model.Account, error) {
	var account model.Account
	if err := r.withRelations(r.db.WithContext(ctx)).First(&account, id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByIDAnyState finds an account by ID regardless of soft-delete state.
// Restore and permanent delete need to reach deleted rows.
func (r *accountRepository) FindByIDAnyState(ctx context.Context, id uint) (*model.Account, error) {
	var account model.Account
	if err := r.withRelations(r.db.WithContext(ctx).Unscoped()).First(&account, id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByEmail finds a live account by email.
func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByConfirmationCode finds a live account by its confirmation code.
func (r *accountRepository) FindByConfirmationCode(ctx context.Context, code string) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).Where("confirmation_code = ?", code).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// List returns a page of live accounts filtered on the active flag.
func (r *accountRepository) List(ctx context.Context, active bool, p ListParams) ([]model.Account, int64, error) {
	p = p.normalize()
	q := r.db.WithContext(ctx).Model(&model.Account{}).Where("active = ?", active)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var accounts []model.Account
	err := r.withRelations(q).
		Order(p.OrderBy + " " + p.Sort).
		Offset((p.Page - 1) * p.PerPage).
		Limit(p.PerPage).
		Find(&accounts).Error
	if err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// ListDeleted returns a page of soft-deleted accounts.
func (r *accountRepository) ListDeleted(ctx context.Context, p ListParams) ([]model.Account, int64, error) {
	p = p.normalize()
	q := r.db.WithContext(ctx).Unscoped().Model(&model.Account{}).Where("deleted_at IS NOT NULL")

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var accounts []model.Account
	err := r.withRelations(q).
		Order(p.OrderBy + " " + p.Sort).
		Offset((p.Page - 1) * p.PerPage).
		Limit(p.PerPage).
		Find(&accounts).Error
	if err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// ReplaceRoles swaps the account's role assignments wholesale.
func (r *accountRepository) ReplaceRoles(ctx context.Context, account *model.Account, roles []model.Role) error {
	if err := r.db.WithContext(ctx).Model(account).Association("Roles").Replace(&roles); err != nil {
		return err
	}
	account.Roles = roles
	return nil
}

// ReplacePermissions swaps the account's direct permission grants wholesale.
func (r *accountRepository) ReplacePermissions(ctx context.Context, account *model.Account, permissions []model.Permission) error {
	if err := r.db.WithContext(ctx).Model(account).Association("Permissions").Replace(&permissions); err != nil {
		return err
	}
	account.Permissions = permissions
	return nil
}

// SoftDelete marks the account deleted, keeping the row recoverable.
func (r *accountRepository) SoftDelete(ctx context.Context, account *model.Account) error {
	return r.db.WithContext(ctx).Delete(account).Error
}

// Restore clears the soft-delete marker.
func (r *accountRepository) Restore(ctx context.Context, account *model.Account) error {
	if err := r.db.WithContext(ctx).Unscoped().Model(account).Update("deleted_at", nil).Error; err != nil {
		return err
	}
	account.DeletedAt = gorm.DeletedAt{}
	return nil
}

// ForceDelete removes the account row physically. Irreversible.
func (r *accountRepository) ForceDelete(ctx context.Context, account *model.Account) error {
	return r.db.WithContext(ctx).Unscoped().Select("Roles", "Permissions").Delete(account).Error
}

// DeletePasswordHistories removes all password history rows for an account.
func (r *accountRepository) DeletePasswordHistories(ctx context.Context, accountID uint) error {
	return r.db.WithContext(ctx).Where("account_id = ?", accountID).Delete(&model.PasswordHistory{}).Error
}

// DeleteProviders removes all linked identity provider rows for an account.
func (r *accountRepository) DeleteProviders(ctx context.Context, accountID uint) error {
	return r.db.WithContext(ctx).Where("account_id = ?", accountID).Delete(&model.Provider{}).Error
}

// AddPasswordHistory records a superseded credential.
func (r *accountRepository) AddPasswordHistory(ctx context.Context, history *model.PasswordHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}

// WithTransaction executes a function within a database transaction.
func (r *accountRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo AccountRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &accountRepository{db: tx}
		return fn(ctx, txRepo)
	})
}
