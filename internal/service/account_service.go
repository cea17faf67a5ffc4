package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"floweradmin/internal/cache"
	"floweradmin/internal/errors"
	"floweradmin/internal/events"
	"floweradmin/internal/model"
	"floweradmin/internal/notification"
	"floweradmin/internal/repository"
)

const accountCacheTTL = 5 * time.Minute

// CreateAccountInput carries the fields for creating an account.
type CreateAccountInput struct {
	FirstName         string
	LastName          string
	Email             string
	Password          string
	Active            bool
	Confirmed         bool
	RoleIDs           []uint
	PermissionIDs     []uint
	ConfirmationEmail bool
}

// UpdateAccountInput carries the fields for updating an account. Role and
// permission assignments are replaced wholesale, not merged.
type UpdateAccountInput struct {
	FirstName     string
	LastName      string
	Email         string
	RoleIDs       []uint
	PermissionIDs []uint
}

// AccountService owns every account state transition and its guards. All
// multi-step mutations run in a single transaction; lifecycle events are
// published after commit and their delivery never affects the outcome.
type AccountService interface {
	Create(ctx context.Context, input CreateAccountInput) (*model.Account, error)
	Update(ctx context.Context, id uint, input UpdateAccountInput) (*model.Account, error)
	UpdatePassword(ctx context.Context, id uint, password string) (*model.Account, error)
	Mark(ctx context.Context, actorID, id uint, active bool) (*model.Account, error)
	Confirm(ctx context.Context, id uint) (*model.Account, error)
	ConfirmByCode(ctx context.Context, code string) (*model.Account, error)
	Unconfirm(ctx context.Context, actorID, id uint) (*model.Account, error)
	Delete(ctx context.Context, id uint) error
	ForceDelete(ctx context.Context, id uint) error
	Restore(ctx context.Context, id uint) (*model.Account, error)
	Get(ctx context.Context, id uint) (*model.Account, error)
	ListActive(ctx context.Context, p repository.ListParams) ([]model.Account, int64, error)
	ListInactive(ctx context.Context, p repository.ListParams) ([]model.Account, int64, error)
	ListDeleted(ctx context.Context, p repository.ListParams) ([]model.Account, int64, error)
}

type accountService struct {
	accountRepo      repository.AccountRepository
	roleRepo         repository.RoleRepository
	permissionRepo   repository.PermissionRepository
	publisher        events.Publisher
	notifier         notification.Dispatcher
	cache            *cache.Client
	requiresApproval bool
}

// NewAccountService creates the account lifecycle service.
func NewAccountService(
	accountRepo repository.AccountRepository,
	roleRepo repository.RoleRepository,
	permissionRepo repository.PermissionRepository,
	publisher events.Publisher,
	notifier notification.Dispatcher,
	cache *cache.Client,
	requiresApproval bool,
) AccountService {
	return &accountService{
		accountRepo:      accountRepo,
		roleRepo:         roleRepo,
		permissionRepo:   permissionRepo,
		publisher:        publisher,
		notifier:         notifier,
		cache:            cache,
		requiresApproval: requiresApproval,
	}
}

func (s *accountService) cacheKey(id uint) string {
	return fmt.Sprintf("account:%d", id)
}

func (s *accountService) invalidate(ctx context.Context, id uint) {
	_ = s.cache.Delete(ctx, s.cacheKey(id))
}

// publish emits a lifecycle event after the mutation has committed. Event
// delivery is best-effort; subscribers must not be able to fail the mutation.
func (s *accountService) publish(ctx context.Context, eventType string, payload events.AccountPayload) {
	_ = s.publisher.Publish(ctx, eventType, payload)
}

// Create persists a new account with its roles and permissions atomically.
func (s *accountService) Create(ctx context.Context, input CreateAccountInput) (*model.Account, error) {
	// Account must have at least one role
	if len(input.RoleIDs) == 0 {
		return nil, errors.ErrRoleRequired
	}

	existing, err := s.accountRepo.FindByEmail(ctx, input.Email)
	if err == nil && existing != nil {
		return nil, errors.ErrEmailTaken
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("check email: %w", err)
	}

	roles, err := s.roleRepo.FindByIDs(ctx, input.RoleIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve roles: %w", err)
	}
	if len(roles) == 0 {
		return nil, errors.ErrRoleRequired
	}

	permissions, err := s.permissionRepo.FindByIDs(ctx, input.PermissionIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve permissions: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &model.Account{
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		Email:            input.Email,
		PasswordHash:     string(hashed),
		Active:           input.Active,
		Confirmed:        input.Confirmed,
		ConfirmationCode: uuid.New().String(),
	}

	err = s.accountRepo.WithTransaction(ctx, func(ctx context.Context, txRepo repository.AccountRepository) error {
		if err := txRepo.Create(ctx, account); err != nil {
			return fmt.Errorf("create account: %w", err)
		}
		if err := txRepo.ReplaceRoles(ctx, account, roles); err != nil {
			return fmt.Errorf("assign roles: %w", err)
		}
		if err := txRepo.ReplacePermissions(ctx, account, permissions); err != nil {
			return fmt.Errorf("assign permissions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Send the confirmation email only when it was requested, the account is
	// not already confirmed, and the approval policy is off. All three must
	// hold.
	if !account.Confirmed && input.ConfirmationEmail && !s.requiresApproval {
		_ = s.notifier.Notify(ctx, notification.Message{
			Kind:             notification.KindNeedsConfirmation,
			AccountID:        account.ID,
			Email:            account.Email,
			Name:             account.FullName(),
			ConfirmationCode: account.ConfirmationCode,
		})
	}

	s.publish(ctx, events.AccountCreated, events.AccountPayload{AccountID: account.ID, Email: account.Email})
	return account, nil
}

// Update applies name/email changes and replaces role and permission
// assignments wholesale.
func (s *accountService) Update(ctx context.Context, id uint, input UpdateAccountInput) (*model.Account, error) {
	account, err := s.findLive(ctx, id)
	if err != nil {
		return nil, err
	}

	// The new email may not belong to a different live account. The account's
	// own unchanged address always passes.
	if account.Email != input.Email {
		other, err := s.accountRepo.FindByEmail(ctx, input.Email)
		if err == nil && other != nil {
			return nil, errors.ErrEmailTaken
		}
		if err != nil && err != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("check email: %w", err)
		}
	}

	roles, err := s.roleRepo.FindByIDs(ctx, input.RoleIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve roles: %w", err)
	}
	permissions, err := s.permissionRepo.FindByIDs(ctx, input.PermissionIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve permissions: %w", err)
	}

	account.FirstName = input.FirstName
	account.LastName = input.LastName
	account.Email = input.Email

	err = s.accountRepo.WithTransaction(ctx, func(ctx context.Context, txRepo repository.AccountRepository) error {
		if err := txRepo.Save(ctx, account); err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		if err := txRepo.ReplaceRoles(ctx, account, roles); err != nil {
			return fmt.Errorf("assign roles: %w", err)
		}
		if err := txRepo.ReplacePermissions(ctx, account, permissions); err != nil {
			return fmt.Errorf("assign permissions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, account.ID)
	s.publish(ctx, events.AccountUpdated, events.AccountPayload{AccountID: account.ID, Email: account.Email})
	return account, nil
}

// UpdatePassword replaces the stored credential. Recording the superseded
// hash to password history is the audit subscriber's job.
func (s *accountService) UpdatePassword(ctx context.Context, id uint, password string) (*model.Account, error) {
	account, err := s.findLive(ctx, id)
	if err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	account.PasswordHash = string(hashed)

	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("update password: %w", err)
	}

	s.invalidate(ctx, account.ID)
	s.publish(ctx, events.PasswordChanged, events.AccountPayload{
		AccountID:    account.ID,
		Email:        account.Email,
		PasswordHash: account.PasswordHash,
	})
	return account, nil
}

// Mark sets the active flag. Actors cannot deactivate their own account. The
// flag is written unconditionally, so re-marking an already-active account
// still emits account.reactivated.
func (s *accountService) Mark(ctx context.Context, actorID, id uint, active bool) (*model.Account, error) {
	account, err := s.findLive(ctx, id)
	if err != nil {
		return nil, err
	}

	if !active && actorID == account.ID {
		return nil, errors.ErrCannotDeactivateSelf
	}

	account.Active = active
	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("mark account: %w", err)
	}

	s.invalidate(ctx, account.ID)
	eventType := events.AccountDeactivated
	if active {
		eventType = events.AccountReactivated
	}
	s.publish(ctx, eventType, events.AccountPayload{AccountID: account.ID, Email: account.Email, ActorID: actorID})
	return account, nil
}

// Confirm marks the account as confirmed. Not idempotent: a second call fails.
func (s *accountService) Confirm(ctx context.Context, id uint) (*model.Account, error) {
	account, err := s.findLive(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.confirm(ctx, account)
}

// ConfirmByCode confirms the account holding the given confirmation code,
// backing the emailed confirmation link.
func (s *accountService) ConfirmByCode(ctx context.Context, code string) (*model.Account, error) {
	account, err := s.accountRepo.FindByConfirmationCode(ctx, code)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrAccountNotFound
		}
		return nil, err
	}
	return s.confirm(ctx, account)
}

func (s *accountService) confirm(ctx context.Context, account *model.Account) (*model.Account, error) {
	if account.Confirmed {
		return nil, errors.ErrAlreadyConfirmed
	}

	account.Confirmed = true
	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("confirm account: %w", err)
	}

	s.invalidate(ctx, account.ID)
	s.publish(ctx, events.AccountConfirmed, events.AccountPayload{AccountID: account.ID, Email: account.Email})

	// Under the approval policy, confirmation is the moment the account
	// becomes usable; let the holder know.
	if s.requiresApproval {
		_ = s.notifier.Notify(ctx, notification.Message{
			Kind:      notification.KindAccountActive,
			AccountID: account.ID,
			Email:     account.Email,
			Name:      account.FullName(),
		})
	}
	return account, nil
}

// Unconfirm withdraws confirmation. The primordial administrator and the
// acting account itself are protected.
func (s *accountService) Unconfirm(ctx context.Context, actorID, id uint) (*model.Account, error) {
	account, err := s.findLive(ctx, id)
	if err != nil {
		return nil, err
	}

	if !account.Confirmed {
		return nil, errors.ErrNotConfirmed
	}
	if account.ID == model.PrimordialAdminID {
		return nil, errors.ErrProtectedAccount
	}
	if account.ID == actorID {
		return nil, errors.ErrCannotUnconfirmSelf
	}

	account.Confirmed = false
	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("unconfirm account: %w", err)
	}

	s.invalidate(ctx, account.ID)
	s.publish(ctx, events.AccountUnconfirmed, events.AccountPayload{AccountID: account.ID, Email: account.Email, ActorID: actorID})
	return account, nil
}

// Delete soft-deletes the account, keeping it recoverable through Restore.
func (s *accountService) Delete(ctx context.Context, id uint) error {
	account, err := s.findLive(ctx, id)
	if err != nil {
		return err
	}
	if err := s.accountRepo.SoftDelete(ctx, account); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	s.invalidate(ctx, account.ID)
	return nil
}

// ForceDelete removes a soft-deleted account permanently, cascading to its
// password history and linked provider rows in the same transaction.
func (s *accountService) ForceDelete(ctx context.Context, id uint) error {
	account, err := s.findAnyState(ctx, id)
	if err != nil {
		return err
	}
	if !account.IsDeleted() {
		return errors.ErrAccountNotDeleted
	}

	err = s.accountRepo.WithTransaction(ctx, func(ctx context.Context, txRepo repository.AccountRepository) error {
		if err := txRepo.DeletePasswordHistories(ctx, account.ID); err != nil {
			return fmt.Errorf("delete password histories: %w", err)
		}
		if err := txRepo.DeleteProviders(ctx, account.ID); err != nil {
			return fmt.Errorf("delete providers: %w", err)
		}
		if err := txRepo.ForceDelete(ctx, account); err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, account.ID)
	s.publish(ctx, events.AccountForceDeleted, events.AccountPayload{AccountID: account.ID, Email: account.Email})
	return nil
}

// Restore brings a soft-deleted account back to live state.
func (s *accountService) Restore(ctx context.Context, id uint) (*model.Account, error) {
	account, err := s.findAnyState(ctx, id)
	if err != nil {
		return nil, err
	}
	if !account.IsDeleted() {
		return nil, errors.ErrAccountNotDeleted
	}

	if err := s.accountRepo.Restore(ctx, account); err != nil {
		return nil, fmt.Errorf("restore account: %w", err)
	}

	s.invalidate(ctx, account.ID)
	s.publish(ctx, events.AccountRestored, events.AccountPayload{AccountID: account.ID, Email: account.Email})
	return account, nil
}

// Get retrieves a live account by ID with caching.
func (s *accountService) Get(ctx context.Context, id uint) (*model.Account, error) {
	// Try cache first
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.Account
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	account, err := s.findLive(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(account); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, accountCacheTTL)
	}
	return account, nil
}

// ListActive returns a page of live, activated accounts.
func (s *accountService) ListActive(ctx context.Context, p repository.ListParams) ([]model.Account, int64, error) {
	return s.accountRepo.List(ctx, true, p)
}

// ListInactive returns a page of live but deactivated accounts.
func (s *accountService) ListInactive(ctx context.Context, p repository.ListParams) ([]model.Account, int64, error) {
	return s.accountRepo.List(ctx, false, p)
}

// ListDeleted returns a page of soft-deleted accounts.
func (s *accountService) ListDeleted(ctx context.Context, p repository.ListParams) ([]model.Account, int64, error) {
	return s.accountRepo.ListDeleted(ctx, p)
}

func (s *accountService) findLive(ctx context.Context, id uint) (*model.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

func (s *accountService) findAnyState(ctx context.Context, id uint) (*model.Account, error) {
	account, err := s.accountRepo.FindByIDAnyState(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}
