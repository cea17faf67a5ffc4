package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"floweradmin/internal/errors"
	"floweradmin/internal/events"
	"floweradmin/internal/model"
	"floweradmin/internal/notification"
	"floweradmin/internal/repository"
)

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, account *model.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) Save(ctx context.Context, account *model.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id uint) (*model.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByIDAnyState(ctx context.Context, id uint) (*model.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByConfirmationCode(ctx context.Context, code string) (*model.Account, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountRepository) List(ctx context.Context, active bool, p repository.ListParams) ([]model.Account, int64, error) {
	args := m.Called(ctx, active, p)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Account), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccountRepository) ListDeleted(ctx context.Context, p repository.ListParams) ([]model.Account, int64, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Account), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccountRepository) ReplaceRoles(ctx context.Context, account *model.Account, roles []model.Role) error {
	args := m.Called(ctx, account, roles)
	if args.Error(0) == nil {
		account.Roles = roles
	}
	return args.Error(0)
}

func (m *MockAccountRepository) ReplacePermissions(ctx context.Context, account *model.Account, permissions []model.Permission) error {
	args := m.Called(ctx, account, permissions)
	if args.Error(0) == nil {
		account.Permissions = permissions
	}
	return args.Error(0)
}

func (m *MockAccountRepository) SoftDelete(ctx context.Context, account *model.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) Restore(ctx context.Context, account *model.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) ForceDelete(ctx context.Context, account *model.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) DeletePasswordHistories(ctx context.Context, accountID uint) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

func (m *MockAccountRepository) DeleteProviders(ctx context.Context, accountID uint) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

func (m *MockAccountRepository) AddPasswordHistory(ctx context.Context, history *model.PasswordHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

// WithTransaction runs the callback against the mock itself, so expectations
// set on the mock cover the transactional calls too.
func (m *MockAccountRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.AccountRepository) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx, m)
}

// MockRoleRepository is a mock implementation of RoleRepository.
type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) Create(ctx context.Context, role *model.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *MockRoleRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Role, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Role), args.Error(1)
}

func (m *MockRoleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Role), args.Error(1)
}

func (m *MockRoleRepository) FirstOrCreate(ctx context.Context, role *model.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *MockRoleRepository) List(ctx context.Context) ([]model.Role, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Role), args.Error(1)
}

// MockPermissionRepository is a mock implementation of PermissionRepository.
type MockPermissionRepository struct {
	mock.Mock
}

func (m *MockPermissionRepository) Create(ctx context.Context, permission *model.Permission) error {
	args := m.Called(ctx, permission)
	return args.Error(0)
}

func (m *MockPermissionRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Permission, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Permission), args.Error(1)
}

func (m *MockPermissionRepository) FirstOrCreate(ctx context.Context, permission *model.Permission) error {
	args := m.Called(ctx, permission)
	return args.Error(0)
}

func (m *MockPermissionRepository) List(ctx context.Context) ([]model.Permission, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Permission), args.Error(1)
}

// MockPublisher is a mock implementation of events.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, eventType string, payload events.AccountPayload) error {
	args := m.Called(ctx, eventType, payload)
	return args.Error(0)
}

// MockDispatcher is a mock implementation of notification.Dispatcher.
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Notify(ctx context.Context, msg notification.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type accountServiceMocks struct {
	accountRepo    *MockAccountRepository
	roleRepo       *MockRoleRepository
	permissionRepo *MockPermissionRepository
	publisher      *MockPublisher
	notifier       *MockDispatcher
}

func newTestAccountService(requiresApproval bool) (AccountService, accountServiceMocks) {
	m := accountServiceMocks{
		accountRepo:    new(MockAccountRepository),
		roleRepo:       new(MockRoleRepository),
		permissionRepo: new(MockPermissionRepository),
		publisher:      new(MockPublisher),
		notifier:       new(MockDispatcher),
	}
	svc := NewAccountService(m.accountRepo, m.roleRepo, m.permissionRepo, m.publisher, m.notifier, nil, requiresApproval)
	return svc, m
}

func deletedAccount(id uint) *model.Account {
	return &model.Account{
		ID:        id,
		Email:     "gone@example.com",
		DeletedAt: gorm.DeletedAt{Time: time.Now(), Valid: true},
	}
}

func TestAccountService_Create(t *testing.T) {
	validInput := CreateAccountInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "password123",
		Active:    true,
		RoleIDs:   []uint{2},
	}

	tests := []struct {
		name          string
		input         CreateAccountInput
		setupMock     func(m accountServiceMocks)
		expectedError error
	}{
		{
			name: "no role ids fails before touching the database",
			input: CreateAccountInput{
				FirstName: "Ada",
				LastName:  "Lovelace",
				Email:     "ada@example.com",
				Password:  "password123",
			},
			setupMock:     func(m accountServiceMocks) {},
			expectedError: errors.ErrRoleRequired,
		},
		{
			name: "role ids resolving to nothing fails",
			input: CreateAccountInput{
				FirstName: "Ada",
				LastName:  "Lovelace",
				Email:     "ada@example.com",
				Password:  "password123",
				RoleIDs:   []uint{99},
			},
			setupMock: func(m accountServiceMocks) {
				m.accountRepo.On("FindByEmail", mock.Anything, "ada@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.roleRepo.On("FindByIDs", mock.Anything, []uint{99}).Return([]model.Role{}, nil)
			},
			expectedError: errors.ErrRoleRequired,
		},
		{
			name:  "email already taken by a live account",
			input: validInput,
			setupMock: func(m accountServiceMocks) {
				m.accountRepo.On("FindByEmail", mock.Anything, "ada@example.com").
					Return(&model.Account{ID: 7, Email: "ada@example.com"}, nil)
			},
			expectedError: errors.ErrEmailTaken,
		},
		{
			name:  "successful creation assigns roles and permissions atomically",
			input: validInput,
			setupMock: func(m accountServiceMocks) {
				m.accountRepo.On("FindByEmail", mock.Anything, "ada@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.roleRepo.On("FindByIDs", mock.Anything, []uint{2}).
					Return([]model.Role{{ID: 2, Name: "executive"}}, nil)
				m.permissionRepo.On("FindByIDs", mock.Anything, []uint(nil)).Return([]model.Permission{}, nil)
				m.accountRepo.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
				m.accountRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Account")).Return(nil)
				m.accountRepo.On("ReplaceRoles", mock.Anything, mock.Anything, mock.Anything).Return(nil)
				m.accountRepo.On("ReplacePermissions", mock.Anything, mock.Anything, mock.Anything).Return(nil)
				m.publisher.On("Publish", mock.Anything, events.AccountCreated, mock.Anything).Return(nil)
			},
			expectedError: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestAccountService(false)
			tt.setupMock(m)

			account, err := svc.Create(context.Background(), tt.input)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, account)
				m.accountRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, account)
				assert.Equal(t, tt.input.Email, account.Email)
				assert.NotEmpty(t, account.PasswordHash)
				assert.NotEmpty(t, account.ConfirmationCode)
				assert.Len(t, account.Roles, 1)
				assert.Equal(t, uint(2), account.Roles[0].ID)
			}

			m.accountRepo.AssertExpectations(t)
			m.roleRepo.AssertExpectations(t)
			m.publisher.AssertExpectations(t)
		})
	}
}

func TestAccountService_Create_ConfirmationEmail(t *testing.T) {
	// The confirmation email goes out only when all three hold: the account is
	// not already confirmed, the email was requested, and the approval policy
	// is off.
	tests := []struct {
		name              string
		confirmed         bool
		confirmationEmail bool
		requiresApproval  bool
		expectNotify      bool
	}{
		{"unconfirmed, requested, approval off", false, true, false, true},
		{"already confirmed", true, true, false, false},
		{"not requested", false, false, false, false},
		{"approval policy on", false, true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestAccountService(tt.requiresApproval)

			m.accountRepo.On("FindByEmail", mock.Anything, "ada@example.com").Return(nil, gorm.ErrRecordNotFound)
			m.roleRepo.On("FindByIDs", mock.Anything, []uint{2}).
				Return([]model.Role{{ID: 2, Name: "executive"}}, nil)
			m.permissionRepo.On("FindByIDs", mock.Anything, []uint(nil)).Return([]model.Permission{}, nil)
			m.accountRepo.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
			m.accountRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
			m.accountRepo.On("ReplaceRoles", mock.Anything, mock.Anything, mock.Anything).Return(nil)
			m.accountRepo.On("ReplacePermissions", mock.Anything, mock.Anything, mock.Anything).Return(nil)
			m.publisher.On("Publish", mock.Anything, events.AccountCreated, mock.Anything).Return(nil)
			if tt.expectNotify {
				m.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(msg notification.Message) bool {
					return msg.Kind == notification.KindNeedsConfirmation && msg.ConfirmationCode != ""
				})).Return(nil)
			}

			_, err := svc.Create(context.Background(), CreateAccountInput{
				FirstName:         "Ada",
				LastName:          "Lovelace",
				Email:             "ada@example.com",
				Password:          "password123",
				Confirmed:         tt.confirmed,
				RoleIDs:           []uint{2},
				ConfirmationEmail: tt.confirmationEmail,
			})
			assert.NoError(t, err)

			if !tt.expectNotify {
				m.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
			}
			m.notifier.AssertExpectations(t)
		})
	}
}

func TestAccountService_Update_EmailCollision(t *testing.T) {
	tests := []struct {
		name          string
		newEmail      string
		setupMock     func(m accountServiceMocks, account *model.Account)
		expectedError error
	}{
		{
			name:     "new email belonging to another live account fails",
			newEmail: "taken@example.com",
			setupMock: func(m accountServiceMocks, account *model.Account) {
				m.accountRepo.On("FindByEmail", mock.Anything, "taken@example.com").
					Return(&model.Account{ID: 9, Email: "taken@example.com"}, nil)
			},
			expectedError: errors.ErrEmailTaken,
		},
		{
			name:     "keeping the current email skips the collision check",
			newEmail: "ada@example.com",
			setupMock: func(m accountServiceMocks, account *model.Account) {
				m.accountRepo.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
				m.accountRepo.On("Save", mock.Anything, account).Return(nil)
				m.accountRepo.On("ReplaceRoles", mock.Anything, mock.Anything, mock.Anything).Return(nil)
				m.accountRepo.On("ReplacePermissions", mock.Anything, mock.Anything, mock.Anything).Return(nil)
				m.publisher.On("Publish", mock.Anything, events.AccountUpdated, mock.Anything).Return(nil)
			},
			expectedError: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestAccountService(false)
			account := &model.Account{ID: 5, Email: "ada@example.com", Active: true}
			m.accountRepo.On("FindByID", mock.Anything, uint(5)).Return(account, nil)
			m.roleRepo.On("FindByIDs", mock.Anything, []uint{2}).
				Return([]model.Role{{ID: 2}}, nil).Maybe()
			m.permissionRepo.On("FindByIDs", mock.Anything, []uint(nil)).
				Return([]model.Permission{}, nil).Maybe()
			tt.setupMock(m, account)

			updated, err := svc.Update(context.Background(), 5, UpdateAccountInput{
				FirstName: "Ada",
				LastName:  "Lovelace",
				Email:     tt.newEmail,
				RoleIDs:   []uint{2},
			})

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, updated)
				m.accountRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.newEmail, updated.Email)
			}
			m.accountRepo.AssertExpectations(t)
		})
	}
}

func TestAccountService_Mark(t *testing.T) {
	tests := []struct {
		name          string
		actorID       uint
		active        bool
		expectedError error
		expectedEvent string
	}{
		{
			name:          "actor cannot deactivate itself",
			actorID:       5,
			active:        false,
			expectedError: errors.ErrCannotDeactivateSelf,
		},
		{
			name:          "deactivation by another actor",
			actorID:       1,
			active:        false,
			expectedEvent: events.AccountDeactivated,
		},
		{
			name:          "activation by another actor",
			actorID:       1,
			active:        true,
			expectedEvent: events.AccountReactivated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestAccountService(false)
			account := &model.Account{ID: 5, Email: "ada@example.com", Active: true}
			m.accountRepo.On("FindByID", mock.Anything, uint(5)).Return(account, nil)
			if tt.expectedError == nil {
				m.accountRepo.On("Save", mock.Anything, account).Return(nil)
				m.publisher.On("Publish", mock.Anything, tt.expectedEvent, mock.MatchedBy(func(p events.AccountPayload) bool {
					return p.AccountID == 5 && p.ActorID == tt.actorID
				})).Return(nil)
			}

			updated, err := svc.Mark(context.Background(), tt.actorID, 5, tt.active)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, updated)
				assert.True(t, account.Active, "failed deactivation must not flip the flag")
				m.accountRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.active, updated.Active)
			}
			m.accountRepo.AssertExpectations(t)
			m.publisher.AssertExpectations(t)
		})
	}
}

func TestAccountService_Mark_ReactivateAlreadyActive(t *testing.T) {
	// Activating an account that is already active still writes the row and
	// still emits account.reactivated. Subscribers see the event fire again.
	svc, m := newTestAccountService(false)
	account := &model.Account{ID: 5, Email: "ada@example.com", Active: true}
	m.accountRepo.On("FindByID", mock.Anything, uint(5)).Return(account, nil)
	m.accountRepo.On("Save", mock.Anything, account).Return(nil)
	m.publisher.On("Publish", mock.Anything, events.AccountReactivated, mock.Anything).Return(nil)

	updated, err := svc.Mark(context.Background(), 1, 5, true)

	assert.NoError(t, err)
	assert.True(t, updated.Active)
	m.publisher.AssertCalled(t, "Publish", mock.Anything, events.AccountReactivated, mock.Anything)
	m.accountRepo.AssertExpectations(t)
}

func TestAccountService_Confirm_NotIdempotent(t *testing.T) {
	svc, m := newTestAccountService(false)
	account := &model.Account{ID: 5, Email: "ada@example.com", Active: true}
	m.accountRepo.On("FindByID", mock.Anything, uint(5)).Return(account, nil)
	m.accountRepo.On("Save", mock.Anything, account).Return(nil).Once()
	m.publisher.On("Publish", mock.Anything, events.AccountConfirmed, mock.Anything).Return(nil).Once()

	confirmed, err := svc.Confirm(context.Background(), 5)
	assert.NoError(t, err)
	assert.True(t, confirmed.Confirmed)

	// The second confirmation of the same account must fail.
	again, err := svc.Confirm(context.Background(), 5)
	assert.Equal(t, errors.ErrAlreadyConfirmed, err)
	assert.Nil(t, again)

	m.accountRepo.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
}

func TestAccountService_Confirm_NotifiesUnderApprovalPolicy(t *testing.T) {
	svc, m := newTestAccountService(true)
	account := &model.Account{ID: 5, Email: "ada@example.com", Active: true}
	m.accountRepo.On("FindByID", mock.Anything, uint(5)).Return(account, nil)
	m.accountRepo.On("Save", mock.Anything, account).Return(nil)
	m.publisher.On("Publish", mock.Anything, events.AccountConfirmed, mock.Anything).Return(nil)
	m.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(msg notification.Message) bool {
		return msg.Kind == notification.KindAccountActive && msg.AccountID == 5
	})).Return(nil)

	_, err := svc.Confirm(context.Background(), 5)

	assert.NoError(t, err)
	m.notifier.AssertExpectations(t)
}

func TestAccountService_ConfirmByCode(t *testing.T) {
	tests := []struct {
		name          string
		code          string
		setupMock     func(m accountServiceMocks)
		expectedError error
	}{
		{
			name: "unknown code",
			code: "nope",
			setupMock: func(m accountServiceMocks) {
				m.accountRepo.On("FindByConfirmationCode", mock.Anything, "nope").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: errors.ErrAccountNotFound,
		},
		{
			name: "valid code confirms the account",
			code: "abc-123",
			setupMock: func(m accountServiceMocks) {
				m.accountRepo.On("FindByConfirmationCode", mock.Anything, "abc-123").
					Return(&model.Account{ID: 5, Email: "ada@example.com", ConfirmationCode: "abc-123"}, nil)
				m.accountRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
				m.publisher.On("Publish", mock.Anything, events.AccountConfirmed, mock.Anything).Return(nil)
			},
			expectedError: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestAccountService(false)
			tt.setupMock(m)

			account, err := svc.ConfirmByCode(context.Background(), tt.code)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, account)
			} else {
				assert.NoError(t, err)
				assert.True(t, account.Confirmed)
			}
			m.accountRepo.AssertExpectations(t)
		})
	}
}

func TestAccountService_Unconfirm(t *testing.T) {
	tests := []struct {
		name          string
		actorID       uint
		account       *model.Account
		expectedError error
	}{
		{
			name:          "unconfirmed account fails",
			actorID:       1,
			account:       &model.Account{ID: 5, Confirmed: false},
			expectedError: errors.ErrNotConfirmed,
		},
		{
			name:          "primordial administrator is protected",
			actorID:       5,
			account:       &model.Account{ID: model.PrimordialAdminID, Confirmed: true},
			expectedError: errors.ErrProtectedAccount,
		},
		{
			name:          "actor cannot unconfirm itself",
			actorID:       5,
			account:       &model.Account{ID: 5, Confirmed: true},
			expectedError: errors.ErrCannotUnconfirmSelf,
		},
		{
			name:    "unconfirm by another actor",
			actorID: 1,
			account: &model.Account{ID: 5, Email: "ada@example.com", Confirmed: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestAccountService(false)
			m.accountRepo.On("FindByID", mock.Anything, tt.account.ID).Return(tt.account, nil)
			if tt.expectedError == nil {
				m.accountRepo.On("Save", mock.Anything, tt.account).Return(nil)
				m.publisher.On("Publish", mock.Anything, events.AccountUnconfirmed, mock.Anything).Return(nil)
			}

			updated, err := svc.Unconfirm(context.Background(), tt.actorID, tt.account.ID)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, updated)
				m.accountRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
				assert.False(t, updated.Confirmed)
			}
			m.accountRepo.AssertExpectations(t)
			m.publisher.AssertExpectations(t)
		})
	}
}

func TestAccountService_Delete(t *testing.T) {
	svc, m := newTestAccountService(false)
	account := &model.Account{ID: 5, Email: "ada@example.com", Active: true}
	m.accountRepo.On("FindByID", mock.Anything, uint(5)).Return(account, nil)
	m.accountRepo.On("SoftDelete", mock.Anything, account).Return(nil)

	err := svc.Delete(context.Background(), 5)

	assert.NoError(t, err)
	m.accountRepo.AssertExpectations(t)
	// Soft deletion is recoverable; it publishes nothing.
	m.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestAccountService_ForceDelete(t *testing.T) {
	tests := []struct {
		name          string
		account       *model.Account
		setupMock     func(m accountServiceMocks, account *model.Account)
		expectedError error
	}{
		{
			name:          "live account must be soft-deleted first",
			account:       &model.Account{ID: 5, Email: "ada@example.com"},
			setupMock:     func(m accountServiceMocks, account *model.Account) {},
			expectedError: errors.ErrAccountNotDeleted,
		},
		{
			name:    "soft-deleted account is removed with its dependents",
			account: deletedAccount(5),
			setupMock: func(m accountServiceMocks, account *model.Account) {
				m.accountRepo.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
				m.accountRepo.On("DeletePasswordHistories", mock.Anything, uint(5)).Return(nil)
				m.accountRepo.On("DeleteProviders", mock.Anything, uint(5)).Return(nil)
				m.accountRepo.On("ForceDelete", mock.Anything, account).Return(nil)
				m.publisher.On("Publish", mock.Anything, events.AccountForceDeleted, mock.Anything).Return(nil)
			},
			expectedError: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestAccountService(false)
			m.accountRepo.On("FindByIDAnyState", mock.Anything, tt.account.ID).Return(tt.account, nil)
			tt.setupMock(m, tt.account)

			err := svc.ForceDelete(context.Background(), tt.account.ID)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				m.accountRepo.AssertNotCalled(t, "ForceDelete", mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
			}
			m.accountRepo.AssertExpectations(t)
			m.publisher.AssertExpectations(t)
		})
	}
}

func TestAccountService_Restore(t *testing.T) {
	tests := []struct {
		name          string
		account       *model.Account
		setupMock     func(m accountServiceMocks, account *model.Account)
		expectedError error
	}{
		{
			name:          "live account cannot be restored",
			account:       &model.Account{ID: 5, Email: "ada@example.com"},
			setupMock:     func(m accountServiceMocks, account *model.Account) {},
			expectedError: errors.ErrAccountNotDeleted,
		},
		{
			name:    "soft-deleted account comes back",
			account: deletedAccount(5),
			setupMock: func(m accountServiceMocks, account *model.Account) {
				m.accountRepo.On("Restore", mock.Anything, account).Return(nil)
				m.publisher.On("Publish", mock.Anything, events.AccountRestored, mock.Anything).Return(nil)
			},
			expectedError: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestAccountService(false)
			m.accountRepo.On("FindByIDAnyState", mock.Anything, tt.account.ID).Return(tt.account, nil)
			tt.setupMock(m, tt.account)

			restored, err := svc.Restore(context.Background(), tt.account.ID)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, restored)
				m.accountRepo.AssertNotCalled(t, "Restore", mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, restored)
			}
			m.accountRepo.AssertExpectations(t)
			m.publisher.AssertExpectations(t)
		})
	}
}

func TestAccountService_UpdatePassword(t *testing.T) {
	svc, m := newTestAccountService(false)
	account := &model.Account{ID: 5, Email: "ada@example.com", PasswordHash: "old-hash"}
	m.accountRepo.On("FindByID", mock.Anything, uint(5)).Return(account, nil)
	m.accountRepo.On("Save", mock.Anything, account).Return(nil)
	m.publisher.On("Publish", mock.Anything, events.PasswordChanged, mock.MatchedBy(func(p events.AccountPayload) bool {
		return p.AccountID == 5 && p.PasswordHash != "" && p.PasswordHash != "old-hash"
	})).Return(nil)

	updated, err := svc.UpdatePassword(context.Background(), 5, "new-password-123")

	assert.NoError(t, err)
	assert.NotEqual(t, "old-hash", updated.PasswordHash)
	m.accountRepo.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
}

func TestAccountService_Get_NotFound(t *testing.T) {
	svc, m := newTestAccountService(false)
	m.accountRepo.On("FindByID", mock.Anything, uint(404)).Return(nil, gorm.ErrRecordNotFound)

	account, err := svc.Get(context.Background(), 404)

	assert.Equal(t, errors.ErrAccountNotFound, err)
	assert.Nil(t, account)
	m.accountRepo.AssertExpectations(t)
}
