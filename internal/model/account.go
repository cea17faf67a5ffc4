package model

import (
	"time"

	"gorm.io/gorm"
)

// PrimordialAdminID is the bootstrap administrator created by the seed
// command. It can never be un-confirmed.
const PrimordialAdminID uint = 1

// Account represents a managed user of the admin panel.
type Account struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	FirstName string `json:"first_name" gorm:"size:191;not null"`
	LastName  string `json:"last_name" gorm:"size:191;not null"`
	// Email uniqueness only holds among live accounts; a soft-deleted row may
	// keep the address, so the service enforces it instead of a unique index.
	Email            string         `json:"email" gorm:"size:255;not null;index"`
	PasswordHash     string         `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Active           bool           `json:"active" gorm:"default:true;index"`
	Confirmed        bool           `json:"confirmed" gorm:"default:false"`
	ConfirmationCode string         `json:"-" gorm:"size:64;index"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// Relations
	Roles             []Role            `json:"roles,omitempty" gorm:"many2many:account_roles"`
	Permissions       []Permission      `json:"permissions,omitempty" gorm:"many2many:account_permissions"`
	PasswordHistories []PasswordHistory `json:"-" gorm:"foreignKey:AccountID"`
	Providers         []Provider        `json:"providers,omitempty" gorm:"foreignKey:AccountID"`
}

// FullName returns first and last name joined for display.
func (a *Account) FullName() string {
	return a.FirstName + " " + a.LastName
}

// IsDeleted reports whether the account is currently soft-deleted.
func (a *Account) IsDeleted() bool {
	return a.DeletedAt.Valid
}
