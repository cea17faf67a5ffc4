package model

import "time"

// PasswordHistory records a previously used credential for an account. Rows
// are written by the audit subscriber on password.changed events and removed
// when the account is permanently deleted.
type PasswordHistory struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	AccountID    uint      `json:"account_id" gorm:"index;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	CreatedAt    time.Time `json:"created_at"`
}
