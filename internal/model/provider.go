package model

import "time"

// Provider links an account to an external OAuth-style identity provider.
type Provider struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	AccountID  uint      `json:"account_id" gorm:"index;not null"`
	Provider   string    `json:"provider" gorm:"size:64;not null"`
	ProviderID string    `json:"provider_id" gorm:"size:191;not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
