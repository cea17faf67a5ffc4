package model

import "time"

// AuditRecord is one persisted lifecycle event, written by the audit
// subscriber consuming the account event stream.
type AuditRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	EventType string    `json:"event_type" gorm:"size:64;not null;index"`
	AccountID uint      `json:"account_id" gorm:"index"`
	Payload   string    `json:"payload" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}
