package service

import (
	"context"
	"encoding/json"
	"fmt"

	"floweradmin/internal/events"
	"floweradmin/internal/model"
	"floweradmin/internal/repository"
)

// AuditService is the event-stream subscriber side: it persists every
// lifecycle event as an audit record, and on password changes also records
// the superseded credential to password history.
type AuditService interface {
	Record(ctx context.Context, event events.Event) error
	History(ctx context.Context, accountID uint, limit int) ([]model.AuditRecord, error)
}

type auditService struct {
	auditRepo   repository.AuditRepository
	accountRepo repository.AccountRepository
}

// NewAuditService creates a new audit service.
func NewAuditService(auditRepo repository.AuditRepository, accountRepo repository.AccountRepository) AuditService {
	return &auditService{
		auditRepo:   auditRepo,
		accountRepo: accountRepo,
	}
}

// Record persists one consumed lifecycle event. Errors propagate so the
// subscriber leaves the message un-acked for redelivery.
func (s *auditService) Record(ctx context.Context, event events.Event) error {
	payload := event.Data

	if event.Type == events.PasswordChanged && payload.PasswordHash != "" {
		history := &model.PasswordHistory{
			AccountID:    payload.AccountID,
			PasswordHash: payload.PasswordHash,
		}
		if err := s.accountRepo.AddPasswordHistory(ctx, history); err != nil {
			return fmt.Errorf("record password history: %w", err)
		}
		// hashes stay out of the audit table
		payload.PasswordHash = ""
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &model.AuditRecord{
		EventType: event.Type,
		AccountID: payload.AccountID,
		Payload:   string(raw),
	}
	if err := s.auditRepo.Create(ctx, record); err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}
	return nil
}

// History returns the most recent audit records for an account.
func (s *auditService) History(ctx context.Context, accountID uint, limit int) ([]model.AuditRecord, error) {
	return s.auditRepo.ListByAccount(ctx, accountID, limit)
}
