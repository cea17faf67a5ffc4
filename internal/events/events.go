package events

import "time"

// Lifecycle event types
const (
	AccountCreated      = "account.created"
	AccountUpdated      = "account.updated"
	PasswordChanged     = "password.changed"
	AccountDeactivated  = "account.deactivated"
	AccountReactivated  = "account.reactivated"
	AccountConfirmed    = "account.confirmed"
	AccountUnconfirmed  = "account.unconfirmed"
	AccountRestored     = "account.restored"
	AccountForceDeleted = "account.force_deleted"
)

// AccountEventsStream is the Redis stream all lifecycle events go to.
const AccountEventsStream = "account.events"

// Event is the envelope written to the stream.
type Event struct {
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      AccountPayload `json:"data"`
}

// AccountPayload carries the account snapshot an event refers to. ActorID is
// set for operations performed on someone else's account; PasswordHash only
// accompanies password.changed so the history subscriber can record it.
type AccountPayload struct {
	AccountID    uint   `json:"account_id"`
	Email        string `json:"email,omitempty"`
	ActorID      uint   `json:"actor_id,omitempty"`
	PasswordHash string `json:"password_hash,omitempty"`
}
