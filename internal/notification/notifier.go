package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Notification kinds
const (
	KindNeedsConfirmation = "needs_confirmation"
	KindAccountActive     = "account_active"
)

// Queue is the Redis list the mail worker drains.
const Queue = "notifications"

// Message is one queued notification. ConfirmationCode is set only on
// needs_confirmation messages.
type Message struct {
	Kind             string    `json:"kind"`
	AccountID        uint      `json:"account_id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	ConfirmationCode string    `json:"confirmation_code,omitempty"`
	QueuedAt         time.Time `json:"queued_at"`
}

// Dispatcher hands notifications off for asynchronous delivery. Dispatch is
// fire-and-forget from the caller's perspective; a failed dispatch never
// fails the account mutation it accompanies.
type Dispatcher interface {
	Notify(ctx context.Context, msg Message) error
}

// QueueDispatcher pushes messages onto a Redis list consumed by an external
// mail worker.
type QueueDispatcher struct {
	client *redis.Client
	queue  string
}

// NewQueueDispatcher creates a dispatcher on the given queue.
func NewQueueDispatcher(client *redis.Client, queue string) *QueueDispatcher {
	return &QueueDispatcher{client: client, queue: queue}
}

func (d *QueueDispatcher) Notify(ctx context.Context, msg Message) error {
	if d == nil || d.client == nil {
		return nil
	}
	msg.QueuedAt = time.Now().UTC()

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := d.client.LPush(ctx, d.queue, payload).Err(); err != nil {
		// fail safe: delivery is best-effort
		return nil
	}
	return nil
}
