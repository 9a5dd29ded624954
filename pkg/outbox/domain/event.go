package domain

import (
	"encoding/json"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// DefaultMaxRetries is the retry budget given to events whose producer
// does not choose one explicitly.
const DefaultMaxRetries = 3

// Event types dispatched by the outbox worker.
const (
	EventTypeProcessConflicts = "event.process_conflicts"
	EventTypePushNotification = "notification.push"
	EventTypeReminder         = "notification.reminder"
	EventTypeEmailInvitation  = "email.invitation"
	EventTypeEmailMagicLink   = "email.magic_link"
)

type OutboxEvent struct {
	Id            int64           `db:"id"`
	AggregateType string          `db:"aggregate_type"`
	AggregateID   string          `db:"aggregate_id"`
	EventType     string          `db:"event_type"`
	Payload       json.RawMessage `db:"payload"`
	Status        Status          `db:"status"`
	RetryCount    int             `db:"retry_count"`
	MaxRetries    int             `db:"max_retries"`
	ScheduledFor  *time.Time      `db:"scheduled_for"`
	LastError     *string         `db:"last_error"`
	CreatedAt     time.Time       `db:"created_at"`
}

// Due reports whether the event is ready to be picked up at the given
// instant. Events without a schedule are due immediately.
func (e *OutboxEvent) Due(now time.Time) bool {
	return e.ScheduledFor == nil || !e.ScheduledFor.After(now)
}

// Payload shapes for the event types above.

type ProcessConflictsPayload struct {
	EventID  int64 `json:"event_id"`
	CircleID int64 `json:"circle_id"`
}

type NotificationPayload struct {
	NotificationID int64 `json:"notification_id"`
	UserID         int64 `json:"user_id"`
}

type InvitationEmailPayload struct {
	InviterName  string `json:"inviter_name"`
	CircleName   string `json:"circle_name"`
	Email        string `json:"email"`
	Token        string `json:"token"`
	IsRegistered bool   `json:"is_registered"`
}

type MagicLinkEmailPayload struct {
	Email string `json:"email"`
	Token string `json:"token"`
}
