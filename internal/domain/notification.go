package domain

import (
	"encoding/json"
	"time"
)

type NotificationType string

const (
	NotificationTypeEventFinalized NotificationType = "event_finalized"
	NotificationTypeEventReminder  NotificationType = "event_reminder"
	NotificationTypeEventConflict  NotificationType = "event_conflict"
)

type Notification struct {
	ID      int64            `db:"id"`
	UserID  int64            `db:"user_id"`
	EventID *int64           `db:"event_id"`
	Type    NotificationType `db:"type"`
	Title   string           `db:"title"`
	Body    string           `db:"body"`
	Data    json.RawMessage  `db:"data"`
	ReadAt  *time.Time       `db:"read_at"`

	CreatedAt time.Time `db:"created_at"`
}
