package domain

import "time"

type PersonalEvent struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Title     string    `db:"title"`
	StartTime time.Time `db:"start_time"`
	EndTime   time.Time `db:"end_time"`
	Cancelled bool      `db:"cancelled"`

	CreatedAt time.Time `db:"created_at"`
}
