package domain

import "time"

type RsvpStatus string

const (
	RsvpStatusGoing    RsvpStatus = "going"
	RsvpStatusNotGoing RsvpStatus = "not_going"
	RsvpStatusMaybe    RsvpStatus = "maybe"
)

func ValidRsvpStatus(s RsvpStatus) bool {
	switch s {
	case RsvpStatusGoing, RsvpStatusNotGoing, RsvpStatusMaybe:
		return true
	}
	return false
}

type Rsvp struct {
	ID      int64      `db:"id"`
	EventID int64      `db:"event_id"`
	UserID  int64      `db:"user_id"`
	Status  RsvpStatus `db:"status"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
