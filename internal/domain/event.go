package domain

import "time"

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusLocked    EventStatus = "locked"
	EventStatusFinalized EventStatus = "finalized"
)

// eventTransitions is the full lifecycle. Status only moves forward;
// finalized is terminal.
var eventTransitions = map[EventStatus][]EventStatus{
	EventStatusDraft:     {EventStatusLocked, EventStatusFinalized},
	EventStatusLocked:    {EventStatusFinalized},
	EventStatusFinalized: {},
}

func CanTransition(from, to EventStatus) bool {
	for _, next := range eventTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Event struct {
	ID              int64       `db:"id"`
	CircleID        int64       `db:"circle_id"`
	CreatorID       int64       `db:"creator_id"`
	Title           string      `db:"title"`
	Description     string      `db:"description"`
	Status          EventStatus `db:"status"`
	StartsAt        *time.Time  `db:"starts_at"`
	EndsAt          *time.Time  `db:"ends_at"`
	ReminderMinutes *int        `db:"reminder_minutes"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Committed reports whether the event has a fixed time range.
func (e *Event) Committed() bool {
	return e.StartsAt != nil && e.EndsAt != nil
}

type TimeOption struct {
	ID        int64     `db:"id"`
	EventID   int64     `db:"event_id"`
	StartTime time.Time `db:"start_time"`
	EndTime   time.Time `db:"end_time"`
}

type TimeVote struct {
	ID       int64 `db:"id"`
	EventID  int64 `db:"event_id"`
	OptionID int64 `db:"option_id"`
	VoterID  int64 `db:"voter_id"`
}

// OptionTally is one option together with its current vote count, as
// consumed by the winner computation.
type OptionTally struct {
	Option    TimeOption
	VoteCount int
}
