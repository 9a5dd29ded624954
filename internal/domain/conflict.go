package domain

type ConflictSource string

const (
	// ConflictSourcePersonal marks a collision with the member's own
	// personal calendar.
	ConflictSourcePersonal ConflictSource = "personal"
	// ConflictSourceCircle marks a collision with another circle event
	// the member has RSVP'd going to.
	ConflictSourceCircle ConflictSource = "circle"
)

// Conflict describes the first colliding commitment found for a member
// against a committed event time range.
type Conflict struct {
	Source          ConflictSource
	PersonalEventID int64
	EventID         int64
	Title           string
}
