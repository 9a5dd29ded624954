package service

import "errors"

// Failure kinds returned by the scheduling core. The HTTP layer maps
// them to status codes; everything else propagates wrapped as a store
// error.
var (
	ErrInvalidTimeRange      = errors.New("end time must be after start time")
	ErrEventNotVotable       = errors.New("event is no longer accepting votes")
	ErrOptionNotFound        = errors.New("time option does not belong to this event")
	ErrForbidden             = errors.New("only the creator or a circle owner/admin may do this")
	ErrAlreadyFinalized      = errors.New("event is already finalized")
	ErrInvalidOption         = errors.New("selected option does not belong to this event")
	ErrNoTimesAvailable      = errors.New("event has no time options to choose from")
	ErrCannotModifyFinalized = errors.New("cannot change the time of a finalized event")
	ErrInvalidTransition     = errors.New("invalid event status transition")
	ErrNotMember             = errors.New("user is not a member of this circle")
	ErrInvalidRsvpStatus     = errors.New("invalid rsvp status")
)
