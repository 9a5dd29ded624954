package repository

import "errors"

var (
	ErrEventNotFound        = errors.New("event not found")
	ErrOptionNotFound       = errors.New("time option not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrCircleNotFound       = errors.New("circle not found")
	ErrMemberNotFound       = errors.New("circle member not found")
	ErrRsvpNotFound         = errors.New("rsvp not found")
	ErrNotificationNotFound = errors.New("notification not found")
)
