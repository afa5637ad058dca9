package scheduling

import "errors"

var (
	ErrDuplicateEvent       = errors.New("event already exists")
	ErrUnknownEvent         = errors.New("unknown event")
	ErrInvalidTimestamp     = errors.New("invalid timestamp")
	ErrInvalidSlotSelection = errors.New("slot is outside the event window")
	ErrRepositoryWrite      = errors.New("failed to write event store")

	ErrInvalidEventWindow = errors.New("event must end after it starts")
	ErrInvalidSlotLength  = errors.New("invalid slot length")
	ErrTooManySlots       = errors.New("too many slots")
	ErrNoSlotSelected     = errors.New("no timeslot was selected")
	ErrSessionClosed      = errors.New("signup session is closed")
	ErrAnnouncement       = errors.New("failed to update event announcement")
)
