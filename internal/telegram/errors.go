package telegram

import (
	"errors"

	"slotbot/internal/scheduling"
)

// userMessage is the text shown to a chat member for err.
func userMessage(err error) string {
	switch {
	case errors.Is(err, scheduling.ErrNoSlotSelected):
		return "please select a timeslot first"
	case errors.Is(err, scheduling.ErrSessionClosed):
		return "this signup is already finished, run /signup again"
	case errors.Is(err, scheduling.ErrRepositoryWrite):
		return "could not save, please try again later"
	case scheduling.IsUserError(err):
		return err.Error()
	default:
		return "something went wrong, please try again later"
	}
}
