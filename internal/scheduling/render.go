package scheduling

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	longLayout  = "Monday, January 2, 2006 15:04 MST"
	shortLayout = "Jan 2, 2006 15:04 MST"
)

func FormatLong(t time.Time) string  { return t.UTC().Format(longLayout) }
func FormatShort(t time.Time) string { return t.UTC().Format(shortLayout) }

// FormatRelative describes t relative to now, e.g. "3 hours from now".
func FormatRelative(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

// FormatSlotLength renders whole hours and minutes, e.g. "1h 30m".
func FormatSlotLength(d time.Duration) string {
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dm", m)
	}
}

// SignupUsage is the command a member runs to sign up for the event.
func SignupUsage(eventID string) string {
	return "/signup " + eventID
}

func announcementText(e EventRecord, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "id: %s\n", e.ID)
	fmt.Fprintf(&b, "event: %s\n", e.Name)
	fmt.Fprintf(&b, "start: %s (%s)\n", FormatLong(e.Start), FormatRelative(e.Start, now))
	fmt.Fprintf(&b, "slots: %s\n", FormatSlotLength(e.SlotLength))
	if e.Description != "" {
		b.WriteString("\n" + e.Description + "\n")
	}
	b.WriteString("\nsignup with\n")
	b.WriteString(SignupUsage(e.ID))
	return b.String()
}

func confirmationText(user string, slot time.Time) string {
	return fmt.Sprintf("registered %s for %s", user, FormatShort(slot))
}
