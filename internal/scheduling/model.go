// Package scheduling implements slot-based event signups for chat groups:
// slot generation, the per-guild event store, event creation and listing,
// and the interactive signup session.
package scheduling

import "time"

// DefaultSlotLength is used when an event is created without a slot length.
const DefaultSlotLength = 30 * time.Minute

type (
	GuildID   int64
	UserID    int64
	ChannelID int64
)

// MessageRef points at a message posted through the transport.
type MessageRef struct {
	ChannelID ChannelID `json:"channel_id"`
	MessageID int       `json:"message_id"`
}

type Signup struct {
	User     UserID        `json:"user"`
	Slot     time.Time     `json:"slot"`
	Duration time.Duration `json:"duration"`
}

type EventRecord struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Start        time.Time     `json:"start"`
	End          time.Time     `json:"end"`
	SlotLength   time.Duration `json:"slot_length"`
	Announcement MessageRef    `json:"announcement"`
	Signups      []Signup      `json:"signups"`
}

// WithSignup returns a copy of e with s appended. The receiver's slice is
// never written to, so callers holding the old record are unaffected.
func (e EventRecord) WithSignup(s Signup) EventRecord {
	signups := make([]Signup, 0, len(e.Signups)+1)
	signups = append(signups, e.Signups...)
	e.Signups = append(signups, s)
	return e
}

// Contains reports whether t lies in the half-open window [Start, End).
func (e EventRecord) Contains(t time.Time) bool {
	return !t.Before(e.Start) && t.Before(e.End)
}

// Store holds every event of one guild in insertion order.
type Store struct {
	Events []EventRecord `json:"events"`
}

func (s Store) Lookup(id string) (EventRecord, bool) {
	for _, e := range s.Events {
		if e.ID == id {
			return e, true
		}
	}
	return EventRecord{}, false
}

// WithEvent returns a copy of s with e stored under e.ID, replacing an
// existing record in place or appending a new one.
func (s Store) WithEvent(e EventRecord) Store {
	events := make([]EventRecord, 0, len(s.Events)+1)
	replaced := false
	for _, cur := range s.Events {
		if cur.ID == e.ID {
			events = append(events, e)
			replaced = true
			continue
		}
		events = append(events, cur)
	}
	if !replaced {
		events = append(events, e)
	}
	return Store{Events: events}
}
