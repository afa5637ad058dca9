package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"slotbot/internal/telemetry"
)

const placeholderText = "new event placeholder"

// Slot length bounds accepted from the command surface.
const (
	MinSlotLength = 5 * time.Minute
	MaxSlotLength = 300 * time.Minute
)

type CreateEventParams struct {
	Guild       GuildID
	Channel     ChannelID
	ID          string
	Name        string
	Description string
	Start       time.Time
	End         time.Time
	SlotLength  time.Duration
}

// EventListing is one line of ListEvents output.
type EventListing struct {
	ID       string
	Name     string
	Start    time.Time
	Relative string
}

func (l EventListing) String() string {
	return fmt.Sprintf("%s %s %s", l.ID, l.Name, l.Relative)
}

// Manager creates and lists events.
type Manager struct {
	repo      *Repository
	messenger Messenger
	now       func() time.Time
}

func NewManager(repo *Repository, messenger Messenger) *Manager {
	return &Manager{repo: repo, messenger: messenger, now: time.Now}
}

// SlotLengthMinutes converts a command-surface minute count into a slot
// length. The count is range-checked before conversion so huge values
// cannot wrap around.
func SlotLengthMinutes(minutes int) (time.Duration, error) {
	if minutes < int(MinSlotLength/time.Minute) || minutes > int(MaxSlotLength/time.Minute) {
		return 0, fmt.Errorf("%w: %d minutes not in [%s, %s]", ErrInvalidSlotLength,
			minutes, FormatSlotLength(MinSlotLength), FormatSlotLength(MaxSlotLength))
	}
	return time.Duration(minutes) * time.Minute, nil
}

// CreateEvent posts a placeholder announcement, persists the event with a
// reference to it and finally edits the announcement into the full summary.
// The id is checked before anything is posted; on ErrDuplicateEvent the
// store is unchanged. If only the final edit fails the persisted record is
// returned together with an ErrAnnouncement error.
func (m *Manager) CreateEvent(ctx context.Context, p CreateEventParams) (rec EventRecord, err error) {
	ctx, span := telemetry.StartSpan(ctx, "scheduling.Manager.CreateEvent",
		attribute.Int64("guild", int64(p.Guild)), attribute.String("event", p.ID))
	defer func() { telemetry.EndSpan(span, err) }()

	if p.SlotLength == 0 {
		p.SlotLength = DefaultSlotLength
	}
	if p.SlotLength < 0 {
		return EventRecord{}, fmt.Errorf("%w: must be positive", ErrInvalidSlotLength)
	}
	start := p.Start.UTC().Truncate(time.Second)
	end := p.End.UTC().Truncate(time.Second)
	if !start.Before(end) {
		return EventRecord{}, ErrInvalidEventWindow
	}

	s, err := m.repo.Get(ctx, p.Guild)
	if err != nil {
		return EventRecord{}, err
	}
	if existing, ok := s.Lookup(p.ID); ok {
		return EventRecord{}, fmt.Errorf("%w: %s %s", ErrDuplicateEvent, existing.ID, existing.Name)
	}

	ref, err := m.messenger.CreateMessage(ctx, p.Channel, placeholderText)
	if err != nil {
		return EventRecord{}, fmt.Errorf("post placeholder: %w", err)
	}

	rec = EventRecord{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Start:        start,
		End:          end,
		SlotLength:   p.SlotLength,
		Announcement: ref,
		Signups:      []Signup{},
	}

	// The store may have changed while the placeholder was posted.
	if err := m.repo.Insert(ctx, p.Guild, rec); err != nil {
		slog.Warn("event not persisted, placeholder left in place",
			slog.Int64("guild", int64(p.Guild)), slog.String("event", p.ID), slog.Int("message", ref.MessageID), slog.Any("err", err))
		return EventRecord{}, err
	}
	telemetry.Inc(telemetry.EventsCreated)
	slog.Info("event created", slog.Int64("guild", int64(p.Guild)), slog.String("event", p.ID),
		slog.Time("start", start), slog.Time("end", end), slog.Duration("slot_length", p.SlotLength))

	if err := m.messenger.EditMessage(ctx, ref, View{Content: announcementText(rec, m.now())}); err != nil {
		return rec, fmt.Errorf("%w: %w", ErrAnnouncement, err)
	}
	return rec, nil
}

// ListEvents returns the guild's events in insertion order.
func (m *Manager) ListEvents(ctx context.Context, guild GuildID) ([]EventListing, error) {
	s, err := m.repo.Get(ctx, guild)
	if err != nil {
		return nil, err
	}
	now := m.now()
	out := make([]EventListing, 0, len(s.Events))
	for _, e := range s.Events {
		out = append(out, EventListing{
			ID:       e.ID,
			Name:     e.Name,
			Start:    e.Start,
			Relative: FormatRelative(e.Start, now),
		})
	}
	return out, nil
}

// Event looks up a single event.
func (m *Manager) Event(ctx context.Context, guild GuildID, id string) (EventRecord, error) {
	s, err := m.repo.Get(ctx, guild)
	if err != nil {
		return EventRecord{}, err
	}
	e, ok := s.Lookup(id)
	if !ok {
		return EventRecord{}, fmt.Errorf("%w: %s", ErrUnknownEvent, id)
	}
	return e, nil
}

// IsUserError reports whether err describes bad input rather than an
// infrastructure failure.
func IsUserError(err error) bool {
	for _, target := range []error{
		ErrDuplicateEvent, ErrUnknownEvent, ErrInvalidTimestamp, ErrInvalidSlotSelection,
		ErrInvalidEventWindow, ErrInvalidSlotLength, ErrTooManySlots, ErrNoSlotSelected, ErrSessionClosed,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
