package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"slotbot/internal/telemetry"
)

// Reminder posts a notice to the event's announcement channel shortly
// before each signed-up slot starts. Each run covers the slots starting in
// (previous run + lead, this run + lead], so consecutive runs neither skip
// nor repeat a slot.
type Reminder struct {
	repo      *Repository
	messenger Messenger
	lead      time.Duration
	now       func() time.Time

	mu   sync.Mutex
	last time.Time
}

func NewReminder(repo *Repository, messenger Messenger, lead time.Duration) *Reminder {
	r := &Reminder{repo: repo, messenger: messenger, lead: lead, now: time.Now}
	r.last = r.now()
	return r
}

// Run sends the reminders that became due since the previous run.
func (r *Reminder) Run(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	from, to := r.last.Add(r.lead), now.Add(r.lead)
	r.last = now

	guilds, err := r.repo.Guilds(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, g := range guilds {
		store, err := r.repo.Get(ctx, g)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, ev := range store.Events {
			for _, s := range ev.Signups {
				if !s.Slot.After(from) || s.Slot.After(to) {
					continue
				}
				if err := r.send(ctx, g, ev, s, now); err != nil {
					errs = append(errs, err)
				}
			}
		}
	}
	return errors.Join(errs...)
}

func (r *Reminder) send(ctx context.Context, g GuildID, ev EventRecord, s Signup, now time.Time) error {
	text := fmt.Sprintf("⏰ %s: slot at %s for user %d starts %s",
		ev.Name, FormatShort(s.Slot), s.User, FormatRelative(s.Slot, now))
	if _, err := r.messenger.CreateMessage(ctx, ev.Announcement.ChannelID, text); err != nil {
		return fmt.Errorf("remind guild %d event %s: %w", g, ev.ID, err)
	}
	telemetry.Inc(telemetry.RemindersSent)
	slog.Info("reminder sent", slog.Int64("guild", int64(g)), slog.String("event", ev.ID), slog.Int64("user", int64(s.User)))
	return nil
}
