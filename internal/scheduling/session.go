package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"slotbot/internal/telemetry"
)

type State int

const (
	SelectingSlot State = iota
	SlotChosen
	Committed
	Errored
)

func (s State) String() string {
	switch s {
	case SelectingSlot:
		return "selecting_slot"
	case SlotChosen:
		return "slot_chosen"
	case Committed:
		return "committed"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further input is accepted.
func (s State) Terminal() bool { return s == Committed || s == Errored }

// Input is an interaction event delivered to a Session.
type Input interface{ isInput() }

// SlotSelected carries the raw value of the option the user picked.
type SlotSelected struct{ Raw string }

// SubmitPressed is the submit button being pressed.
type SubmitPressed struct{}

func (SlotSelected) isInput()  {}
func (SubmitPressed) isInput() {}

type effect int

const (
	effectNone effect = iota
	effectRender
	effectCommit
)

// machine is the session's private state value.
type machine struct {
	state    State
	selected time.Time
}

// transition computes the next machine value and the effect Handle must run.
// Commit outcomes (Committed / Errored) are decided by Handle.
func transition(m machine, e EventRecord, in Input) (machine, effect, error) {
	if m.state.Terminal() {
		return m, effectNone, ErrSessionClosed
	}
	switch in := in.(type) {
	case SlotSelected:
		t, err := parseSlotValue(in.Raw)
		if err != nil {
			return machine{state: SelectingSlot}, effectRender, err
		}
		if !e.Contains(t) {
			return machine{state: SelectingSlot}, effectRender,
				fmt.Errorf("%w: %s", ErrInvalidSlotSelection, FormatShort(t))
		}
		return machine{state: SlotChosen, selected: t}, effectRender, nil
	case SubmitPressed:
		if m.state != SlotChosen {
			return m, effectNone, ErrNoSlotSelected
		}
		return m, effectCommit, nil
	default:
		return m, effectNone, fmt.Errorf("unsupported input %T", in)
	}
}

type SessionParams struct {
	Repo     *Repository
	Renderer Renderer
	Guild    GuildID
	EventID  string
	User     UserID

	// UserDisplay is how the user is named in the confirmation.
	UserDisplay string
}

// Session is one user's interactive signup for one event. It is not safe
// for concurrent use: the transport delivers inputs one at a time.
type Session struct {
	repo     *Repository
	renderer Renderer
	guild    GuildID
	user     UserID
	display  string
	event    EventRecord
	m        machine
}

// NewSession loads the event and renders the initial slot selection.
func NewSession(ctx context.Context, p SessionParams) (*Session, error) {
	store, err := p.Repo.Get(ctx, p.Guild)
	if err != nil {
		return nil, err
	}
	ev, ok := store.Lookup(p.EventID)
	if !ok {
		return nil, fmt.Errorf("%w: could not find event for key %s", ErrUnknownEvent, p.EventID)
	}
	display := p.UserDisplay
	if display == "" {
		display = fmt.Sprintf("user %d", p.User)
	}
	s := &Session{
		repo:     p.Repo,
		renderer: p.Renderer,
		guild:    p.Guild,
		user:     p.User,
		display:  display,
		event:    ev,
		m:        machine{state: SelectingSlot},
	}
	if err := s.render(ctx); err != nil {
		return nil, err
	}
	telemetry.Inc(telemetry.SessionsStarted)
	return s, nil
}

func (s *Session) State() State { return s.m.state }
func (s *Session) Selected() time.Time { return s.m.selected }
func (s *Session) Event() EventRecord { return s.event }
func (s *Session) Guild() GuildID { return s.guild }
func (s *Session) User() UserID { return s.user }

// Handle applies one input. Rejected selections return ErrInvalidTimestamp
// or ErrInvalidSlotSelection after the view has been redrawn with submit
// disabled. A failed commit moves the session to Errored and returns the
// repository error.
func (s *Session) Handle(ctx context.Context, in Input) error {
	next, eff, err := transition(s.m, s.event, in)
	s.m = next
	switch eff {
	case effectRender:
		if err != nil {
			telemetry.Inc(telemetry.SelectionsRejected)
		}
		if rerr := s.render(ctx); rerr != nil {
			return rerr
		}
		return err
	case effectCommit:
		return s.commit(ctx)
	default:
		return err
	}
}

func (s *Session) render(ctx context.Context) error {
	v := selectionView(s.event, s.m.selected, s.m.state == SlotChosen)
	if err := s.renderer.Render(ctx, v); err != nil {
		return fmt.Errorf("render slot selection: %w", err)
	}
	return nil
}

func (s *Session) commit(ctx context.Context) error {
	signup := Signup{User: s.user, Slot: s.m.selected, Duration: s.event.SlotLength}
	rec, err := s.repo.Update(ctx, s.guild, s.event.ID, func(e EventRecord) EventRecord {
		return e.WithSignup(signup)
	})
	if err != nil {
		s.m.state = Errored
		telemetry.Inc(telemetry.SessionsFailed)
		slog.Error("signup commit failed", slog.Int64("guild", int64(s.guild)), slog.String("event", s.event.ID),
			slog.Int64("user", int64(s.user)), slog.Any("err", err))
		if rerr := s.renderer.Render(ctx, View{Content: "signup failed: " + err.Error()}); rerr != nil {
			slog.Warn("failed to render signup error", slog.Any("err", rerr))
		}
		return err
	}
	s.event = rec
	s.m.state = Committed
	telemetry.Inc(telemetry.SignupsCommitted)
	slog.Info("signup committed", slog.Int64("guild", int64(s.guild)), slog.String("event", rec.ID),
		slog.Int64("user", int64(s.user)), slog.Time("slot", signup.Slot))

	v := View{Content: confirmationText(s.display, signup.Slot), SuppressEmbeds: true}
	if err := s.renderer.Render(ctx, v); err != nil {
		return fmt.Errorf("signup saved but confirmation not shown: %w", err)
	}
	return nil
}
