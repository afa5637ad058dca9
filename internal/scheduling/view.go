package scheduling

import (
	"context"
	"fmt"
	"time"
)

// View is a transport-neutral description of a message and its controls.
// A nil Selector or Submit means the control is absent.
type View struct {
	Content        string
	Selector       *Selector
	Submit         *Button
	SuppressEmbeds bool
}

// Selector is a single-choice list of options.
type Selector struct {
	Placeholder string
	Options     []Option
}

type Option struct {
	Label       string
	Value       string
	Description string
	Default     bool
}

type Button struct {
	Label   string
	Enabled bool
}

// Messenger is the outbound chat transport used for announcements and reminders.
type Messenger interface {
	CreateMessage(ctx context.Context, channel ChannelID, text string) (MessageRef, error)
	EditMessage(ctx context.Context, ref MessageRef, view View) error
}

// Renderer redraws the response message bound to one signup interaction.
type Renderer interface {
	Render(ctx context.Context, view View) error
}

const (
	selectPrompt      = "please select a timeslot and submit"
	selectPlaceholder = "timeslot start"
	submitLabel       = "Submit"
)

// SlotOptions builds one option per generated slot, marking selected as
// the default when it matches a slot.
func SlotOptions(e EventRecord, selected time.Time) []Option {
	opts := make([]Option, 0, SlotCount(e.Start, e.End, e.SlotLength))
	i := 0
	for slot := range GenerateSlots(e.Start, e.End, e.SlotLength) {
		opts = append(opts, Option{
			Label:       FormatLong(slot),
			Value:       slotValue(slot),
			Description: fmt.Sprintf("slot: %d, until %s", i, FormatLong(slot.Add(e.SlotLength))),
			Default:     !selected.IsZero() && slot.Equal(selected),
		})
		i++
	}
	return opts
}

func selectionView(e EventRecord, selected time.Time, submitEnabled bool) View {
	return View{
		Content: selectPrompt,
		Selector: &Selector{
			Placeholder: selectPlaceholder,
			Options:     SlotOptions(e, selected),
		},
		Submit: &Button{Label: submitLabel, Enabled: submitEnabled},
	}
}
