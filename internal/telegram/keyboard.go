package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"slotbot/internal/scheduling"
)

// Callback data is "<kind>|<session>[|<value>]" and must fit in 64 bytes.
const (
	selectPrefix = "sel"
	submitPrefix = "sub"
	noopPrefix   = "nop"
	eventPrefix  = "evt"

	maxCallbackData = 64
	selectedMark    = "✅ "
)

type callback struct {
	kind    string
	session uuid.UUID
	value   string
}

func encodeCallback(kind string, session uuid.UUID, value string) string {
	if value == "" {
		return kind + "|" + session.String()
	}
	return kind + "|" + session.String() + "|" + value
}

func eventCallback(eventID string) string { return eventPrefix + "|" + eventID }

func decodeCallback(data string) (callback, error) {
	parts := strings.SplitN(data, "|", 3)
	if len(parts) < 2 {
		return callback{}, fmt.Errorf("malformed callback %q", data)
	}
	cb := callback{kind: parts[0]}
	if cb.kind == eventPrefix {
		cb.value = parts[1]
		return cb, nil
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return callback{}, fmt.Errorf("malformed session in callback %q: %w", data, err)
	}
	cb.session = id
	if len(parts) == 3 {
		cb.value = parts[2]
	}
	return cb, nil
}

// renderView turns a view into message text and an inline keyboard. The
// selector becomes one button per option with the default marked; the
// chosen option's description is shown in the text. A disabled submit
// button carries a no-op callback.
func renderView(session uuid.UUID, v scheduling.View) (string, tgbotapi.InlineKeyboardMarkup) {
	text := v.Content
	rows := [][]tgbotapi.InlineKeyboardButton{}
	if v.Selector != nil {
		for _, o := range v.Selector.Options {
			label := o.Label
			if o.Default {
				label = selectedMark + label
				text += fmt.Sprintf("\n\n%s: %s\n%s", v.Selector.Placeholder, o.Label, o.Description)
			}
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, encodeCallback(selectPrefix, session, o.Value)),
			))
		}
	}
	if v.Submit != nil {
		kind := noopPrefix
		if v.Submit.Enabled {
			kind = submitPrefix
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(v.Submit.Label, encodeCallback(kind, session, "")),
		))
	}
	return text, tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// eventPicker lists the events of a group as buttons that start a signup.
func eventPicker(events []scheduling.EventListing) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(events))
	for _, e := range events {
		data := eventCallback(e.ID)
		if len(data) > maxCallbackData {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s (%s)", e.Name, e.Relative), data),
		))
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}
