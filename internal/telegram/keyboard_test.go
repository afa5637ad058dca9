package telegram

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotbot/internal/scheduling"
)

func TestCallbackRoundTrip(t *testing.T) {
	id := uuid.New()
	data := encodeCallback(selectPrefix, id, "2030-01-01T18:30:00Z")
	assert.LessOrEqual(t, len(data), maxCallbackData)

	cb, err := decodeCallback(data)
	require.NoError(t, err)
	assert.Equal(t, callback{kind: selectPrefix, session: id, value: "2030-01-01T18:30:00Z"}, cb)

	cb, err = decodeCallback(encodeCallback(submitPrefix, id, ""))
	require.NoError(t, err)
	assert.Equal(t, callback{kind: submitPrefix, session: id}, cb)

	cb, err = decodeCallback(eventCallback("stream"))
	require.NoError(t, err)
	assert.Equal(t, callback{kind: eventPrefix, value: "stream"}, cb)

	for _, bad := range []string{"", "sel", "sel|not-a-uuid|x"} {
		_, err := decodeCallback(bad)
		assert.Error(t, err, bad)
	}
}

func TestRenderView(t *testing.T) {
	id := uuid.New()
	v := scheduling.View{
		Content: "pick",
		Selector: &scheduling.Selector{Placeholder: "timeslot start", Options: []scheduling.Option{
			{Label: "A", Value: "a", Description: "slot: 0"},
			{Label: "B", Value: "b", Description: "slot: 1", Default: true},
		}},
		Submit: &scheduling.Button{Label: "Submit", Enabled: true},
	}
	text, kb := renderView(id, v)
	assert.Equal(t, "pick\n\ntimeslot start: B\nslot: 1", text)
	require.Len(t, kb.InlineKeyboard, 3)
	assert.Equal(t, "A", kb.InlineKeyboard[0][0].Text)
	assert.Equal(t, selectedMark+"B", kb.InlineKeyboard[1][0].Text)
	assert.Equal(t, encodeCallback(selectPrefix, id, "b"), buttonData(kb.InlineKeyboard[1][0]))
	assert.Equal(t, encodeCallback(submitPrefix, id, ""), buttonData(kb.InlineKeyboard[2][0]))

	v.Submit.Enabled = false
	_, kb = renderView(id, v)
	assert.Equal(t, encodeCallback(noopPrefix, id, ""), buttonData(kb.InlineKeyboard[2][0]))

	text, kb = renderView(id, scheduling.View{Content: "done"})
	assert.Equal(t, "done", text)
	assert.Empty(t, kb.InlineKeyboard)
}

func TestEventPickerSkipsOversizedIDs(t *testing.T) {
	long := fmt.Sprintf("%070d", 1)
	kb := eventPicker([]scheduling.EventListing{
		{ID: "ok", Name: "OK", Relative: "in 2 hours"},
		{ID: long, Name: "Long"},
	})
	require.Len(t, kb.InlineKeyboard, 1)
	assert.Equal(t, "OK (in 2 hours)", kb.InlineKeyboard[0][0].Text)
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{scheduling.ErrNoSlotSelected, "please select a timeslot first"},
		{fmt.Errorf("x: %w", scheduling.ErrSessionClosed), "this signup is already finished, run /signup again"},
		{fmt.Errorf("%w: disk", scheduling.ErrRepositoryWrite), "could not save, please try again later"},
		{fmt.Errorf("%w: stream", scheduling.ErrDuplicateEvent), "event already exists: stream"},
		{errors.New("connection reset"), "something went wrong, please try again later"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, userMessage(tt.err))
	}
}

func TestMessenger(t *testing.T) {
	s := &fakeSender{}
	m := NewMessenger(s)
	ref, err := m.CreateMessage(context.Background(), scheduling.ChannelID(groupID), "hello")
	require.NoError(t, err)
	assert.Equal(t, scheduling.MessageRef{ChannelID: scheduling.ChannelID(groupID), MessageID: 1}, ref)

	require.NoError(t, m.EditMessage(context.Background(), ref, scheduling.View{Content: "updated"}))
	assert.Equal(t, "updated", s.lastEdit(t).Text)

	s.sendErr = errors.New("flood wait")
	_, err = m.CreateMessage(context.Background(), scheduling.ChannelID(groupID), "again")
	require.ErrorContains(t, err, "flood wait")
	require.ErrorContains(t, m.EditMessage(context.Background(), ref, scheduling.View{}), "flood wait")
}

func TestRegistryTTLDisabled(t *testing.T) {
	r := newRegistry(0)
	id := uuid.New()
	r.add(id, &sessionEntry{})
	r.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	_, ok := r.get(id)
	assert.True(t, ok)
	assert.Equal(t, 0, r.Sweep())
	r.remove(id)
	assert.Equal(t, 0, r.len())
}
