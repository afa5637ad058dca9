package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"slotbot/internal/scheduling"
)

// Messenger posts announcements and reminders to group chats.
type Messenger struct {
	s sender
}

func NewMessenger(s sender) *Messenger { return &Messenger{s: s} }

func (m *Messenger) CreateMessage(_ context.Context, channel scheduling.ChannelID, text string) (scheduling.MessageRef, error) {
	msg := tgbotapi.NewMessage(int64(channel), text)
	msg.DisableWebPagePreview = true
	sent, err := m.s.Send(msg)
	if err != nil {
		return scheduling.MessageRef{}, fmt.Errorf("send message to %d: %w", channel, err)
	}
	return scheduling.MessageRef{ChannelID: channel, MessageID: sent.MessageID}, nil
}

func (m *Messenger) EditMessage(_ context.Context, ref scheduling.MessageRef, v scheduling.View) error {
	return editView(m.s, int64(ref.ChannelID), ref.MessageID, uuid.Nil, v)
}

func editView(s sender, chatID int64, messageID int, session uuid.UUID, v scheduling.View) error {
	text, kb := renderView(session, v)
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, kb)
	edit.DisableWebPagePreview = v.SuppressEmbeds
	if _, err := s.Send(edit); err != nil {
		return fmt.Errorf("edit message %d in %d: %w", messageID, chatID, err)
	}
	return nil
}

// sessionRenderer draws one signup session into a single response message:
// the first render replies to the command, later renders edit that reply.
type sessionRenderer struct {
	s         sender
	chatID    int64
	replyTo   int
	session   uuid.UUID
	messageID int
}

func (r *sessionRenderer) Render(_ context.Context, v scheduling.View) error {
	if r.messageID != 0 {
		return editView(r.s, r.chatID, r.messageID, r.session, v)
	}
	text, kb := renderView(r.session, v)
	msg := tgbotapi.NewMessage(r.chatID, text)
	msg.ReplyToMessageID = r.replyTo
	msg.DisableWebPagePreview = v.SuppressEmbeds
	if len(kb.InlineKeyboard) > 0 {
		msg.ReplyMarkup = kb
	}
	sent, err := r.s.Send(msg)
	if err != nil {
		return fmt.Errorf("send signup message to %d: %w", r.chatID, err)
	}
	r.messageID = sent.MessageID
	return nil
}
