package telegram

import (
	"context"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"slotbot/internal/auth"
	"slotbot/internal/scheduling"
	"slotbot/internal/telemetry"
)

// Deps are the collaborators a Bot serves commands from.
type Deps struct {
	Auth       *auth.Service
	Repo       *scheduling.Repository
	SessionTTL time.Duration
}

type Bot struct {
	api       *tgbotapi.BotAPI
	s         sender
	authSvc   *auth.Service
	repo      *scheduling.Repository
	manager   *scheduling.Manager
	messenger *Messenger
	sessions  *registry
}

func New(botToken string, d Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	b := newBot(botAPISender{api: api}, d)
	b.api = api
	return b, nil
}

func newBot(s sender, d Deps) *Bot {
	m := NewMessenger(s)
	return &Bot{
		s:         s,
		authSvc:   d.Auth,
		repo:      d.Repo,
		manager:   scheduling.NewManager(d.Repo, m),
		messenger: m,
		sessions:  newRegistry(d.SessionTTL),
	}
}

// Messenger exposes the outbound transport for reminders.
func (b *Bot) Messenger() *Messenger { return b.messenger }

// SweepSessions evicts expired signup sessions.
func (b *Bot) SweepSessions(context.Context) error {
	if n := b.sessions.Sweep(); n > 0 {
		slog.Info("expired signup sessions evicted", slog.Int("count", n))
	}
	return nil
}

// Start polls for updates until ctx is cancelled. Updates are handled one
// at a time, so each session receives its inputs in order.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	slog.Info("telegram bot started", slog.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		ctx, span := telemetry.StartSpan(ctx, "telegram.message")
		b.handleMessage(ctx, update.Message)
		span.End()
	case update.CallbackQuery != nil:
		ctx, span := telemetry.StartSpan(ctx, "telegram.callback")
		b.handleCallback(ctx, update.CallbackQuery)
		span.End()
	}
}

func (b *Bot) reply(chatID int64, replyTo int, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	msg.DisableWebPagePreview = true
	if _, err := b.s.Send(msg); err != nil {
		slog.Error("failed to send message", slog.Int64("chat", chatID), slog.Any("err", err))
	}
}

func (b *Bot) answer(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := b.s.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		slog.Warn("failed to answer callback", slog.String("callback", cb.ID), slog.Any("err", err))
	}
}

func userFrom(u *tgbotapi.User) auth.User {
	return auth.User{ID: u.ID, Username: u.UserName, FirstName: u.FirstName, LastName: u.LastName}
}
