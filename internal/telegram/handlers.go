package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/kballard/go-shellquote"

	"slotbot/internal/analytics"
	"slotbot/internal/auth"
	"slotbot/internal/scheduling"
)

const (
	helpText = "commands:\n" +
		"/scheduling create <id> <name> <description> <start> <end> <slot minutes>\n" +
		"/scheduling list\n" +
		"/scheduling stats <id> [json]\n" +
		"/signup [event id]\n" +
		"/grant <user id>, /revoke <user id>, /managers (admins)\n\n" +
		"quote arguments with spaces, e.g. \"Charity stream\". times are UTC: 2024-01-01T18:00 or RFC3339."
	schedulingUsage = "Usage: /scheduling create <id> <name> <description> <start> <end> <slot minutes> | /scheduling list | /scheduling stats <id> [json]"
	groupOnlyText   = "this bot works in group chats only"

	maxEventIDLen = 32
	// one keyboard row per slot plus the submit row, within Telegram's
	// 100 button limit
	maxSelectorSlots = 99
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || !msg.IsCommand() {
		return
	}
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start", "help":
		b.reply(chatID, msg.MessageID, helpText)
		return
	}
	if !msg.Chat.IsGroup() && !msg.Chat.IsSuperGroup() {
		b.reply(chatID, msg.MessageID, groupOnlyText)
		return
	}
	slog.Debug("command received", slog.Int64("chat", chatID), slog.Int64("user", msg.From.ID),
		slog.String("command", msg.Command()))

	switch msg.Command() {
	case "scheduling":
		b.handleScheduling(ctx, msg)
	case "signup":
		b.handleSignup(ctx, msg)
	case "grant", "revoke", "managers":
		b.handleManagers(ctx, msg)
	}
}

func (b *Bot) handleScheduling(ctx context.Context, msg *tgbotapi.Message) {
	args, err := shellquote.Split(msg.CommandArguments())
	if err != nil {
		b.reply(msg.Chat.ID, msg.MessageID, fmt.Sprintf("could not parse arguments: %v", err))
		return
	}
	if len(args) == 0 {
		b.reply(msg.Chat.ID, msg.MessageID, schedulingUsage)
		return
	}
	switch args[0] {
	case "create":
		b.handleCreate(ctx, msg, args[1:])
	case "list":
		b.handleList(ctx, msg)
	case "stats":
		b.handleStats(ctx, msg, args[1:])
	default:
		b.reply(msg.Chat.ID, msg.MessageID, schedulingUsage)
	}
}

func (b *Bot) handleCreate(ctx context.Context, msg *tgbotapi.Message, args []string) {
	chatID := msg.Chat.ID
	ok, err := b.authSvc.IsManager(ctx, chatID, msg.From.ID)
	if err != nil {
		slog.Error("manager check failed", slog.Int64("chat", chatID), slog.Any("err", err))
		b.reply(chatID, msg.MessageID, userMessage(err))
		return
	}
	if !ok {
		b.reply(chatID, msg.MessageID, "only event managers can create events")
		return
	}
	p, err := parseCreateArgs(args)
	if err != nil {
		b.reply(chatID, msg.MessageID, err.Error())
		return
	}
	p.Guild = scheduling.GuildID(chatID)
	p.Channel = scheduling.ChannelID(chatID)

	rec, err := b.manager.CreateEvent(ctx, p)
	switch {
	case errors.Is(err, scheduling.ErrAnnouncement):
		b.reply(chatID, msg.MessageID, fmt.Sprintf("event %s saved, but its announcement could not be updated; %s", rec.ID, scheduling.SignupUsage(rec.ID)))
	case err != nil:
		if !scheduling.IsUserError(err) {
			slog.Error("create event failed", slog.Int64("chat", chatID), slog.String("event", p.ID), slog.Any("err", err))
		}
		b.reply(chatID, msg.MessageID, userMessage(err))
	default:
		b.reply(chatID, msg.MessageID, fmt.Sprintf("event %s created; sign up with %s", rec.ID, scheduling.SignupUsage(rec.ID)))
	}
}

// parseCreateArgs validates "<id> <name> <description> <start> <end> <slot minutes>".
func parseCreateArgs(args []string) (scheduling.CreateEventParams, error) {
	if len(args) != 6 {
		return scheduling.CreateEventParams{}, errors.New(schedulingUsage)
	}
	id := args[0]
	if id == "" || len(id) > maxEventIDLen || strings.ContainsAny(id, "| \t\n") {
		return scheduling.CreateEventParams{}, fmt.Errorf("event id must be 1-%d characters without spaces or |", maxEventIDLen)
	}
	start, err := scheduling.ParseInstant(args[3])
	if err != nil {
		return scheduling.CreateEventParams{}, err
	}
	end, err := scheduling.ParseInstant(args[4])
	if err != nil {
		return scheduling.CreateEventParams{}, err
	}
	minutes, err := strconv.Atoi(args[5])
	if err != nil {
		return scheduling.CreateEventParams{}, fmt.Errorf("%w: %q is not a whole number of minutes", scheduling.ErrInvalidSlotLength, args[5])
	}
	length, err := scheduling.SlotLengthMinutes(minutes)
	if err != nil {
		return scheduling.CreateEventParams{}, err
	}
	if n := scheduling.SlotCount(start, end, length); n > maxSelectorSlots {
		return scheduling.CreateEventParams{}, fmt.Errorf("%w: %d slots, at most %d fit in one signup message", scheduling.ErrTooManySlots, n, maxSelectorSlots)
	}
	return scheduling.CreateEventParams{
		ID:          id,
		Name:        args[1],
		Description: args[2],
		Start:       start,
		End:         end,
		SlotLength:  length,
	}, nil
}

func (b *Bot) handleList(ctx context.Context, msg *tgbotapi.Message) {
	events, err := b.manager.ListEvents(ctx, scheduling.GuildID(msg.Chat.ID))
	if err != nil {
		slog.Error("list events failed", slog.Int64("chat", msg.Chat.ID), slog.Any("err", err))
		b.reply(msg.Chat.ID, msg.MessageID, userMessage(err))
		return
	}
	if len(events) == 0 {
		b.reply(msg.Chat.ID, msg.MessageID, "no events scheduled")
		return
	}
	var bld strings.Builder
	for i, e := range events {
		if i > 0 {
			bld.WriteString("\n")
		}
		bld.WriteString(e.String())
	}
	b.reply(msg.Chat.ID, msg.MessageID, bld.String())
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message, args []string) {
	asJSON := len(args) == 2 && args[1] == "json"
	if len(args) != 1 && !asJSON {
		b.reply(msg.Chat.ID, msg.MessageID, schedulingUsage)
		return
	}
	ev, err := b.manager.Event(ctx, scheduling.GuildID(msg.Chat.ID), args[0])
	if err != nil {
		b.reply(msg.Chat.ID, msg.MessageID, userMessage(err))
		return
	}
	stats := analytics.AnalyzeEvent(ev)
	if !asJSON {
		b.reply(msg.Chat.ID, msg.MessageID, stats.GenerateReportSummary())
		return
	}
	out, err := stats.ToJSON()
	if err != nil {
		slog.Error("encode stats failed", slog.String("event", ev.ID), slog.Any("err", err))
		b.reply(msg.Chat.ID, msg.MessageID, "could not encode stats")
		return
	}
	b.reply(msg.Chat.ID, msg.MessageID, out)
}

func (b *Bot) handleSignup(ctx context.Context, msg *tgbotapi.Message) {
	if fields := strings.Fields(msg.CommandArguments()); len(fields) > 0 {
		b.startSession(ctx, msg.Chat.ID, msg.From, msg.MessageID, fields[0])
		return
	}
	events, err := b.manager.ListEvents(ctx, scheduling.GuildID(msg.Chat.ID))
	if err != nil {
		slog.Error("list events failed", slog.Int64("chat", msg.Chat.ID), slog.Any("err", err))
		b.reply(msg.Chat.ID, msg.MessageID, userMessage(err))
		return
	}
	if len(events) == 0 {
		b.reply(msg.Chat.ID, msg.MessageID, "no events to sign up for")
		return
	}
	out := tgbotapi.NewMessage(msg.Chat.ID, "choose an event to sign up for")
	out.ReplyToMessageID = msg.MessageID
	out.ReplyMarkup = eventPicker(events)
	if _, err := b.s.Send(out); err != nil {
		slog.Error("failed to send event picker", slog.Int64("chat", msg.Chat.ID), slog.Any("err", err))
	}
}

// startSession opens a signup for from and renders its first view as a
// reply to replyTo.
func (b *Bot) startSession(ctx context.Context, chatID int64, from *tgbotapi.User, replyTo int, eventID string) {
	id := uuid.New()
	r := &sessionRenderer{s: b.s, chatID: chatID, replyTo: replyTo, session: id}
	sess, err := scheduling.NewSession(ctx, scheduling.SessionParams{
		Repo:        b.repo,
		Renderer:    r,
		Guild:       scheduling.GuildID(chatID),
		EventID:     eventID,
		User:        scheduling.UserID(from.ID),
		UserDisplay: userFrom(from).DisplayName(),
	})
	if err != nil {
		if !scheduling.IsUserError(err) {
			slog.Error("start signup failed", slog.Int64("chat", chatID), slog.String("event", eventID), slog.Any("err", err))
		}
		b.reply(chatID, replyTo, userMessage(err))
		return
	}
	b.sessions.add(id, &sessionEntry{session: sess})
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil {
		return
	}
	data, err := decodeCallback(cb.Data)
	if err != nil {
		slog.Warn("bad callback data", slog.String("data", cb.Data), slog.Any("err", err))
		b.answer(cb, "unknown action")
		return
	}

	var in scheduling.Input
	switch data.kind {
	case eventPrefix:
		b.answer(cb, "")
		b.startSession(ctx, cb.Message.Chat.ID, cb.From, cb.Message.MessageID, data.value)
		return
	case selectPrefix:
		in = scheduling.SlotSelected{Raw: data.value}
	case submitPrefix, noopPrefix:
		in = scheduling.SubmitPressed{}
	default:
		b.answer(cb, "unknown action")
		return
	}

	e, ok := b.sessions.get(data.session)
	if !ok {
		b.answer(cb, "this signup has expired, run /signup again")
		return
	}
	if int64(e.session.User()) != cb.From.ID {
		b.answer(cb, "this signup belongs to someone else")
		return
	}
	err = e.session.Handle(ctx, in)
	if e.session.State().Terminal() {
		b.sessions.remove(data.session)
	}
	if err != nil {
		slog.Info("signup input rejected", slog.Int64("chat", int64(e.session.Guild())), slog.Int64("user", int64(e.session.User())),
			slog.String("event", e.session.Event().ID),
			slog.String("state", e.session.State().String()), slog.Any("err", err))
		b.answer(cb, userMessage(err))
		return
	}
	b.answer(cb, "")
}

func (b *Bot) handleManagers(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if !b.authSvc.IsAdmin(msg.From.ID) {
		b.reply(chatID, msg.MessageID, "this command is available to bot admins only")
		return
	}
	switch msg.Command() {
	case "grant":
		u, err := targetUser(msg)
		if err != nil {
			b.reply(chatID, msg.MessageID, err.Error())
			return
		}
		if err := b.authSvc.Grant(ctx, chatID, u); err != nil {
			slog.Error("grant failed", slog.Int64("chat", chatID), slog.Any("err", err))
			b.reply(chatID, msg.MessageID, fmt.Sprintf("could not grant: %v", err))
			return
		}
		b.reply(chatID, msg.MessageID, fmt.Sprintf("%s can now create events", u.DisplayName()))
	case "revoke":
		u, err := targetUser(msg)
		if err != nil {
			b.reply(chatID, msg.MessageID, err.Error())
			return
		}
		if err := b.authSvc.Revoke(ctx, chatID, u.ID); err != nil {
			slog.Error("revoke failed", slog.Int64("chat", chatID), slog.Any("err", err))
			b.reply(chatID, msg.MessageID, fmt.Sprintf("could not revoke: %v", err))
			return
		}
		b.reply(chatID, msg.MessageID, fmt.Sprintf("%s can no longer create events", u.DisplayName()))
	case "managers":
		users, err := b.authSvc.List(ctx, chatID)
		if err != nil {
			b.reply(chatID, msg.MessageID, fmt.Sprintf("could not list managers: %v", err))
			return
		}
		if len(users) == 0 {
			b.reply(chatID, msg.MessageID, "no managers in this group")
			return
		}
		var bld strings.Builder
		bld.WriteString("managers:")
		for _, u := range users {
			bld.WriteString(fmt.Sprintf("\n- id=%d %s", u.ID, u.DisplayName()))
		}
		b.reply(chatID, msg.MessageID, bld.String())
	}
}

// targetUser is the author of the replied-to message, or the numeric id
// given as the first argument.
func targetUser(msg *tgbotapi.Message) (auth.User, error) {
	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil {
		return userFrom(msg.ReplyToMessage.From), nil
	}
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		return auth.User{}, fmt.Errorf("usage: /%s <user_id>, or reply to a message of that user", msg.Command())
	}
	uid, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return auth.User{}, fmt.Errorf("invalid user_id %q", args[0])
	}
	return auth.User{ID: uid}, nil
}
