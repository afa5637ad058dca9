package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"slotbot/internal/auth"
	"slotbot/internal/scheduling"
	"slotbot/internal/storage"
)

const (
	groupID = int64(-1001)
	adminID = int64(1)
)

type fakeSender struct {
	mu      sync.Mutex
	sent    []tgbotapi.MessageConfig
	edits   []tgbotapi.EditMessageTextConfig
	answers []tgbotapi.CallbackConfig
	nextID  int
	sendErr error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		f.nextID++
		f.sent = append(f.sent, m)
		return tgbotapi.Message{MessageID: f.nextID, Chat: &tgbotapi.Chat{ID: m.ChatID}}, nil
	case tgbotapi.EditMessageTextConfig:
		f.edits = append(f.edits, m)
		return tgbotapi.Message{MessageID: m.MessageID, Chat: &tgbotapi.Chat{ID: m.ChatID}}, nil
	}
	return tgbotapi.Message{}, fmt.Errorf("unexpected chattable %T", c)
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cb, ok := c.(tgbotapi.CallbackConfig)
	if !ok {
		return nil, fmt.Errorf("unexpected request %T", c)
	}
	f.answers = append(f.answers, cb)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) lastSent(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	require.NotEmpty(t, f.sent, "nothing sent")
	return f.sent[len(f.sent)-1]
}

func (f *fakeSender) lastEdit(t *testing.T) tgbotapi.EditMessageTextConfig {
	t.Helper()
	require.NotEmpty(t, f.edits, "nothing edited")
	return f.edits[len(f.edits)-1]
}

func (f *fakeSender) lastAnswer(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.answers, "no callback answered")
	return f.answers[len(f.answers)-1].Text
}

type testEnv struct {
	bot  *Bot
	s    *fakeSender
	repo *scheduling.Repository
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	kv := storage.NewMemoryStore()
	repo := scheduling.NewRepository(kv)
	s := &fakeSender{}
	b := newBot(s, Deps{
		Auth:       auth.NewWithRepo(auth.NewStoreRepository(kv), []int64{adminID}),
		Repo:       repo,
		SessionTTL: 15 * time.Minute,
	})
	return testEnv{bot: b, s: s, repo: repo}
}

var msgSeq int

func user(id int64, name string) *tgbotapi.User {
	return &tgbotapi.User{ID: id, UserName: name}
}

// command builds a message the way Telegram delivers a bot command.
func command(chatType string, from *tgbotapi.User, text string) *tgbotapi.Message {
	msgSeq++
	cmdLen := len(text)
	if i := strings.IndexByte(text, ' '); i >= 0 {
		cmdLen = i
	}
	return &tgbotapi.Message{
		MessageID: 1000 + msgSeq,
		From:      from,
		Chat:      &tgbotapi.Chat{ID: groupID, Type: chatType},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}
}

func (e testEnv) send(from *tgbotapi.User, text string) {
	e.bot.handleMessage(context.Background(), command("supergroup", from, text))
}

func (e testEnv) press(from *tgbotapi.User, data string) {
	msgSeq++
	e.bot.handleCallback(context.Background(), &tgbotapi.CallbackQuery{
		ID:      fmt.Sprintf("cb%d", msgSeq),
		From:    from,
		Message: &tgbotapi.Message{MessageID: 500, Chat: &tgbotapi.Chat{ID: groupID, Type: "supergroup"}},
		Data:    data,
	})
}

var evStart = time.Date(2030, 1, 1, 18, 0, 0, 0, time.UTC)

// seed stores a two-hour event with 30 minute slots.
func (e testEnv) seed(t *testing.T, id string) {
	t.Helper()
	ctx := context.Background()
	s, err := e.repo.Get(ctx, scheduling.GuildID(groupID))
	require.NoError(t, err)
	require.NoError(t, e.repo.Save(ctx, scheduling.GuildID(groupID), s.WithEvent(scheduling.EventRecord{
		ID:           id,
		Name:         "Charity stream",
		Start:        evStart,
		End:          evStart.Add(2 * time.Hour),
		SlotLength:   30 * time.Minute,
		Announcement: scheduling.MessageRef{ChannelID: scheduling.ChannelID(groupID), MessageID: 1},
		Signups:      []scheduling.Signup{},
	})))
}

func keyboardOf(t *testing.T, markup interface{}) tgbotapi.InlineKeyboardMarkup {
	t.Helper()
	kb, ok := markup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok, "reply markup is %T", markup)
	return kb
}

func buttonData(b tgbotapi.InlineKeyboardButton) string {
	if b.CallbackData == nil {
		return ""
	}
	return *b.CallbackData
}
