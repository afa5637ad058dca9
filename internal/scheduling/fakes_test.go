package scheduling

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"slotbot/internal/storage"
)

var (
	t0    = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	guild = GuildID(-100123)
)

// failingStore wraps a MemoryStore and fails Put when putErr is set.
type failingStore struct {
	*storage.MemoryStore
	putErr error
}

func (f *failingStore) Put(ctx context.Context, ns, key string, v []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	return f.MemoryStore.Put(ctx, ns, key, v)
}

// gatedStore holds the first n Gets until all n have happened, forcing
// concurrent read-modify-write cycles to interleave.
type gatedStore struct {
	*storage.MemoryStore
	n       int32
	seen    atomic.Int32
	arrived sync.WaitGroup
}

func newGatedStore(n int) *gatedStore {
	g := &gatedStore{MemoryStore: storage.NewMemoryStore(), n: int32(n)}
	g.arrived.Add(n)
	return g
}

func (g *gatedStore) Get(ctx context.Context, ns, key string) ([]byte, error) {
	b, err := g.MemoryStore.Get(ctx, ns, key)
	if g.seen.Add(1) <= g.n {
		g.arrived.Done()
		g.arrived.Wait()
	}
	return b, err
}

// hookStore runs onGet after every Get.
type hookStore struct {
	*storage.MemoryStore
	onGet func()
}

func (h *hookStore) Get(ctx context.Context, ns, key string) ([]byte, error) {
	b, err := h.MemoryStore.Get(ctx, ns, key)
	if h.onGet != nil {
		h.onGet()
	}
	return b, err
}

type createdMessage struct {
	channel ChannelID
	text    string
}

type editedMessage struct {
	ref  MessageRef
	view View
}

type fakeMessenger struct {
	mu        sync.Mutex
	created   []createdMessage
	edited    []editedMessage
	nextID    int
	createErr error
	editErr   error
	onCreate  func()
	onEdit    func()
}

func (f *fakeMessenger) CreateMessage(_ context.Context, channel ChannelID, text string) (MessageRef, error) {
	if f.onCreate != nil {
		f.onCreate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return MessageRef{}, f.createErr
	}
	f.nextID++
	f.created = append(f.created, createdMessage{channel: channel, text: text})
	return MessageRef{ChannelID: channel, MessageID: f.nextID}, nil
}

func (f *fakeMessenger) EditMessage(_ context.Context, ref MessageRef, view View) error {
	if f.onEdit != nil {
		f.onEdit()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return f.editErr
	}
	f.edited = append(f.edited, editedMessage{ref: ref, view: view})
	return nil
}

type fakeRenderer struct {
	views []View
	err   error
}

func (f *fakeRenderer) Render(_ context.Context, v View) error {
	if f.err != nil {
		return f.err
	}
	f.views = append(f.views, v)
	return nil
}

func (f *fakeRenderer) last(t *testing.T) View {
	t.Helper()
	require.NotEmpty(t, f.views, "nothing rendered")
	return f.views[len(f.views)-1]
}

var errBoom = errors.New("boom")

// seedEvent stores a two-hour event with 30 minute slots starting at t0.
func seedEvent(t *testing.T, repo *Repository, id string) EventRecord {
	t.Helper()
	ev := EventRecord{
		ID:           id,
		Name:         "Charity stream",
		Description:  "relay",
		Start:        t0,
		End:          t0.Add(2 * time.Hour),
		SlotLength:   30 * time.Minute,
		Announcement: MessageRef{ChannelID: ChannelID(guild), MessageID: 1},
		Signups:      []Signup{},
	}
	ctx := context.Background()
	s, err := repo.Get(ctx, guild)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, guild, s.WithEvent(ev)))
	return ev
}
