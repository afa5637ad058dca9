package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"slotbot/internal/storage"
	"slotbot/internal/telemetry"
)

// Namespace is the storage namespace holding one Store per guild.
const Namespace = "scheduling"

// Repository persists a Store per guild as a single storage value.
//
// Update is a plain read-modify-write: without WithGuildLocks two callers
// updating the same guild concurrently can overwrite each other and one of
// the changes is lost.
type Repository struct {
	kv    storage.Store
	locks *guildLocks
}

type RepositoryOption func(*Repository)

// WithGuildLocks serializes Save, Insert and Update per guild within this
// process.
func WithGuildLocks() RepositoryOption {
	return func(r *Repository) {
		r.locks = &guildLocks{m: make(map[GuildID]*sync.Mutex)}
	}
}

func NewRepository(kv storage.Store, opts ...RepositoryOption) *Repository {
	r := &Repository{kv: kv}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the guild's store, or an empty one if nothing was saved yet.
func (r *Repository) Get(ctx context.Context, guild GuildID) (Store, error) {
	defer telemetry.ObserveStoreOp("get", time.Now())
	ctx, span := telemetry.StartSpan(ctx, "scheduling.Repository.Get", attribute.Int64("guild", int64(guild)))
	s, err := r.get(ctx, guild)
	telemetry.EndSpan(span, err)
	return s, err
}

// Save replaces the guild's whole store.
func (r *Repository) Save(ctx context.Context, guild GuildID, s Store) error {
	defer telemetry.ObserveStoreOp("save", time.Now())
	ctx, span := telemetry.StartSpan(ctx, "scheduling.Repository.Save", attribute.Int64("guild", int64(guild)))
	unlock := r.lock(guild)
	err := r.save(ctx, guild, s)
	unlock()
	telemetry.EndSpan(span, err)
	return err
}

// Update loads the guild's store, applies transform to the event with the
// given id and saves the result. It returns the transformed record.
func (r *Repository) Update(ctx context.Context, guild GuildID, eventID string, transform func(EventRecord) EventRecord) (EventRecord, error) {
	defer telemetry.ObserveStoreOp("update", time.Now())
	ctx, span := telemetry.StartSpan(ctx, "scheduling.Repository.Update",
		attribute.Int64("guild", int64(guild)), attribute.String("event", eventID))
	unlock := r.lock(guild)
	rec, err := r.update(ctx, guild, eventID, transform)
	unlock()
	telemetry.EndSpan(span, err)
	return rec, err
}

// Insert appends rec to the guild's store unless an event with the same id
// exists, in which case it returns ErrDuplicateEvent and saves nothing.
func (r *Repository) Insert(ctx context.Context, guild GuildID, rec EventRecord) error {
	defer telemetry.ObserveStoreOp("insert", time.Now())
	ctx, span := telemetry.StartSpan(ctx, "scheduling.Repository.Insert",
		attribute.Int64("guild", int64(guild)), attribute.String("event", rec.ID))
	unlock := r.lock(guild)
	err := r.insert(ctx, guild, rec)
	unlock()
	telemetry.EndSpan(span, err)
	return err
}

// Guilds lists every guild that has a saved store.
func (r *Repository) Guilds(ctx context.Context) ([]GuildID, error) {
	keys, err := r.kv.Keys(ctx, Namespace)
	if err != nil {
		return nil, fmt.Errorf("list guilds: %w", err)
	}
	out := make([]GuildID, 0, len(keys))
	for _, k := range keys {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, GuildID(id))
	}
	return out, nil
}

func (r *Repository) update(ctx context.Context, guild GuildID, eventID string, transform func(EventRecord) EventRecord) (EventRecord, error) {
	s, err := r.get(ctx, guild)
	if err != nil {
		return EventRecord{}, err
	}
	cur, ok := s.Lookup(eventID)
	if !ok {
		return EventRecord{}, fmt.Errorf("%w: %s", ErrUnknownEvent, eventID)
	}
	next := transform(cur)
	next.ID = cur.ID
	if err := r.save(ctx, guild, s.WithEvent(next)); err != nil {
		return EventRecord{}, err
	}
	return next, nil
}

func (r *Repository) insert(ctx context.Context, guild GuildID, rec EventRecord) error {
	s, err := r.get(ctx, guild)
	if err != nil {
		return err
	}
	if _, ok := s.Lookup(rec.ID); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEvent, rec.ID)
	}
	return r.save(ctx, guild, s.WithEvent(rec))
}

func (r *Repository) get(ctx context.Context, guild GuildID) (Store, error) {
	b, err := r.kv.Get(ctx, Namespace, guildKey(guild))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Store{Events: []EventRecord{}}, nil
		}
		return Store{}, fmt.Errorf("load store for guild %d: %w", guild, err)
	}
	var s Store
	if err := json.Unmarshal(b, &s); err != nil {
		return Store{}, fmt.Errorf("decode store for guild %d: %w", guild, err)
	}
	if s.Events == nil {
		s.Events = []EventRecord{}
	}
	return s, nil
}

func (r *Repository) save(ctx context.Context, guild GuildID, s Store) error {
	if s.Events == nil {
		s.Events = []EventRecord{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrRepositoryWrite, err)
	}
	if err := r.kv.Put(ctx, Namespace, guildKey(guild), b); err != nil {
		return fmt.Errorf("%w: %w", ErrRepositoryWrite, err)
	}
	return nil
}

func (r *Repository) lock(guild GuildID) func() {
	if r.locks == nil {
		return func() {}
	}
	return r.locks.lock(guild)
}

func guildKey(g GuildID) string {
	return strconv.FormatInt(int64(g), 10)
}

type guildLocks struct {
	mu sync.Mutex
	m  map[GuildID]*sync.Mutex
}

func (l *guildLocks) lock(g GuildID) func() {
	l.mu.Lock()
	mu, ok := l.m[g]
	if !ok {
		mu = &sync.Mutex{}
		l.m[g] = mu
	}
	l.mu.Unlock()
	mu.Lock()
	return mu.Unlock
}
