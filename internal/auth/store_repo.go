package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"slotbot/internal/storage"
)

// Namespace holds one JSON user list per group.
const Namespace = "managers"

// StoreRepository keeps manager lists in a storage.Store.
type StoreRepository struct {
	kv storage.Store
	mu sync.Mutex
}

func NewStoreRepository(kv storage.Store) *StoreRepository {
	return &StoreRepository{kv: kv}
}

func (r *StoreRepository) LoadAll(ctx context.Context, guild int64) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadUnlocked(ctx, guild)
}

func (r *StoreRepository) Upsert(ctx context.Context, guild int64, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	users, err := r.loadUnlocked(ctx, guild)
	if err != nil {
		return err
	}
	updated := false
	for i, u := range users {
		if u.ID == user.ID {
			users[i] = user
			updated = true
			break
		}
	}
	if !updated {
		users = append(users, user)
	}
	return r.saveUnlocked(ctx, guild, users)
}

func (r *StoreRepository) Remove(ctx context.Context, guild int64, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	users, err := r.loadUnlocked(ctx, guild)
	if err != nil {
		return err
	}
	out := make([]User, 0, len(users))
	for _, u := range users {
		if u.ID != userID {
			out = append(out, u)
		}
	}
	return r.saveUnlocked(ctx, guild, out)
}

func (r *StoreRepository) loadUnlocked(ctx context.Context, guild int64) ([]User, error) {
	b, err := r.kv.Get(ctx, Namespace, strconv.FormatInt(guild, 10))
	if errors.Is(err, storage.ErrNotFound) {
		return []User{}, nil
	}
	if err != nil {
		return nil, err
	}
	var users []User
	if err := json.Unmarshal(b, &users); err != nil {
		return nil, fmt.Errorf("decode managers of %d: %w", guild, err)
	}
	return users, nil
}

func (r *StoreRepository) saveUnlocked(ctx context.Context, guild int64, users []User) error {
	b, err := json.Marshal(users)
	if err != nil {
		return err
	}
	return r.kv.Put(ctx, Namespace, strconv.FormatInt(guild, 10), b)
}
