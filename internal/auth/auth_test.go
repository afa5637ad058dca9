package auth

import (
	"context"
	"errors"
	"testing"

	"slotbot/internal/storage"
)

type memRepo struct{ users map[int64][]User }

func (m *memRepo) LoadAll(_ context.Context, g int64) ([]User, error) {
	return append([]User{}, m.users[g]...), nil
}
func (m *memRepo) Upsert(_ context.Context, g int64, u User) error {
	for i, x := range m.users[g] {
		if x.ID == u.ID {
			m.users[g][i] = u
			return nil
		}
	}
	m.users[g] = append(m.users[g], u)
	return nil
}
func (m *memRepo) Remove(_ context.Context, g int64, id int64) error {
	out := make([]User, 0, len(m.users[g]))
	for _, x := range m.users[g] {
		if x.ID != id {
			out = append(out, x)
		}
	}
	m.users[g] = out
	return nil
}

func TestServiceBasic(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{users: map[int64][]User{-1: {{ID: 10, Username: "alice"}}}}
	svc := NewWithRepo(repo, []int64{20})

	mustManager := func(guild, id int64, want bool) {
		t.Helper()
		ok, err := svc.IsManager(ctx, guild, id)
		if err != nil {
			t.Fatalf("is manager: %v", err)
		}
		if ok != want {
			t.Fatalf("IsManager(%d, %d) = %v, want %v", guild, id, ok, want)
		}
	}

	mustManager(-1, 10, true)
	mustManager(-2, 10, false)
	mustManager(-2, 20, true) // admins manage every group
	mustManager(-1, 30, false)

	if err := svc.Grant(ctx, -1, User{ID: 30, Username: "bob"}); err != nil {
		t.Fatalf("grant: %v", err)
	}
	mustManager(-1, 30, true)

	if err := svc.Revoke(ctx, -1, 10); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	mustManager(-1, 10, false)

	lst, err := svc.List(ctx, -1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lst) != 1 || lst[0].ID != 30 {
		t.Fatalf("unexpected managers: %+v", lst)
	}
	if len(repo.users[-1]) != 1 {
		t.Fatalf("repo not updated: %+v", repo.users[-1])
	}
}

type brokenRepo struct{ memRepo }

func (brokenRepo) Upsert(context.Context, int64, User) error { return errors.New("disk full") }

func TestGrantFailureKeepsCache(t *testing.T) {
	ctx := context.Background()
	svc := NewWithRepo(&brokenRepo{memRepo{users: map[int64][]User{}}}, nil)
	if err := svc.Grant(ctx, -1, User{ID: 5}); err == nil {
		t.Fatalf("expected error")
	}
	if ok, _ := svc.IsManager(ctx, -1, 5); ok {
		t.Fatalf("failed grant must not take effect")
	}
}

func TestStoreRepositoryPersists(t *testing.T) {
	ctx := context.Background()
	kv, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	repo := NewStoreRepository(kv)

	if users, err := repo.LoadAll(ctx, -7); err != nil || len(users) != 0 {
		t.Fatalf("empty load: %v %v", users, err)
	}
	if err := repo.Upsert(ctx, -7, User{ID: 1, Username: "a"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.Upsert(ctx, -7, User{ID: 1, Username: "renamed"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.Upsert(ctx, -7, User{ID: 2}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.Remove(ctx, -7, 2); err != nil {
		t.Fatalf("remove: %v", err)
	}

	// a fresh service over the same store sees the persisted list
	svc := NewWithRepo(NewStoreRepository(kv), nil)
	lst, err := svc.List(ctx, -7)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lst) != 1 || lst[0].Username != "renamed" {
		t.Fatalf("unexpected: %+v", lst)
	}
}

func TestDisplayName(t *testing.T) {
	cases := map[string]User{
		"@ann":      {ID: 1, Username: "ann"},
		"Ann Lee":   {ID: 1, FirstName: "Ann", LastName: "Lee"},
		"Ann":       {ID: 1, FirstName: "Ann"},
		"123456789": {ID: 123456789},
	}
	for want, u := range cases {
		if got := u.DisplayName(); got != want {
			t.Errorf("DisplayName(%+v) = %q, want %q", u, got, want)
		}
	}
}
