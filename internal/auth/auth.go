package auth

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// User is a person allowed to manage events in a group.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DisplayName prefers @username, then the full name, then the id.
func (u User) DisplayName() string {
	switch {
	case u.Username != "":
		return "@" + u.Username
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return fmt.Sprintf("%d", u.ID)
	}
}

// Repository persists the manager list of each group.
type Repository interface {
	LoadAll(ctx context.Context, guild int64) ([]User, error)
	Upsert(ctx context.Context, guild int64, user User) error
	Remove(ctx context.Context, guild int64, userID int64) error
}

// Service answers permission questions. Admins come from configuration and
// may manage every group; managers are granted per group.
type Service struct {
	repo   Repository
	admins map[int64]struct{}

	mu       sync.Mutex
	managers map[int64]map[int64]User
}

func NewWithRepo(repo Repository, admins []int64) *Service {
	s := &Service{
		repo:     repo,
		admins:   make(map[int64]struct{}, len(admins)),
		managers: make(map[int64]map[int64]User),
	}
	for _, id := range admins {
		s.admins[id] = struct{}{}
	}
	return s
}

func (s *Service) IsAdmin(userID int64) bool {
	_, ok := s.admins[userID]
	return ok
}

// IsManager reports whether userID may create events in guild.
func (s *Service) IsManager(ctx context.Context, guild, userID int64) (bool, error) {
	if s.IsAdmin(userID) {
		return true, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.loadLocked(ctx, guild)
	if err != nil {
		return false, err
	}
	_, ok := m[userID]
	return ok, nil
}

func (s *Service) Grant(ctx context.Context, guild int64, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.loadLocked(ctx, guild)
	if err != nil {
		return err
	}
	if s.repo != nil {
		if err := s.repo.Upsert(ctx, guild, user); err != nil {
			return err
		}
	}
	m[user.ID] = user
	return nil
}

func (s *Service) Revoke(ctx context.Context, guild, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.loadLocked(ctx, guild)
	if err != nil {
		return err
	}
	if s.repo != nil {
		if err := s.repo.Remove(ctx, guild, userID); err != nil {
			return err
		}
	}
	delete(m, userID)
	return nil
}

// List returns the managers of guild ordered by id.
func (s *Service) List(ctx context.Context, guild int64) ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.loadLocked(ctx, guild)
	if err != nil {
		return nil, err
	}
	out := make([]User, 0, len(m))
	for _, u := range m {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Service) loadLocked(ctx context.Context, guild int64) (map[int64]User, error) {
	if m, ok := s.managers[guild]; ok {
		return m, nil
	}
	m := make(map[int64]User)
	if s.repo != nil {
		users, err := s.repo.LoadAll(ctx, guild)
		if err != nil {
			return nil, fmt.Errorf("load managers: %w", err)
		}
		for _, u := range users {
			m[u.ID] = u
		}
	}
	s.managers[guild] = m
	return m, nil
}
