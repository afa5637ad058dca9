package storage

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string][]byte)}
}

func (m *MemoryStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[namespace][key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Put(ctx context.Context, namespace, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ns, ok := m.data[namespace]
	if !ok {
		ns = make(map[string][]byte)
		m.data[namespace] = ns
	}
	ns[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Keys(ctx context.Context, namespace string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.data[namespace]))
	for k := range m.data[namespace] {
		out = append(out, k)
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
