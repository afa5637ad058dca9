package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const fileExt = ".json"

// FileStore keeps one file per key under <dir>/<namespace>/<key>.json.
// Writes go to a temp file that is renamed over the target, so readers
// observe either the old or the new value.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure store dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(namespace, key)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s/%s: %w", namespace, key, err)
	}
	return b, nil
}

func (s *FileStore) Put(ctx context.Context, namespace, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(namespace, key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure namespace dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer func(name string) {
		_ = os.Remove(name)
	}(tmp.Name())
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func (s *FileStore) Keys(ctx context.Context, namespace string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validName(namespace); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(filepath.Join(s.dir, namespace))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list %s: %w", namespace, err)
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, fileExt))
	}
	return keys, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) path(namespace, key string) (string, error) {
	if err := validName(namespace); err != nil {
		return "", err
	}
	if err := validName(key); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, namespace, key+fileExt), nil
}

func validName(s string) error {
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
		return fmt.Errorf("invalid storage name %q", s)
	}
	return nil
}
