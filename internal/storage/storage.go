package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// Store is a namespaced key-value persistence layer.
// Put replaces the whole value under a key in one write; there is no
// partial update and no delete.
// Keys lists the keys present in a namespace in no particular order.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Put(ctx context.Context, namespace, key string, value []byte) error
	Keys(ctx context.Context, namespace string) ([]string, error)
	Close() error
}
