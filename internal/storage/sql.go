package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type dialect struct {
	name   string
	schema string
	get    string
	put    string
	keys   string
}

var sqliteDialect = dialect{
	name: "sqlite",
	schema: `CREATE TABLE IF NOT EXISTS kv_store (
		namespace TEXT NOT NULL,
		key TEXT NOT NULL,
		value BLOB NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (namespace, key)
	)`,
	get: `SELECT value FROM kv_store WHERE namespace = ? AND key = ?`,
	put: `INSERT INTO kv_store (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
	keys: `SELECT key FROM kv_store WHERE namespace = ?`,
}

var postgresDialect = dialect{
	name: "postgres",
	schema: `CREATE TABLE IF NOT EXISTS kv_store (
		namespace TEXT NOT NULL,
		key TEXT NOT NULL,
		value BYTEA NOT NULL,
		updated_at BIGINT NOT NULL,
		PRIMARY KEY (namespace, key)
	)`,
	get: `SELECT value FROM kv_store WHERE namespace = $1 AND key = $2`,
	put: `INSERT INTO kv_store (namespace, key, value, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
	keys: `SELECT key FROM kv_store WHERE namespace = $1`,
}

// SQLStore keeps values in a single kv_store table. Put is one upsert
// statement, so a value is replaced atomically.
type SQLStore struct {
	db *sql.DB
	d  dialect
	// now is overridable in tests.
	now func() time.Time
}

func newSQLStore(db *sql.DB, d dialect) *SQLStore {
	return &SQLStore{db: db, d: d, now: time.Now}
}

func (s *SQLStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.d.schema); err != nil {
		return fmt.Errorf("create %s kv_store: %w", s.d.name, err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, s.d.get, namespace, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select %s/%s: %w", namespace, key, err)
	}
	return value, nil
}

func (s *SQLStore) Put(ctx context.Context, namespace, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, s.d.put, namespace, key, value, s.now().UTC().UnixMilli()); err != nil {
		return fmt.Errorf("upsert %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *SQLStore) Keys(ctx context.Context, namespace string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.d.keys, namespace)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", namespace, err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)
	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return keys, nil
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
