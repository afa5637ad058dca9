package storage

import (
	"context"
	"fmt"
)

// Open builds the backend named by driver: memory, file, sqlite or postgres.
// path is the directory (file) or database file (sqlite); dsn is used by postgres.
func Open(ctx context.Context, driver, path, dsn string) (Store, error) {
	switch driver {
	case "memory":
		return NewMemoryStore(), nil
	case "file", "":
		return NewFileStore(path)
	case "sqlite":
		return OpenSQLite(ctx, path)
	case "postgres":
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", driver)
	}
}
