package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Open connects the backend named by driver. It is called once at startup;
// the returned Store is shared by every request until Close.
func Open(ctx context.Context, driver, uri, database string) (Store, error) {
	switch driver {
	case "memory":
		return NewMemoryStore(), nil
	case "mongo":
		return ConnectMongo(ctx, uri, database)
	case "postgres":
		db, err := OpenPostgres(uri)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return NewSQLStore(db, Postgres), nil
	case "sqlite":
		if dir := filepath.Dir(uri); uri != ":memory:" && dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0700); err != nil {
				return nil, fmt.Errorf("create db dir %s: %w", dir, err)
			}
		}
		db, err := OpenSQLite(uri)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", uri, err)
		}
		return NewSQLStore(db, SQLite), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
