package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/and161185/stash/internal/config"
	"github.com/and161185/stash/internal/store"
	"github.com/and161185/stash/internal/store/postgres"
	"github.com/and161185/stash/internal/store/sqlite"
)

func openBackend(ctx context.Context, sc config.StoreConfig) (store.Backend, error) {
	switch sc.Driver {
	case config.DriverMemory:
		return store.NewMemory(), nil
	case config.DriverSQLite:
		if sc.DSN != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(sc.DSN), 0o700); err != nil {
				return nil, fmt.Errorf("create store dir: %w", err)
			}
		}
		return sqlite.Open(ctx, sc.DSN)
	case config.DriverPostgres:
		return postgres.Open(ctx, sc.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", sc.Driver)
	}
}
