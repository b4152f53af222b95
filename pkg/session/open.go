package session

import (
	"context"
	"fmt"
	"time"

	"headsup-server/pkg/db"
)

// Memory selects the in-process store
const Memory = "memory"

// Options selects and configures a store
type Options struct {
	Driver         string
	DSN            string
	MigrationsPath string
	TTL            time.Duration
}

// Open returns the store described by opts. Postgres migrations are applied when a
// migrations path is given
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", Memory:
		return NewMemoryStore(opts.TTL), nil
	case db.Postgres, db.SQLite:
		dbh, err := db.Open(ctx, opts.Driver, opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("could not open %s session store: %w", opts.Driver, err)
		}

		if opts.Driver == db.Postgres && opts.MigrationsPath != "" {
			if err := db.Migrate(dbh, opts.MigrationsPath); err != nil {
				_ = dbh.Close()
				return nil, err
			}
		}

		store, err := NewSQLStore(ctx, dbh, opts.Driver, opts.TTL)
		if err != nil {
			_ = dbh.Close()
			return nil, err
		}

		return store, nil
	}

	return nil, fmt.Errorf("%w: %q", db.ErrUnsupportedDriver, opts.Driver)
}
