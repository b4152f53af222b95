package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/sirupsen/logrus"

	_ "github.com/golang-migrate/migrate/v4/source/file" // needed
	_ "github.com/lib/pq"                                // postgres driver
	_ "modernc.org/sqlite"                               // sqlite driver
)

// supported drivers
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)

// ErrUnsupportedDriver is returned for drivers other than postgres and sqlite
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Open opens and pings a database
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	switch driver {
	case Postgres:
		db, err := sql.Open(Postgres, dsn)
		if err != nil {
			return nil, err
		}

		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}

		return db, nil
	case SQLite:
		return openSQLite(ctx, dsn)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
}

// WaitFor opens the database, retrying until it is reachable or maxElapsed has passed
func WaitFor(ctx context.Context, driver, dsn string, maxElapsed time.Duration) (*sql.DB, error) {
	return backoff.Retry(ctx, func() (*sql.DB, error) {
		db, err := Open(ctx, driver, dsn)
		if errors.Is(err, ErrUnsupportedDriver) {
			return nil, backoff.Permanent(err)
		}

		return db, err
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(maxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			logrus.WithError(err).WithField("driver", driver).Warn("database is not reachable yet")
		}),
	)
}

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("empty sqlite database path")
	}

	if path != ":memory:" {
		if parent := filepath.Dir(path); parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open(SQLite, path)
	if err != nil {
		return nil, err
	}

	// a single connection keeps an in-memory database alive and serializes writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs the postgres migrations found in migrationsPath
func Migrate(db *sql.DB, migrationsPath string) error {
	logrus.WithField("migrationsPath", migrationsPath).Info("running migrations")
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsPath), Postgres, driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}

// Rebind rewrites $n placeholders for drivers that only understand ?
func Rebind(driver, query string) string {
	if driver != SQLite {
		return query
	}

	var b strings.Builder
	for i := 0; i < len(query); i++ {
		if query[i] == '$' && i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
			b.WriteByte('?')
			for i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
				i++
			}

			continue
		}

		b.WriteByte(query[i])
	}

	return b.String()
}

// Scanner is an interface that sql should've provided
// No snark here...
type Scanner interface {
	Scan(...interface{}) error
}
