package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"headsup-server/pkg/db"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	game_id TEXT NOT NULL,
	role TEXT NOT NULL,
	schema_version INTEGER NOT NULL,
	record TEXT NOT NULL,
	saved_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL,
	PRIMARY KEY (game_id, role)
);
CREATE INDEX IF NOT EXISTS sessions_expires_at_idx ON sessions (expires_at);
`

// SQLStore keeps records in the sessions table of a postgres or sqlite database
type SQLStore struct {
	db     *sql.DB
	driver string
	ttl    time.Duration
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore wraps an open database. The sqlite schema is created if needed; postgres
// is expected to have been migrated
func NewSQLStore(ctx context.Context, dbh *sql.DB, driver string, ttl time.Duration) (*SQLStore, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	if driver == db.SQLite {
		if _, err := dbh.ExecContext(ctx, sqliteSchema); err != nil {
			return nil, fmt.Errorf("could not create sqlite schema: %w", err)
		}
	}

	return &SQLStore{db: dbh, driver: driver, ttl: ttl}, nil
}

func (s *SQLStore) query(q string) string {
	return db.Rebind(s.driver, q)
}

// Save upserts the record
func (s *SQLStore) Save(ctx context.Context, r *Record) error {
	saved := *r
	saved.SchemaVersion = SchemaVersion
	saved.SavedAt = now().UTC()

	b, err := encode(&saved)
	if err != nil {
		return err
	}

	const query = `
INSERT INTO sessions (game_id, role, schema_version, record, saved_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (game_id, role) DO UPDATE SET
	schema_version = excluded.schema_version,
	record = excluded.record,
	saved_at = excluded.saved_at,
	expires_at = excluded.expires_at`

	_, err = s.db.ExecContext(ctx, s.query(query),
		saved.GameID,
		string(saved.Role),
		saved.SchemaVersion,
		string(b),
		saved.SavedAt.Unix(),
		saved.SavedAt.Add(s.ttl).Unix(),
	)

	return err
}

// Load returns the record for key
func (s *SQLStore) Load(ctx context.Context, key Key) (*Record, error) {
	const query = `
SELECT schema_version, record
FROM sessions
WHERE game_id = $1
  AND role = $2
  AND expires_at > $3`

	var version int
	var data []byte
	row := s.db.QueryRowContext(ctx, s.query(query), key.GameID, string(key.Role), now().Unix())
	if err := row.Scan(&version, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	if version != SchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, version, SchemaVersion)
	}

	return decode(data)
}

// Delete removes the record for key
func (s *SQLStore) Delete(ctx context.Context, key Key) error {
	const query = `DELETE FROM sessions WHERE game_id = $1 AND role = $2`
	_, err := s.db.ExecContext(ctx, s.query(query), key.GameID, string(key.Role))
	return err
}

// Purge removes expired records
func (s *SQLStore) Purge(ctx context.Context) (int64, error) {
	const query = `DELETE FROM sessions WHERE expires_at <= $1`
	res, err := s.db.ExecContext(ctx, s.query(query), now().Unix())
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

// Close closes the database
func (s *SQLStore) Close() error {
	return s.db.Close()
}
