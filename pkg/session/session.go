package session

import (
	"context"
	"errors"
	"time"

	"headsup-server/pkg/holdem"
)

// errors
var (
	ErrNotFound        = errors.New("session not found")
	ErrVersionMismatch = errors.New("session was saved with a different schema version")
)

// SchemaVersion is the version of Record. It follows the version of the state it wraps
const SchemaVersion = holdem.SchemaVersion

// DefaultTTL is how long a saved session can be restored
const DefaultTTL = time.Hour * 24

// Role is the controller a session belongs to
type Role string

// Role constants
const (
	RoleHost   Role = "host"
	RoleJoiner Role = "joiner"
)

// Key identifies a session
type Key struct {
	GameID string
	Role   Role
}

// Record is what a controller persists so it can be rebuilt after a restart
type Record struct {
	SchemaVersion int                      `json:"schemaVersion"`
	GameID        string                   `json:"gameId"`
	Role          Role                     `json:"role"`
	Seat          holdem.Seat              `json:"seat"`
	State         holdem.HostState         `json:"state"`
	History       []holdem.HandLogSnapshot `json:"history"`
	SavedAt       time.Time                `json:"savedAt"`
}

// Key returns the record's key
func (r *Record) Key() Key {
	return Key{GameID: r.GameID, Role: r.Role}
}

// Store persists records
type Store interface {
	// Save inserts or replaces the record. SchemaVersion and SavedAt are set by the store
	Save(ctx context.Context, r *Record) error

	// Load returns ErrNotFound if there is no live record for the key, and
	// ErrVersionMismatch if the record cannot be read by this build
	Load(ctx context.Context, key Key) (*Record, error)

	Delete(ctx context.Context, key Key) error

	// Purge removes expired records and returns how many were removed
	Purge(ctx context.Context) (int64, error)

	Close() error
}

var now = time.Now
