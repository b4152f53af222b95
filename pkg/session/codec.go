package session

import (
	"encoding/json"
	"fmt"

	"headsup-server/pkg/holdem"
)

func encode(r *Record) ([]byte, error) {
	return json.Marshal(r)
}

// decode checks the schema version before decoding the rest of the record, so a
// record written by another build is never partially applied
func decode(b []byte) (*Record, error) {
	var header struct {
		SchemaVersion int `json:"schemaVersion"`
	}

	if err := json.Unmarshal(b, &header); err != nil {
		return nil, fmt.Errorf("could not decode session: %w", err)
	}

	if header.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, header.SchemaVersion, SchemaVersion)
	}

	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("could not decode session: %w", err)
	}

	if r.State.SchemaVersion != holdem.SchemaVersion {
		return nil, fmt.Errorf("%w: state version %d", ErrVersionMismatch, r.State.SchemaVersion)
	}

	return &r, nil
}
