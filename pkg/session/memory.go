package session

import (
	"context"
	"sync"
	"time"
)

type memoryRecord struct {
	data    []byte
	expires time.Time
}

// MemoryStore keeps records in process memory. Records are stored encoded, the same
// way the SQL store keeps them
type MemoryStore struct {
	ttl     time.Duration
	records map[Key]memoryRecord
	lock    sync.Mutex
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store. A ttl of zero uses DefaultTTL
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &MemoryStore{
		ttl:     ttl,
		records: make(map[Key]memoryRecord),
	}
}

// Save stores the record
func (m *MemoryStore) Save(ctx context.Context, r *Record) error {
	saved := *r
	saved.SchemaVersion = SchemaVersion
	saved.SavedAt = now().UTC()

	b, err := encode(&saved)
	if err != nil {
		return err
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	m.records[r.Key()] = memoryRecord{data: b, expires: saved.SavedAt.Add(m.ttl)}
	return nil
}

// Load returns the record for key
func (m *MemoryStore) Load(ctx context.Context, key Key) (*Record, error) {
	m.lock.Lock()
	rec, ok := m.records[key]
	m.lock.Unlock()

	if !ok || !now().Before(rec.expires) {
		return nil, ErrNotFound
	}

	return decode(rec.data)
}

// Delete removes the record for key
func (m *MemoryStore) Delete(ctx context.Context, key Key) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	delete(m.records, key)
	return nil
}

// Purge removes expired records
func (m *MemoryStore) Purge(ctx context.Context) (int64, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	var n int64
	t := now()
	for key, rec := range m.records {
		if !t.Before(rec.expires) {
			delete(m.records, key)
			n++
		}
	}

	return n, nil
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}
