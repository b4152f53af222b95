package rng

import (
	"math/rand"
	"sync"
)

// Generator provides a simple random number
type Generator interface {
	// Intn will return a random number up to but not including n
	Intn(n int) int
}

// Seeded is a deterministic Generator. It is safe for concurrent use.
// Tests and replays use it so a shuffle can be reproduced from its seed
type Seeded struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSeeded returns a deterministic generator for the seed
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rnd: rand.New(rand.NewSource(seed))} // nolint:gosec
}

// Intn returns a number in [0, n)
func (s *Seeded) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rnd.Intn(n)
}
