package room

import (
	"sync"
	"time"
)

type timerEntry struct {
	timer *time.Timer
	gen   uint64
}

// Scheduler runs named, cancellable timers. Callbacks are handed to exec, which is
// expected to run them on the owner's run loop. Scheduling a name that is already
// pending replaces the earlier timer
type Scheduler struct {
	exec    func(fn func())
	timers  map[string]timerEntry
	gen     uint64
	stopped bool
	lock    sync.Mutex
}

// NewScheduler returns a scheduler that hands callbacks to exec
func NewScheduler(exec func(fn func())) *Scheduler {
	return &Scheduler{
		exec:   exec,
		timers: make(map[string]timerEntry),
	}
}

// After schedules fn to run after d
func (s *Scheduler) After(name string, d time.Duration, fn func()) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.stopped {
		return
	}

	if entry, ok := s.timers[name]; ok {
		entry.timer.Stop()
	}

	s.gen++
	gen := s.gen
	s.timers[name] = timerEntry{
		gen: gen,
		timer: time.AfterFunc(d, func() {
			s.exec(func() {
				if s.take(name, gen) {
					fn()
				}
			})
		}),
	}
}

// take removes the timer if it is still the current one for name
func (s *Scheduler) take(name string, gen uint64) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	entry, ok := s.timers[name]
	if s.stopped || !ok || entry.gen != gen {
		return false
	}

	delete(s.timers, name)
	return true
}

// Cancel cancels the named timer
func (s *Scheduler) Cancel(name string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if entry, ok := s.timers[name]; ok {
		entry.timer.Stop()
		delete(s.timers, name)
	}
}

// Pending returns true if the named timer has not fired yet
func (s *Scheduler) Pending(name string) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	_, ok := s.timers[name]
	return ok
}

// Stop cancels every timer. Nothing can be scheduled afterwards
func (s *Scheduler) Stop() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.stopped = true
	for name, entry := range s.timers {
		entry.timer.Stop()
		delete(s.timers, name)
	}
}
