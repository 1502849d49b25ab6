// Package session keeps each browser's filter selection in memory, keyed by
// the id stored in its session cookie.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"account-explorer/internal/metrics"
	"account-explorer/internal/models"
)

type entry struct {
	selection models.FilterSelection
	touched   time.Time
}

type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Create registers a fresh session holding the reset selection.
func (s *Store) Create() string {
	id := uuid.New().String()
	s.mu.Lock()
	s.entries[id] = &entry{touched: s.now()}
	n := len(s.entries)
	s.mu.Unlock()
	metrics.SessionsActive.Set(float64(n))
	return id
}

// Ensure returns id if it is live, otherwise a newly created session id.
func (s *Store) Ensure(id string) (string, bool) {
	if id != "" {
		s.mu.RLock()
		_, ok := s.entries[id]
		s.mu.RUnlock()
		if ok {
			return id, false
		}
	}
	return s.Create(), true
}

// Get returns a copy of the selection. Unknown ids read as the reset state.
func (s *Store) Get(id string) (models.FilterSelection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return models.FilterSelection{}, false
	}
	e.touched = s.now()
	return e.selection.Clone(), true
}

// Update applies fn to the session's selection under the store lock and
// returns the result. An unknown id is created on the fly.
func (s *Store) Update(id string, fn func(*models.FilterSelection)) models.FilterSelection {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		e = &entry{}
		s.entries[id] = e
	}
	sel := e.selection.Clone()
	fn(&sel)
	e.selection = sel
	e.touched = s.now()
	n := len(s.entries)
	out := sel.Clone()
	s.mu.Unlock()

	if !ok {
		metrics.SessionsActive.Set(float64(n))
	}
	return out
}

// Reset restores every control of the session to its default in one step.
func (s *Store) Reset(id string) {
	s.Update(id, func(sel *models.FilterSelection) {
		*sel = models.FilterSelection{}
	})
}

// Sweep drops sessions idle for longer than ttl and reports how many went.
func (s *Store) Sweep(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)
	s.mu.Lock()
	removed := 0
	for id, e := range s.entries {
		if e.touched.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	n := len(s.entries)
	s.mu.Unlock()
	metrics.SessionsActive.Set(float64(n))
	return removed
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
