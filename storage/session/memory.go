// Package session keeps member-registration wizards between requests.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/parishdesk/parishdesk/core/wizard"
)

var nowFunc = time.Now // mockable

type memEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is a process-local wizard.Store. Wizards are stored serialized so callers never share a State.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memEntry
	locks   map[string]time.Time
	ttl     time.Duration
	lockTTL time.Duration
}

var _ wizard.Store = (*MemoryStore)(nil)

func NewMemoryStore(ttl, lockTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memEntry),
		locks:   make(map[string]time.Time),
		ttl:     ttl,
		lockTTL: lockTTL,
	}
}

func (s *MemoryStore) Save(_ context.Context, st *wizard.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "encoding wizard")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[st.ID] = memEntry{data: data, expiresAt: nowFunc().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*wizard.State, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok || !nowFunc().Before(entry.expiresAt) {
		return nil, wizard.ErrNotFound
	}

	st := new(wizard.State)
	if err := json.Unmarshal(entry.data, st); err != nil {
		return nil, errors.Wrap(err, "decoding wizard")
	}
	return st, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	delete(s.locks, id)
	return nil
}

// Acquire holds wizard `id` until release is called or the lock TTL elapses.
func (s *MemoryStore) Acquire(_ context.Context, id string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowFunc()
	if until, held := s.locks[id]; held && now.Before(until) {
		return nil, wizard.ErrSubmitInFlight
	}
	until := now.Add(s.lockTTL)
	s.locks[id] = until

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.locks[id] == until {
			delete(s.locks, id)
		}
	}, nil
}

// Purge drops expired wizards and locks.
func (s *MemoryStore) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowFunc()
	var n int
	for id, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, id)
			n++
		}
	}
	for id, until := range s.locks {
		if !now.Before(until) {
			delete(s.locks, id)
		}
	}
	return n
}

// Run purges expired wizards every `interval` until ctx is done.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Purge()
		}
	}
}
