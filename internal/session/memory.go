package session

import (
	"context"
	"sync"
	"time"

	"eyedash/ports"

	"github.com/google/uuid"
)

// MemoryStore is the in-process SessionStore used when no DATABASE_URL
// is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[uuid.UUID]*ports.SessionSnapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[uuid.UUID]*ports.SessionSnapshot)}
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*ports.SessionSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[id]
	if !ok {
		return nil, nil
	}
	cp := *snap
	return &cp, nil
}

func (s *MemoryStore) Save(_ context.Context, snap *ports.SessionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *snap
	s.snaps[snap.ID] = &cp
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, id)
	return nil
}

func (s *MemoryStore) PruneBefore(_ context.Context, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, snap := range s.snaps {
		if snap.LastUpdated.Before(cutoff) {
			delete(s.snaps, id)
		}
	}
	return nil
}
