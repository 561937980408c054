// Package session tracks per-browser filter selection state. State is
// scoped to a dashboard page: switching pages clears the new page's
// stale selections (a page change resets everything except an explicit
// allowlist of cross-page flags), and the clear action restores the
// data-derived defaults.
package session

import (
	"context"
	"time"

	"eyedash/domain/filter"
	"eyedash/ports"

	"github.com/google/uuid"
)

// crossPageFlags survive a page change; everything else is per-page.
var crossPageFlags = map[string]bool{
	"style_injected": true,
}

// Manager mediates between handlers and the session store.
type Manager struct {
	store ports.SessionStore
	ttl   time.Duration
}

// NewManager creates a manager over the given store.
func NewManager(store ports.SessionStore, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl}
}

// Acquire loads the session for id, creating a fresh one when absent.
func (m *Manager) Acquire(ctx context.Context, id uuid.UUID) (*ports.SessionSnapshot, error) {
	snap, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		snap = &ports.SessionSnapshot{
			ID:      id,
			Filters: make(map[string]filter.State),
			Flags:   make(map[string]bool),
		}
	}
	if snap.Filters == nil {
		snap.Filters = make(map[string]filter.State)
	}
	if snap.Flags == nil {
		snap.Flags = make(map[string]bool)
	}
	return snap, nil
}

// PageState returns the filter state for pageKey, initializing it from
// defaults on first visit. A page-key change wipes the previous page's
// selections so filters never leak across dashboards; only allowlisted
// flags survive.
func (m *Manager) PageState(snap *ports.SessionSnapshot, pageKey string, defaults func() filter.State) filter.State {
	if snap.PageKey != pageKey {
		snap.Filters = make(map[string]filter.State)
		for flag := range snap.Flags {
			if !crossPageFlags[flag] {
				delete(snap.Flags, flag)
			}
		}
		snap.PageKey = pageKey
	}
	state, ok := snap.Filters[pageKey]
	if !ok {
		state = defaults()
		snap.Filters[pageKey] = state
	}
	return state
}

// SetPageState stores an updated selection for pageKey.
func (m *Manager) SetPageState(snap *ports.SessionSnapshot, pageKey string, state filter.State) {
	snap.Filters[pageKey] = state
}

// Clear resets pageKey's selections to the data-derived defaults.
func (m *Manager) Clear(snap *ports.SessionSnapshot, pageKey string, defaults func() filter.State) filter.State {
	state := defaults()
	snap.Filters[pageKey] = state
	return state
}

// Commit persists the snapshot.
func (m *Manager) Commit(ctx context.Context, snap *ports.SessionSnapshot) error {
	snap.LastUpdated = time.Now()
	return m.store.Save(ctx, snap)
}

// Prune drops sessions idle longer than the TTL.
func (m *Manager) Prune(ctx context.Context) error {
	return m.store.PruneBefore(ctx, time.Now().Add(-m.ttl))
}
