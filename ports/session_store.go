// Package ports defines the interfaces between the dashboard core and
// its adapters.
package ports

import (
	"context"
	"time"

	"eyedash/domain/filter"

	"github.com/google/uuid"
)

// SessionSnapshot is the persisted per-session dashboard state: which
// page the session last rendered, its filter selections, and the small
// cross-page flag set (e.g. the one-time style-injection marker).
type SessionSnapshot struct {
	ID          uuid.UUID               `json:"id"`
	PageKey     string                  `json:"page_key"`
	Filters     map[string]filter.State `json:"filters"` // keyed by page key
	Flags       map[string]bool         `json:"flags"`
	LastUpdated time.Time               `json:"last_updated"`
}

// SessionStore persists session snapshots. Implementations: the
// in-memory store (internal/session) and the postgres repository
// (adapters/postgres).
type SessionStore interface {
	// Get returns the snapshot for id, or (nil, nil) when none exists.
	Get(ctx context.Context, id uuid.UUID) (*SessionSnapshot, error)
	// Save upserts the snapshot.
	Save(ctx context.Context, snap *SessionSnapshot) error
	// Delete removes the snapshot, destroying the session.
	Delete(ctx context.Context, id uuid.UUID) error
	// PruneBefore drops snapshots not updated since the cutoff.
	PruneBefore(ctx context.Context, cutoff time.Time) error
}
