// Package postgres persists dashboard session state so filter
// selections survive process restarts when a database is configured.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"eyedash/domain/filter"
	"eyedash/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SessionRepository stores session snapshots in a single jsonb-backed
// table with upsert semantics.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a repository over an open connection.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Migrate creates the backing table if missing.
func (r *SessionRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS dashboard_sessions (
			session_id   UUID PRIMARY KEY,
			page_key     TEXT NOT NULL DEFAULT '',
			state        JSONB NOT NULL DEFAULT '{}',
			last_updated TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create dashboard_sessions: %w", err)
	}
	return nil
}

type sessionState struct {
	Filters map[string]filter.State `json:"filters"`
	Flags   map[string]bool         `json:"flags"`
}

// Save upserts the snapshot.
func (r *SessionRepository) Save(ctx context.Context, snap *ports.SessionSnapshot) error {
	stateJSON, err := json.Marshal(sessionState{Filters: snap.Filters, Flags: snap.Flags})
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}

	query := `
		INSERT INTO dashboard_sessions (session_id, page_key, state, last_updated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id) DO UPDATE SET
			page_key = EXCLUDED.page_key,
			state = EXCLUDED.state,
			last_updated = EXCLUDED.last_updated`

	_, err = r.db.ExecContext(ctx, query, snap.ID, snap.PageKey, stateJSON, snap.LastUpdated)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Get retrieves the snapshot for a session, (nil, nil) when absent.
func (r *SessionRepository) Get(ctx context.Context, id uuid.UUID) (*ports.SessionSnapshot, error) {
	query := `
		SELECT session_id, page_key, state, last_updated
		FROM dashboard_sessions
		WHERE session_id = $1`

	var snap ports.SessionSnapshot
	var stateJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&snap.ID, &snap.PageKey, &stateJSON, &snap.LastUpdated)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var state sessionState
	if err := json.Unmarshal(stateJSON, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	snap.Filters = state.Filters
	snap.Flags = state.Flags
	return &snap, nil
}

// Delete removes a session.
func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM dashboard_sessions WHERE session_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// PruneBefore drops sessions not updated since the cutoff.
func (r *SessionRepository) PruneBefore(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM dashboard_sessions WHERE last_updated < $1`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune sessions: %w", err)
	}
	return nil
}
