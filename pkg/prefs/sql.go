package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sgaunet/s2console/pkg/listing"
)

const (
	selectPreference = `SELECT page_limit, pattern FROM console_preferences WHERE pref_key = $1`
	upsertPreference = `INSERT INTO console_preferences (pref_key, page_limit, pattern, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (pref_key) DO UPDATE
SET page_limit = EXCLUDED.page_limit, pattern = EXCLUDED.pattern, updated_at = now()`
)

// SQL keeps preferences in the console_preferences table so that they survive
// console restarts. The schema is created by pkg/dbinit.
type SQL struct {
	db  *sql.DB
	log *slog.Logger
}

var _ listing.PreferenceStore = (*SQL)(nil)

// NewSQL creates a store on an open PostgreSQL connection.
func NewSQL(db *sql.DB) *SQL {
	return &SQL{
		db:  db,
		log: slog.New(slog.DiscardHandler),
	}
}

// SetLogger sets the logger for the store
func (s *SQL) SetLogger(log *slog.Logger) {
	s.log = log
}

// Get returns the preferences stored for resource.
func (s *SQL) Get(ctx context.Context, resource string) (listing.Preferences, bool, error) {
	var p listing.Preferences
	err := s.db.QueryRowContext(ctx, selectPreference, resource).Scan(&p.Limit, &p.Pattern)
	if errors.Is(err, sql.ErrNoRows) {
		return listing.Preferences{}, false, nil
	}
	if err != nil {
		return listing.Preferences{}, false, fmt.Errorf("failed to read preferences %q: %w", resource, err)
	}
	return p, true, nil
}

// Set stores the preferences for resource.
func (s *SQL) Set(ctx context.Context, resource string, p listing.Preferences) error {
	if _, err := s.db.ExecContext(ctx, upsertPreference, resource, p.Limit, p.Pattern); err != nil {
		return fmt.Errorf("failed to save preferences %q: %w", resource, err)
	}
	s.log.Debug("Preferences saved", slog.String("key", resource), slog.Int("limit", p.Limit))
	return nil
}

// Ping checks the connection. Used by the health monitor.
func (s *SQL) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("preferences database: %w", err)
	}
	return nil
}
