// Package profile caches per-user metadata: username, last command, locale.
//
// The cache is advisory. It is written on every command for diagnostics and
// never consulted by the dialogue engine for correctness, so a nil store or
// a failed write degrades to a log line, not an error for the user.
package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/personal-assistant-for-students/dispatcher-service/core/logger"

	"log/slog"
)

// Profile is one cached user record.
type Profile struct {
	Key         string    `db:"cache_key"`
	Username    string    `db:"username"`
	LastCommand string    `db:"last_command"`
	Locale      string    `db:"locale"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Fields is a partial update for a profile record.
type Fields struct {
	Username    string
	LastCommand string
	Locale      string
}

// Store persists profiles in Postgres. A nil *Store is a valid no-op store.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sqlx.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// Key builds the cache key for a user identifier.
func Key(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

// SetFields upserts the given fields for the key. Errors are returned for
// logging by the caller; they never abort command handling.
func (s *Store) SetFields(ctx context.Context, key string, fields Fields) error {
	if s == nil {
		return nil
	}
	const query = `
		INSERT INTO profiles (cache_key, username, last_command, locale, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (cache_key) DO UPDATE SET
			username     = COALESCE(NULLIF(EXCLUDED.username, ''), profiles.username),
			last_command = COALESCE(NULLIF(EXCLUDED.last_command, ''), profiles.last_command),
			locale       = COALESCE(NULLIF(EXCLUDED.locale, ''), profiles.locale),
			updated_at   = NOW()`
	_, err := s.db.ExecContext(ctx, query, key, fields.Username, fields.LastCommand, fields.Locale)
	if err != nil {
		return fmt.Errorf("profile: set %q: %w", key, err)
	}
	return nil
}

// Get returns the profile for the key, or found=false when absent.
func (s *Store) Get(ctx context.Context, key string) (Profile, bool, error) {
	if s == nil {
		return Profile{}, false, nil
	}
	var p Profile
	err := s.db.GetContext(ctx, &p,
		`SELECT cache_key, username, last_command, locale, updated_at
		 FROM profiles WHERE cache_key = $1`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, false, nil
		}
		return Profile{}, false, fmt.Errorf("profile: get %q: %w", key, err)
	}
	return p, true, nil
}

// Remember records the fields and logs instead of failing.
func (s *Store) Remember(ctx context.Context, userID int64, fields Fields) {
	if s == nil {
		return
	}
	if err := s.SetFields(ctx, Key(userID), fields); err != nil {
		logger.Warn(ctx, "profile", "cache.write_failed",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}
}
