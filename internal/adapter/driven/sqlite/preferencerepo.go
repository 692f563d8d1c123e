package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ericfisherdev/raverify/internal/domain/model"
	"github.com/ericfisherdev/raverify/internal/domain/port/driven"
)

// optionsRecord is the fixed name of the preferences record.
const optionsRecord = "options"

// Compile-time interface satisfaction check.
var _ driven.PreferenceStore = (*PreferenceRepo)(nil)

// PreferenceRepo is the SQLite implementation of the PreferenceStore port.
// Preferences are kept as one JSON object so new keys need no schema change.
type PreferenceRepo struct {
	db *DB
}

// NewPreferenceRepo creates a new PreferenceRepo.
func NewPreferenceRepo(db *DB) *PreferenceRepo {
	return &PreferenceRepo{db: db}
}

// Get returns the stored preferences, or (nil, nil) if none were saved.
func (r *PreferenceRepo) Get(ctx context.Context) (*model.Preferences, error) {
	const query = `SELECT value FROM preferences WHERE name = ?`
	var raw string
	err := r.db.Reader.QueryRowContext(ctx, query, optionsRecord).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}

	prefs := model.DefaultPreferences()
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	return &prefs, nil
}

// Set stores or replaces the preferences record.
func (r *PreferenceRepo) Set(ctx context.Context, prefs model.Preferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}

	const query = `INSERT OR REPLACE INTO preferences (name, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`
	if _, err := r.db.Writer.ExecContext(ctx, query, optionsRecord, string(data)); err != nil {
		return fmt.Errorf("set preferences: %w", err)
	}
	return nil
}
