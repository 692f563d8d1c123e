package driven

import (
	"context"

	"github.com/ericfisherdev/raverify/internal/domain/model"
)

// PreferenceStore defines the driven port for persisted display preferences.
type PreferenceStore interface {
	// Get returns the stored preferences, or (nil, nil) when none were saved yet.
	Get(ctx context.Context) (*model.Preferences, error)

	// Set stores or replaces the preferences record.
	Set(ctx context.Context, prefs model.Preferences) error
}
