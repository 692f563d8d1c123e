package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/raverify/internal/domain/model"
)

func TestPreferenceRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPreferenceRepo(db)

	got, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPreferenceRepo_SetAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPreferenceRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, model.Preferences{DateFormat: model.DateFormatEUDash}))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.DateFormatEUDash, got.DateFormat)
}

func TestPreferenceRepo_StoredAsJSONObject(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPreferenceRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, model.Preferences{DateFormat: model.DateFormatUSSlash}))

	var raw string
	require.NoError(t, db.Reader.QueryRowContext(ctx, `SELECT value FROM preferences WHERE name = ?`, optionsRecord).Scan(&raw))
	assert.JSONEq(t, `{"dateFormat":1}`, raw)
}

func TestPreferenceRepo_MissingKeysKeepDefaults(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPreferenceRepo(db)
	ctx := context.Background()

	_, err := db.Writer.ExecContext(ctx, `INSERT INTO preferences (name, value) VALUES (?, ?)`, optionsRecord, `{"theme":"dark"}`)
	require.NoError(t, err)

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DateFormatISO, got.DateFormat)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	version, err := RunMigrations(db.Writer)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
}
