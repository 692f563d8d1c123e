package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/raverify/internal/domain/model"
	"github.com/ericfisherdev/raverify/internal/domain/port/driven"
)

type stubPrompter struct {
	cred  model.Credential
	save  bool
	err   error
	calls int
}

func (p *stubPrompter) PromptCredential(_ context.Context) (model.Credential, bool, error) {
	p.calls++
	return p.cred, p.save, p.err
}

func TestCredentialService_GetOrPrompt_UsesStored(t *testing.T) {
	store := &mockCredentialStore{cred: &model.Credential{Username: "alice", WebAPIKey: "k"}}
	svc := NewCredentialService(store, &mockPreferenceStore{})
	prompter := &stubPrompter{}

	cred, err := svc.GetOrPrompt(context.Background(), prompter)

	require.NoError(t, err)
	assert.Equal(t, "alice", cred.Username)
	assert.Equal(t, 0, prompter.calls)
}

func TestCredentialService_GetOrPrompt_PromptsAndSaves(t *testing.T) {
	store := &mockCredentialStore{}
	svc := NewCredentialService(store, &mockPreferenceStore{})
	prompter := &stubPrompter{cred: model.Credential{Username: " alice ", WebAPIKey: " key\n"}, save: true}

	cred, err := svc.GetOrPrompt(context.Background(), prompter)

	require.NoError(t, err)
	assert.Equal(t, model.Credential{Username: "alice", WebAPIKey: "key"}, cred)
	assert.Equal(t, 1, prompter.calls)
	require.NotNil(t, store.cred)
	assert.Equal(t, cred, *store.cred)

	again, err := svc.GetOrPrompt(context.Background(), prompter)
	require.NoError(t, err)
	assert.Equal(t, cred, again)
	assert.Equal(t, 1, prompter.calls, "stored credential is reused")
}

func TestCredentialService_GetOrPrompt_WithoutSave(t *testing.T) {
	store := &mockCredentialStore{}
	svc := NewCredentialService(store, &mockPreferenceStore{})
	prompter := &stubPrompter{cred: model.Credential{Username: "alice", WebAPIKey: "key"}}

	_, err := svc.GetOrPrompt(context.Background(), prompter)

	require.NoError(t, err)
	assert.Equal(t, 0, store.setCalls)
	assert.Nil(t, store.cred)
}

func TestCredentialService_GetOrPrompt_StorageDisabled(t *testing.T) {
	store := &mockCredentialStore{getErr: driven.ErrEncryptionKeyNotSet, setErr: driven.ErrEncryptionKeyNotSet}
	svc := NewCredentialService(store, &mockPreferenceStore{})
	prompter := &stubPrompter{cred: model.Credential{Username: "alice", WebAPIKey: "key"}, save: true}

	cred, err := svc.GetOrPrompt(context.Background(), prompter)

	require.NoError(t, err, "a failed save does not block the run")
	assert.Equal(t, "alice", cred.Username)
	assert.Equal(t, 1, store.setCalls)
}

func TestCredentialService_GetOrPrompt_Errors(t *testing.T) {
	errStore := errors.New("disk on fire")
	errPrompt := errors.New("stdin closed")

	tests := []struct {
		name     string
		store    *mockCredentialStore
		prompter Prompter
		wantErr  error
	}{
		{
			name:     "nil prompter",
			store:    &mockCredentialStore{},
			prompter: nil,
			wantErr:  ErrCredentialRequired,
		},
		{
			name:     "incomplete stored credential and no prompter",
			store:    &mockCredentialStore{cred: &model.Credential{Username: "alice"}},
			prompter: nil,
			wantErr:  ErrCredentialRequired,
		},
		{
			name:     "incomplete prompted credential",
			store:    &mockCredentialStore{},
			prompter: &stubPrompter{cred: model.Credential{Username: "alice", WebAPIKey: "  "}},
			wantErr:  ErrIncompleteCredential,
		},
		{
			name:     "prompter error",
			store:    &mockCredentialStore{},
			prompter: &stubPrompter{err: errPrompt},
			wantErr:  errPrompt,
		},
		{
			name:     "store error",
			store:    &mockCredentialStore{getErr: errStore},
			prompter: &stubPrompter{},
			wantErr:  errStore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewCredentialService(tt.store, &mockPreferenceStore{})

			_, err := svc.GetOrPrompt(context.Background(), tt.prompter)

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCredentialService_PrompterFunc(t *testing.T) {
	svc := NewCredentialService(&mockCredentialStore{}, &mockPreferenceStore{})

	cred, err := svc.GetOrPrompt(context.Background(), PrompterFunc(func(context.Context) (model.Credential, bool, error) {
		return model.Credential{Username: "bob", WebAPIKey: "k"}, false, nil
	}))

	require.NoError(t, err)
	assert.Equal(t, "bob", cred.Username)
}

func TestCredentialService_Clear(t *testing.T) {
	store := &mockCredentialStore{cred: &model.Credential{Username: "alice", WebAPIKey: "k"}}
	svc := NewCredentialService(store, &mockPreferenceStore{})
	require.True(t, svc.HasCredential(context.Background()))

	require.NoError(t, svc.Clear(context.Background()))

	assert.True(t, store.deleted)
	assert.False(t, svc.HasCredential(context.Background()))
}

func TestCredentialService_PreferencesInitializedOnFirstUse(t *testing.T) {
	prefs := &mockPreferenceStore{}
	svc := NewCredentialService(&mockCredentialStore{}, prefs)

	got, err := svc.Preferences(context.Background())

	require.NoError(t, err)
	assert.Equal(t, model.DefaultPreferences(), got)
	assert.Equal(t, 1, prefs.setCalls)

	_, err = svc.Preferences(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, prefs.setCalls)
}

func TestCredentialService_SetAndGetPreference(t *testing.T) {
	prefs := &mockPreferenceStore{}
	svc := NewCredentialService(&mockCredentialStore{}, prefs)

	require.NoError(t, svc.SetPreference(context.Background(), PreferenceDateFormat, "2"))

	got, err := svc.GetPreference(context.Background(), PreferenceDateFormat)
	require.NoError(t, err)
	assert.Equal(t, "2", got)
	assert.Equal(t, model.DateFormatEUSlash, prefs.prefs.DateFormat)
}

func TestCredentialService_SetPreference_Rejects(t *testing.T) {
	svc := NewCredentialService(&mockCredentialStore{}, &mockPreferenceStore{})

	assert.ErrorIs(t, svc.SetPreference(context.Background(), PreferenceDateFormat, "5"), model.ErrInvalidDateFormat)
	assert.ErrorIs(t, svc.SetPreference(context.Background(), PreferenceDateFormat, "iso"), model.ErrInvalidDateFormat)
	assert.ErrorIs(t, svc.SetPreference(context.Background(), "theme", "dark"), ErrUnknownPreference)

	_, err := svc.GetPreference(context.Background(), "theme")
	assert.ErrorIs(t, err, ErrUnknownPreference)
}
