package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ericfisherdev/raverify/internal/domain/model"
	"github.com/ericfisherdev/raverify/internal/domain/port/driven"
)

// PreferenceDateFormat is the key of the date format preference.
const PreferenceDateFormat = "dateFormat"

var (
	// ErrCredentialRequired is returned when no credential is stored and the
	// caller offered no way to ask for one.
	ErrCredentialRequired = errors.New("web API credential required")
	// ErrIncompleteCredential is returned when a prompted credential lacks a
	// username or key.
	ErrIncompleteCredential = errors.New("credential needs both a username and a web API key")
	// ErrUnknownPreference is returned for preference keys this installation does not know.
	ErrUnknownPreference = errors.New("unknown preference")
)

// Prompter asks the user for a credential. save reports whether the user
// wants it remembered.
type Prompter interface {
	PromptCredential(ctx context.Context) (cred model.Credential, save bool, err error)
}

// PrompterFunc adapts a function to the Prompter interface.
type PrompterFunc func(ctx context.Context) (model.Credential, bool, error)

// PromptCredential calls f.
func (f PrompterFunc) PromptCredential(ctx context.Context) (model.Credential, bool, error) {
	return f(ctx)
}

// CredentialService owns the stored web API credential and the display
// preferences.
type CredentialService struct {
	creds driven.CredentialStore
	prefs driven.PreferenceStore
}

// NewCredentialService creates a new CredentialService with the required dependencies.
func NewCredentialService(creds driven.CredentialStore, prefs driven.PreferenceStore) *CredentialService {
	return &CredentialService{
		creds: creds,
		prefs: prefs,
	}
}

// GetOrPrompt returns the stored credential or, when none is stored, asks
// prompter for one. A prompted credential is persisted only when the user
// asked for it. A nil prompter turns a missing credential into
// ErrCredentialRequired.
func (s *CredentialService) GetOrPrompt(ctx context.Context, prompter Prompter) (model.Credential, error) {
	stored, err := s.creds.Get(ctx)
	switch {
	case errors.Is(err, driven.ErrEncryptionKeyNotSet):
		slog.Debug("credential storage disabled", "error", err)
	case err != nil:
		return model.Credential{}, fmt.Errorf("loading credential: %w", err)
	case stored != nil && stored.Complete():
		return *stored, nil
	}

	if prompter == nil {
		return model.Credential{}, ErrCredentialRequired
	}

	cred, save, err := prompter.PromptCredential(ctx)
	if err != nil {
		return model.Credential{}, fmt.Errorf("prompting for credential: %w", err)
	}
	cred.Username = strings.TrimSpace(cred.Username)
	cred.WebAPIKey = strings.TrimSpace(cred.WebAPIKey)
	if !cred.Complete() {
		return model.Credential{}, ErrIncompleteCredential
	}

	if save {
		if err := s.creds.Set(ctx, cred); err != nil {
			// The run can proceed with the prompted credential; the user is asked
			// again next time.
			slog.Warn("credential not saved", "credential", cred, "error", err)
		}
	}
	return cred, nil
}

// HasCredential reports whether a complete credential is stored.
func (s *CredentialService) HasCredential(ctx context.Context) bool {
	stored, err := s.creds.Get(ctx)
	return err == nil && stored != nil && stored.Complete()
}

// Clear removes the stored credential.
func (s *CredentialService) Clear(ctx context.Context) error {
	if err := s.creds.Delete(ctx); err != nil {
		return fmt.Errorf("clearing credential: %w", err)
	}
	slog.Info("stored credential cleared")
	return nil
}

// Preferences returns the stored preferences, writing the defaults on first use.
func (s *CredentialService) Preferences(ctx context.Context) (model.Preferences, error) {
	prefs, err := s.prefs.Get(ctx)
	if err != nil {
		return model.Preferences{}, fmt.Errorf("loading preferences: %w", err)
	}
	if prefs != nil {
		return *prefs, nil
	}

	defaults := model.DefaultPreferences()
	if err := s.prefs.Set(ctx, defaults); err != nil {
		return model.Preferences{}, fmt.Errorf("initializing preferences: %w", err)
	}
	return defaults, nil
}

// GetPreference returns one preference value in its textual form.
func (s *CredentialService) GetPreference(ctx context.Context, key string) (string, error) {
	prefs, err := s.Preferences(ctx)
	if err != nil {
		return "", err
	}

	switch key {
	case PreferenceDateFormat:
		return strconv.Itoa(int(prefs.DateFormat)), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPreference, key)
	}
}

// SetPreference validates and stores one preference value.
func (s *CredentialService) SetPreference(ctx context.Context, key, value string) error {
	prefs, err := s.Preferences(ctx)
	if err != nil {
		return err
	}

	switch key {
	case PreferenceDateFormat:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || !model.DateFormat(n).Valid() {
			return fmt.Errorf("%w: %q", model.ErrInvalidDateFormat, value)
		}
		prefs.DateFormat = model.DateFormat(n)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPreference, key)
	}

	if err := s.prefs.Set(ctx, prefs); err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	return nil
}
