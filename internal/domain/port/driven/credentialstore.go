package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/raverify/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by CredentialStore operations when
// RAVERIFY_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set RAVERIFY_SECRET_KEY")

// CredentialStore defines the driven port for the single persisted web API
// credential. The adapter is responsible for encryption and for migrating
// legacy record layouts; this interface operates on plaintext values.
type CredentialStore interface {
	// Get returns the stored credential, or (nil, nil) when none is stored.
	// Returns ErrEncryptionKeyNotSet if the adapter has no encryption key.
	Get(ctx context.Context) (*model.Credential, error)

	// Set stores or replaces the credential.
	// Returns ErrEncryptionKeyNotSet if the adapter has no encryption key.
	Set(ctx context.Context, cred model.Credential) error

	// Delete removes the stored credential. Deleting a missing record is not an error.
	Delete(ctx context.Context) error
}
