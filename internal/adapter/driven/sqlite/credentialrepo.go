package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ericfisherdev/raverify/internal/domain/model"
	"github.com/ericfisherdev/raverify/internal/domain/port/driven"
)

// credentialService is the fixed key of the single credential record.
const credentialService = "retroachievements"

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// credentialRecord is the persisted JSON layout. Older records carried the
// key under "apikey"; they are rewritten as "webApiKey" on first read.
type credentialRecord struct {
	Username     string `json:"username"`
	WebAPIKey    string `json:"webApiKey,omitempty"`
	LegacyAPIKey string `json:"apikey,omitempty"`
}

// CredentialRepo is the SQLite implementation of the CredentialStore port.
// The record is encrypted with AES-256-GCM before write and decrypted after read.
type CredentialRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil when persistence is disabled.
}

// NewCredentialRepo creates a new CredentialRepo. key must be 32 bytes for AES-256-GCM,
// or nil to disable credential storage (Get and Set return driven.ErrEncryptionKeyNotSet).
func NewCredentialRepo(db *DB, key []byte) *CredentialRepo {
	return &CredentialRepo{db: db, key: key}
}

// Get returns the stored credential, or (nil, nil) if none exists.
func (r *CredentialRepo) Get(ctx context.Context) (*model.Credential, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT value FROM credentials WHERE service = ?`
	var encrypted string
	err := r.db.Reader.QueryRowContext(ctx, query, credentialService).Scan(&encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}

	plaintext, err := r.decrypt(encrypted)
	if err != nil {
		return nil, fmt.Errorf("decrypt credential: %w", err)
	}

	var rec credentialRecord
	if err := json.Unmarshal([]byte(plaintext), &rec); err != nil {
		return nil, fmt.Errorf("decode credential: %w", err)
	}

	cred := model.Credential{Username: rec.Username, WebAPIKey: rec.WebAPIKey}
	if cred.WebAPIKey == "" && rec.LegacyAPIKey != "" {
		cred.WebAPIKey = rec.LegacyAPIKey
		if err := r.Set(ctx, cred); err != nil {
			return nil, fmt.Errorf("migrate legacy credential: %w", err)
		}
		slog.Info("migrated legacy credential record", "credential", cred)
	}

	return &cred, nil
}

// Set stores or replaces the credential.
func (r *CredentialRepo) Set(ctx context.Context, cred model.Credential) error {
	return r.write(ctx, credentialRecord{Username: cred.Username, WebAPIKey: cred.WebAPIKey})
}

// Delete removes the stored credential.
func (r *CredentialRepo) Delete(ctx context.Context) error {
	const query = `DELETE FROM credentials WHERE service = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, credentialService); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

func (r *CredentialRepo) write(ctx context.Context, rec credentialRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}

	encrypted, err := r.encrypt(string(data))
	if err != nil {
		return err
	}

	const query = `INSERT OR REPLACE INTO credentials (service, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`
	if _, err := r.db.Writer.ExecContext(ctx, query, credentialService, encrypted); err != nil {
		return fmt.Errorf("set credential: %w", err)
	}
	return nil
}

// encrypt encrypts plaintext using AES-256-GCM and returns a base64-encoded string
// containing the nonce (12 bytes) prepended to the ciphertext.
func (r *CredentialRepo) encrypt(plaintext string) (string, error) {
	if r.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	gcm, err := newGCM(r.key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts a base64-encoded AES-256-GCM ciphertext.
func (r *CredentialRepo) decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	gcm, err := newGCM(r.key)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}
