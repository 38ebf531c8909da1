// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package credstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/pbkdf2"

	"github.com/tradeline/tradeline-tui/internal/api"
	"github.com/tradeline/tradeline-tui/internal/config"
	"github.com/tradeline/tradeline-tui/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// EncryptedPrefix marks a stored value as encrypted (format: ENC:base64(nonce|ciphertext|tag)).
const EncryptedPrefix = "ENC:"

// NonceSize is the size of the nonce for AES-GCM (12 bytes).
const NonceSize = 12

// KeySize is the size of the AES-256 key (32 bytes).
const KeySize = 32

// SaltSize is the size of the salt for key derivation (32 bytes).
const SaltSize = 32

// PBKDF2Iterations is the number of iterations for PBKDF2 key derivation.
// OWASP 2023 recommends 600,000+ for PBKDF2-SHA-256.
const PBKDF2Iterations = 600000

const (
	credentialsFile = "credentials"
	secretFile      = "credstore.key"
	saltFile        = "credstore.salt"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoCredentials indicates no token has been saved.
	ErrNoCredentials = errors.New("no stored credentials: run 'tradeline login'")

	// ErrInvalidCiphertext indicates the stored value is malformed.
	ErrInvalidCiphertext = errors.New("invalid credential ciphertext")

	// ErrDecryptionFailed indicates the stored value was tampered with or
	// encrypted under a different key.
	ErrDecryptionFailed = errors.New("credential decryption failed: authentication tag mismatch")
)

// ZeroBytes zeros sensitive byte slices to limit key material exposure.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// =============================================================================
// STORE
// =============================================================================

// Store reads and writes the encrypted session token.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates a store rooted at the given directory.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Default returns the store rooted at the config directory (~/.tradeline).
func Default() (*Store, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate config dir: %w", err)
	}
	return NewStore(dir), nil
}

// Save encrypts and persists the credentials.
func (s *Store) Save(creds api.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create credential dir: %w", err)
	}

	key, err := s.loadOrCreateKey()
	if err != nil {
		return err
	}
	defer ZeroBytes(key)

	sealed, err := encryptString(key, creds.Token)
	if err != nil {
		return err
	}

	if err := util.AtomicWriteFile(s.path(credentialsFile), []byte(sealed), 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}

// Load decrypts and returns the stored credentials.
// Returns ErrNoCredentials if nothing has been saved.
func (s *Store) Load() (api.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(credentialsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return api.Credentials{}, ErrNoCredentials
		}
		return api.Credentials{}, fmt.Errorf("failed to read credentials: %w", err)
	}

	key, err := s.loadKey()
	if err != nil {
		return api.Credentials{}, err
	}
	defer ZeroBytes(key)

	token, err := decryptString(key, strings.TrimSpace(string(data)))
	if err != nil {
		return api.Credentials{}, err
	}
	return api.Credentials{Token: token}, nil
}

// Clear removes the stored credentials. Clearing an empty store is not
// an error. The key material stays so a later login reuses it.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(credentialsFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}

// Exists reports whether credentials have been saved.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path(credentialsFile))
	return err == nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// =============================================================================
// KEY MANAGEMENT
// =============================================================================

// loadOrCreateKey derives the encryption key, generating the machine
// secret and salt on first use.
func (s *Store) loadOrCreateKey() ([]byte, error) {
	secret, err := os.ReadFile(s.path(secretFile))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read credstore secret: %w", err)
		}
		secret = make([]byte, KeySize)
		if _, err := io.ReadFull(rand.Reader, secret); err != nil {
			return nil, fmt.Errorf("failed to generate credstore secret: %w", err)
		}
		if err := util.AtomicWriteFile(s.path(secretFile), secret, 0600); err != nil {
			return nil, fmt.Errorf("failed to write credstore secret: %w", err)
		}
	}

	salt, err := os.ReadFile(s.path(saltFile))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read credstore salt: %w", err)
		}
		salt = make([]byte, SaltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
		if err := util.AtomicWriteFile(s.path(saltFile), salt, 0600); err != nil {
			return nil, fmt.Errorf("failed to write salt: %w", err)
		}
	}

	return deriveKey(secret, salt), nil
}

// loadKey derives the key from existing material only.
func (s *Store) loadKey() ([]byte, error) {
	secret, err := os.ReadFile(s.path(secretFile))
	if err != nil {
		return nil, ErrNoCredentials
	}
	salt, err := os.ReadFile(s.path(saltFile))
	if err != nil {
		return nil, ErrNoCredentials
	}
	return deriveKey(secret, salt), nil
}

// deriveKey derives the AES key from the machine secret and salt using
// PBKDF2-SHA-256.
func deriveKey(secret, salt []byte) []byte {
	return pbkdf2.Key(secret, salt, PBKDF2Iterations, KeySize, sha256.New)
}

// =============================================================================
// ENCRYPTION
// =============================================================================

// encryptString seals a value as ENC:base64(nonce|ciphertext|tag).
func encryptString(key []byte, plaintext string) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return EncryptedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// decryptString opens a value sealed by encryptString.
func decryptString(key []byte, value string) (string, error) {
	if !strings.HasPrefix(value, EncryptedPrefix) {
		return "", ErrInvalidCiphertext
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, EncryptedPrefix))
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	if len(raw) < NonceSize {
		return "", ErrInvalidCiphertext
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, raw[:NonceSize], raw[NonceSize:], nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM cipher: %w", err)
	}
	return gcm, nil
}
