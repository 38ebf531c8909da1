// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package credstore

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeline/tradeline-tui/internal/api"
)

func TestStore_RoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	require.NoError(t, store.Save(api.Credentials{Token: "tok-secret-123"}))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-secret-123", loaded.Token)
}

func TestStore_TokenNotStoredInPlaintext(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, store.Save(api.Credentials{Token: "tok-secret-123"}))

	raw, err := os.ReadFile(filepath.Join(dir, "credentials"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), EncryptedPrefix))
	assert.NotContains(t, string(raw), "tok-secret-123")
}

func TestStore_Permissions(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, store.Save(api.Credentials{Token: "tok"}))

	for _, name := range []string{"credentials", "credstore.key", "credstore.salt"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), name)
	}
}

func TestStore_LoadWithoutSave(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestStore_TamperDetection(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, store.Save(api.Credentials{Token: "tok-secret"}))

	// Flip a byte inside the sealed payload.
	path := filepath.Join(dir, "credentials")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	sealed, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(string(raw), EncryptedPrefix))
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0x01
	tampered := EncryptedPrefix + base64.StdEncoding.EncodeToString(sealed)
	require.NoError(t, os.WriteFile(path, []byte(tampered), 0600))

	_, err = store.Load()
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestStore_Overwrite(t *testing.T) {
	store := NewStore(t.TempDir())

	require.NoError(t, store.Save(api.Credentials{Token: "old-token"}))
	require.NoError(t, store.Save(api.Credentials{Token: "new-token"}))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "new-token", loaded.Token)
}

func TestStore_Clear(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.Save(api.Credentials{Token: "tok"}))
	require.True(t, store.Exists())

	require.NoError(t, store.Clear())
	assert.False(t, store.Exists())

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoCredentials)

	// Clearing again is not an error.
	assert.NoError(t, store.Clear())
}

func TestStore_KeyMaterialSurvivesClear(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, store.Save(api.Credentials{Token: "first"}))
	require.NoError(t, store.Clear())

	// A later login reuses the machine secret.
	require.NoError(t, store.Save(api.Credentials{Token: "second"}))
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "second", loaded.Token)
}

func TestDecryptString_MalformedValues(t *testing.T) {
	key := make([]byte, KeySize)

	for _, value := range []string{"", "not-encrypted", "ENC:!!!bad-base64", "ENC:"} {
		_, err := decryptString(key, value)
		assert.ErrorIs(t, err, ErrInvalidCiphertext, value)
	}
}
