package cryptox_test

import (
	"encoding/base64"
	"testing"

	"github.com/botflowhq/botflow/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestHashVerifyRoundTrip(t *testing.T) {
	hash, salt, err := cryptox.HashPassword("Aa1!aaaa")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	require.NotEmpty(t, salt)

	require.True(t, cryptox.VerifyPassword("Aa1!aaaa", hash, salt))
	require.False(t, cryptox.VerifyPassword("Aa1!aaab", hash, salt))
}

func TestHashIsSalted(t *testing.T) {
	h1, s1, err := cryptox.HashPassword("same-password")
	require.NoError(t, err)
	h2, s2, err := cryptox.HashPassword("same-password")
	require.NoError(t, err)

	// A fresh key per call means hashes never collide across accounts.
	require.NotEqual(t, s1, s2)
	require.NotEqual(t, h1, h2)
}

func TestVerifyFailsClosed(t *testing.T) {
	hash, salt, err := cryptox.HashPassword("secret")
	require.NoError(t, err)

	t.Run("empty stored hash", func(t *testing.T) {
		require.False(t, cryptox.VerifyPassword("secret", "", salt))
	})

	t.Run("empty stored salt", func(t *testing.T) {
		require.False(t, cryptox.VerifyPassword("secret", hash, ""))
	})

	t.Run("malformed base64", func(t *testing.T) {
		require.False(t, cryptox.VerifyPassword("secret", "%%%not-base64%%%", salt))
		require.False(t, cryptox.VerifyPassword("secret", hash, "%%%not-base64%%%"))
	})
}

func TestHashEncoding(t *testing.T) {
	hash, salt, err := cryptox.HashPassword("encoding-check")
	require.NoError(t, err)

	rawHash, err := base64.StdEncoding.DecodeString(hash)
	require.NoError(t, err)
	require.Len(t, rawHash, 64) // SHA-512 digest

	rawSalt, err := base64.StdEncoding.DecodeString(salt)
	require.NoError(t, err)
	require.Len(t, rawSalt, 128)
}
