package pwdhash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash := HashPassword("hunter22")
	require.Len(t, hash, hashLenV1)
	require.Equal(t, byte(hashVersion1), hash[0])
	require.True(t, VerifyHash("hunter22", hash))
	require.False(t, VerifyHash("hunter2", hash))
	require.False(t, VerifyHash("", hash))

	// Same password, different salt, different hash
	require.NotEqual(t, hash, HashPassword("hunter22"))

	// Garbage hashes never verify
	require.False(t, VerifyHash("hunter22", nil))
	require.False(t, VerifyHash("hunter22", []byte{1, 2, 3}))
}

func TestHashPasswordBase64(t *testing.T) {
	h := HashPasswordBase64("correct horse battery staple")
	require.True(t, VerifyHashBase64("correct horse battery staple", h))
	require.False(t, VerifyHashBase64("incorrect horse", h))
	require.False(t, VerifyHashBase64("correct horse battery staple", "not base64!!!"))
}

func TestHashSessionToken(t *testing.T) {
	a := HashSessionTokenBase64("token-one")
	b := HashSessionTokenBase64("token-two")
	require.NotEqual(t, a, b)
	// Deterministic, so the token is a stable DB key
	require.Equal(t, a, HashSessionTokenBase64("token-one"))
}
