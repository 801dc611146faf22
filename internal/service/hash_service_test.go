package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgon2HashService_HashAndVerify(t *testing.T) {
	svc := NewArgon2HashService()

	hash, err := svc.Hash("1234")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := svc.Verify("1234", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Verify("4321", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2HashService_UniqueSalts(t *testing.T) {
	svc := NewArgon2HashService()

	h1, err := svc.Hash("secret-pin")
	require.NoError(t, err)
	h2, err := svc.Hash("secret-pin")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestArgon2HashService_Verify_MalformedHash(t *testing.T) {
	svc := NewArgon2HashService()

	_, err := svc.Verify("1234", "not-a-hash")
	assert.Error(t, err)
}

func TestArgon2HashService_Verify_UsesEmbeddedParams(t *testing.T) {
	// Hashes written under older cost settings must still verify: the
	// parameters come from the encoded hash, not the service defaults.
	legacy := Argon2HashService{params: argon2Params{
		memory:  32 * 1024,
		time:    2,
		threads: 2,
		saltLen: 16,
		keyLen:  32,
	}}
	hash, err := legacy.Hash("1234")
	require.NoError(t, err)
	assert.True(t, strings.Contains(hash, "$m=32768,t=2,p=2$"))

	ok, err := NewArgon2HashService().Verify("1234", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}
