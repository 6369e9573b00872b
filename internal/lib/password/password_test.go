package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_Deterministic(t *testing.T) {
	h1 := Hash("secretpass", "12345")
	h2 := Hash("secretpass", "12345")

	assert.Equal(t, h1, h2)
}

func TestHash_SaltChangesDigest(t *testing.T) {
	h1 := Hash("secretpass", "12345")
	h2 := Hash("secretpass", "54321")

	assert.NotEqual(t, h1, h2)
}

func TestHash_EmptyPassword(t *testing.T) {
	assert.Equal(t, "", Hash("", "12345"))
}

func TestSet_FreshSaltEachCall(t *testing.T) {
	hash, salt := Set("secretpass")
	require.NotEmpty(t, hash)
	require.NotEmpty(t, salt)

	assert.Equal(t, hash, Hash("secretpass", salt))
}

func TestAuthenticate(t *testing.T) {
	hash, salt := Set("secretpass")

	assert.True(t, Authenticate("secretpass", salt, hash))
	assert.False(t, Authenticate("wrongpass", salt, hash))
	assert.False(t, Authenticate("", salt, hash))
	assert.False(t, Authenticate("secretpass", salt, ""))
}
