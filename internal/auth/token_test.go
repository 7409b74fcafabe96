// internal/auth/token_test.go
package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	require.NoError(t, Init())

	token, err := CreateToken("player-123", "Alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	playerID, name, err := VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "player-123", playerID)
	assert.Equal(t, "Alice", name)
}

func TestVerifyGarbageToken(t *testing.T) {
	require.NoError(t, Init())

	_, _, err := VerifyToken("not.a.token")
	assert.Error(t, err)
}

func TestTokenFromOldKeyRejected(t *testing.T) {
	require.NoError(t, Init())
	token, err := CreateToken("player-123", "Alice")
	require.NoError(t, err)

	// New key pair invalidates previously issued tokens.
	require.NoError(t, Init())
	_, _, err = VerifyToken(token)
	assert.Error(t, err)
}

func TestExpireTimeParsing(t *testing.T) {
	t.Setenv("TOKEN_EXPIRE_TIME", "72h")
	require.NoError(t, Init())
	assert.Equal(t, 72*3600, tokenExpireSec)

	t.Setenv("TOKEN_EXPIRE_TIME", "never")
	require.NoError(t, Init())
	assert.Equal(t, 0, tokenExpireSec)

	t.Setenv("TOKEN_EXPIRE_TIME", "bogus")
	assert.Error(t, Init())
}
