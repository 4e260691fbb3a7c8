package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetTokenRoundTrip(t *testing.T) {
	tok, err := NewResetToken("secret", 42, time.Minute)
	require.NoError(t, err)

	uid, err := ParseResetToken("secret", tok)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), uid)
}

func TestResetTokenWrongSecret(t *testing.T) {
	tok, err := NewResetToken("secret", 42, time.Minute)
	require.NoError(t, err)

	_, err = ParseResetToken("other", tok)
	assert.ErrorIs(t, err, ErrResetToken)
}

func TestResetTokenExpired(t *testing.T) {
	tok, err := NewResetToken("secret", 42, -time.Minute)
	require.NoError(t, err)

	_, err = ParseResetToken("secret", tok)
	assert.ErrorIs(t, err, ErrResetToken)
}

func TestResetTokenGarbage(t *testing.T) {
	for _, tok := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
		_, err := ParseResetToken("secret", tok)
		assert.ErrorIs(t, err, ErrResetToken, "token %q", tok)
	}
}
