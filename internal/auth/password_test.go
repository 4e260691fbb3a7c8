package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyRoundTrip(t *testing.T) {
	passwords := []string{
		"hunter2",
		"correct horse battery staple",
		"pässwörd-ünïcode",
		"日本語のパスワード",
		"",
		strings.Repeat("x", 128),
	}
	for _, pw := range passwords {
		h, err := HashPassword(pw)
		require.NoError(t, err)
		assert.True(t, VerifyPassword(pw, h), "password %q should verify against its own hash", pw)
		assert.False(t, VerifyPassword(pw+"!", h), "modified password should not verify")
	}
}

func TestHashFormat(t *testing.T) {
	h, err := HashPassword("secret")
	require.NoError(t, err)
	parts := strings.Split(h, ".")
	require.Len(t, parts, 2)
	assert.Len(t, parts[0], keyLen*2)
	assert.Len(t, parts[1], saltBytes*2)
}

func TestHashIsSalted(t *testing.T) {
	h1, err := HashPassword("same")
	require.NoError(t, err)
	h2, err := HashPassword("same")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestVerifyFailsClosedOnMalformedStored(t *testing.T) {
	malformed := []string{
		"",
		"nodotatall",
		".",
		"abc.",
		".def",
		"a.b.c",
		"zz.zz",                     // not hex
		"deadbeef.nothexatall!!",    // salt not hex
		"not-hex-at-all.deadbeef00", // key not hex
	}
	for _, s := range malformed {
		assert.False(t, VerifyPassword("anything", s), "stored %q must verify false", s)
	}
}
