package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters. Changing them invalidates stored hashes, so they are
// fixed rather than configurable.
const (
	scryptN   = 16384
	scryptR   = 8
	scryptP   = 1
	keyLen    = 32
	saltBytes = 16
)

// HashPassword derives a scrypt key from the plain password with a fresh
// random salt and returns it as "<hexKey>.<hexSalt>".
func HashPassword(plain string) (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key, err := scrypt.Key([]byte(plain), salt, scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key) + "." + hex.EncodeToString(salt), nil
}

// VerifyPassword compares a candidate password against a stored
// "<hexKey>.<hexSalt>" hash. It fails closed: any malformed stored value,
// hex error or derivation failure yields false, never an error.
func VerifyPassword(candidate, stored string) bool {
	parts := strings.Split(stored, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}
	wantKey, err := hex.DecodeString(parts[0])
	if err != nil {
		return false
	}
	salt, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}
	gotKey, err := scrypt.Key([]byte(candidate), salt, scryptN, scryptR, scryptP, len(wantKey))
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(gotKey, wantKey) == 1
}
