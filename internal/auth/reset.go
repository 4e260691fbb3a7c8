package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrResetToken covers every way a password reset token can be bad:
// malformed, forged, expired or carrying an unusable subject.
var ErrResetToken = errors.New("invalid or expired reset token")

// NewResetToken mints a short-lived HS256 token for the forgot-password
// flow. The token is mailed to the user and exchanged once for a new
// password; it carries only the user id and an expiry.
func NewResetToken(secret string, userID uint64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(userID, 10),
		"typ": "pwd_reset",
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseResetToken validates the signature, type and expiry and returns the
// user id the token was minted for.
func ParseResetToken(secret, tokenStr string) (uint64, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return 0, ErrResetToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrResetToken
	}
	if typ, _ := claims["typ"].(string); typ != "pwd_reset" {
		return 0, ErrResetToken
	}
	sub, _ := claims["sub"].(string)
	uid, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || uid == 0 {
		return 0, ErrResetToken
	}
	return uid, nil
}
