// Package auth issues and verifies session tokens and hashes password
// credentials. Tokens are HS256 JWTs carrying the numeric user id; the jti
// claim identifies a revocable session row, so tokens die when the row does.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kappapiana/sentinel-solo/internal/common"
)

// Claims includes the registered claims plus the numeric user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64
}

// GenerateToken mints a signed session token for userID with the given
// session id (jti) and validity duration.
func GenerateToken(userID int64, sessionID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and expiry of a session token and
// returns its claims. Revocation is checked separately against the
// sessions table by the caller.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
