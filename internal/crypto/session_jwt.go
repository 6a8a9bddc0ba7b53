package crypto

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidSessionToken is returned for malformed, forged or expired session tokens
	ErrInvalidSessionToken = errors.New("invalid session token")
)

const (
	// JWTIssuer is the issuer name
	JWTIssuer = "dgtt-autoecole-backend"
)

// SessionClaims represents JWT claims carried by the session cookie
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// GenerateSessionJWT signs a session token with HS256
// Returns the token string and its expiration timestamp
func GenerateSessionJWT(sessionID string, key []byte, lifetime time.Duration) (token string, expiresAt time.Time, err error) {
	if sessionID == "" {
		return "", time.Time{}, fmt.Errorf("session ID is required")
	}
	if len(key) == 0 {
		return "", time.Time{}, fmt.Errorf("signing key is required")
	}
	if lifetime <= 0 {
		return "", time.Time{}, fmt.Errorf("lifetime must be positive")
	}

	now := time.Now().UTC()
	expiresAt = now.Add(lifetime)

	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    JWTIssuer,
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	token, err = jwtToken.SignedString(key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	return token, expiresAt, nil
}

// VerifySessionJWT verifies a session token and returns its claims
// Every failure wraps ErrInvalidSessionToken
func VerifySessionJWT(tokenString string, key []byte) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: token is empty", ErrInvalidSessionToken)
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	},
		jwt.WithIssuer(JWTIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid claims", ErrInvalidSessionToken)
	}
	if claims.SessionID == "" || claims.SessionID != claims.Subject {
		return nil, fmt.Errorf("%w: session ID mismatch", ErrInvalidSessionToken)
	}

	return claims, nil
}
