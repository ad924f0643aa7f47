// Package auth issues and verifies the bearer credentials used by both the
// HTTP API and the websocket endpoint.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"reelfeed/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer   = "reelfeed-api"
	audience = "reelfeed-client"
)

// ErrInvalidToken is returned for any credential that fails verification.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims are the verified contents of a credential. TokenVersion carries the
// revocation epoch the token was issued under; callers compare it against the
// user's current epoch to honor logout and password changes.
type Claims struct {
	UserID       uint
	Username     string
	Role         string
	TokenVersion int
}

// TokenManager signs and verifies HS256 credentials.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a manager for the given signing secret. ttl bounds
// credential lifetime; revocation still applies within it via the epoch.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue signs a credential for the user at their current revocation epoch.
func (m *TokenManager) Issue(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(user.ID), 10),
		"username": user.Username,
		"role":     user.Role,
		"tv":       user.TokenVersion,
		"iss":      issuer,
		"aud":      audience,
		"iat":      now.Unix(),
		"exp":      now.Add(m.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, issuer, audience and expiry, and returns the
// claims. It does NOT check the revocation epoch; that needs the user's
// current epoch from the store and is the caller's job.
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	subStr, ok := mapClaims["sub"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, err := strconv.ParseUint(subStr, 10, 32)
	if err != nil {
		return nil, ErrInvalidToken
	}

	username, _ := mapClaims["username"].(string)
	role, _ := mapClaims["role"].(string)

	// JSON numbers decode as float64.
	tvFloat, ok := mapClaims["tv"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}

	return &Claims{
		UserID:       uint(userID),
		Username:     username,
		Role:         role,
		TokenVersion: int(tvFloat),
	}, nil
}
