package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the session token payload.
type Claims struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// Session is an issued token and its expiry.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// TokenManager signs and verifies HS256 session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a token manager. A non-positive ttl defaults to 90 days.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 90 * 24 * time.Hour
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a session for the principal.
func (m *TokenManager) Issue(principal Principal) (Session, error) {
	if !principal.Valid() {
		return Session{}, fmt.Errorf("cannot issue session for invalid principal")
	}

	now := m.now()
	expiresAt := now.Add(m.ttl)
	claims := Claims{
		ID:       principal.ID,
		Username: principal.Username,
		Role:     principal.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return Session{}, fmt.Errorf("failed to sign session: %w", err)
	}

	return Session{Token: token, ExpiresAt: expiresAt}, nil
}

// Verify parses a token and returns its principal. Any failure is reported
// as ErrUnauthorized.
func (m *TokenManager) Verify(token string) (Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Principal{}, ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return Principal{}, ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return Principal{}, ErrUnauthorized
	}

	role, ok := ParseRole(string(claims.Role))
	if !ok || claims.ID == 0 {
		return Principal{}, ErrUnauthorized
	}

	return Principal{ID: claims.ID, Username: claims.Username, Role: role}, nil
}
