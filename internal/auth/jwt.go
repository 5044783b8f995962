// Package auth issues and checks session tokens, guards routes and talks to
// the GitHub identity provider.
//
// SESSION FLOW:
//  1. The user signs in (GitHub OAuth, or the local admin password).
//  2. The server upserts the user and signs a JWT whose subject is the
//     internal user id.
//  3. The token travels in the HttpOnly "token" cookie (browsers) or an
//     Authorization: Bearer header (the Go client).
//  4. RequireAuth validates it and puts the user id in the request context;
//     RequireAdmin additionally asks an AdminChecker.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer   = "muzik"
	audience = "muzik-api"

	// TokenTTL is the lifetime of a session token and its cookie.
	TokenTTL = 12 * time.Hour

	// clockSkew is tolerated on exp and iat between replicas.
	clockSkew = 30 * time.Second

	minSecretLen = 16
)

var (
	ErrSessionExpired = errors.New("auth: session expired")
	ErrSessionInvalid = errors.New("auth: invalid session token")
)

// TokenService signs and verifies HS256 session tokens.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < minSecretLen {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", minSecretLen)
	}
	return &TokenService{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs a session for userID that lives for TokenTTL.
func (s *TokenService) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("auth: issuing session without a user id")
	}
	now := s.now()
	session := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    issuer,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, session).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing session for %s: %w", userID, err)
	}
	return signed, nil
}

// Validate returns the user id of a session token. Expired tokens wrap
// ErrSessionExpired; every other rejection wraps ErrSessionInvalid.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	var session jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenStr, &session,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrSessionExpired
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrSessionInvalid, err)
	case session.Subject == "":
		return "", fmt.Errorf("%w: no subject", ErrSessionInvalid)
	}
	return session.Subject, nil
}
