// Package auth issues and validates the bearer tokens used by the API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/GetStream/postboard/board"
)

// DefaultTTL is the lifetime of a token when no TTL is configured.
const DefaultTTL = 15 * time.Minute

// TokenType is reported alongside every issued token.
const TokenType = "bearer"

// A UserLookup resolves the subject of a token.
type UserLookup interface {
	UserByUsername(ctx context.Context, username string) (board.User, error)
}

// Tokens issues and validates HS256 signed tokens carrying a username as the
// subject.
type Tokens struct {
	Secret []byte
	TTL    time.Duration
	Users  UserLookup
	Logger *slog.Logger

	// Now returns the current time. It defaults to time.Now.
	Now func() time.Time
}

var _ board.Issuer = (*Tokens)(nil)

// Issue returns a signed token for username.
func (t *Tokens) Issue(username string) (board.Token, error) {
	ttl := t.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	claims := jwt.RegisteredClaims{
		Subject:   username,
		ExpiresAt: jwt.NewNumericDate(t.now().Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Secret)
	if err != nil {
		return board.Token{}, fmt.Errorf("sign token: %w", err)
	}
	return board.Token{AccessToken: signed, TokenType: TokenType}, nil
}

// Validate returns the user a token was issued for. It reports false for a
// bad signature, an expired token, a missing subject or an unknown user.
func (t *Tokens) Validate(ctx context.Context, token string) (board.User, bool) {
	username, err := t.subject(token)
	if err != nil {
		t.Logger.Debug("Token rejected", "error", err.Error())
		return board.User{}, false
	}

	u, err := t.Users.UserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, board.ErrNoRecord) {
			t.Logger.Error("Could not look up token subject", "error", err.Error())
		}
		return board.User{}, false
	}
	return u, true
}

func (t *Tokens) subject(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

func (t *Tokens) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}
