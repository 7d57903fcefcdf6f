package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zalando/go-keyring"
)

var (
	// ErrNoToken means neither the keyring nor the environment holds a token.
	ErrNoToken = errors.New("remote: no access token")
	// ErrTokenExpired means the stored token is a JWT past its expiry.
	ErrTokenExpired = errors.New("remote: access token expired")
)

// TokenSource yields the bearer token for a request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// KeyringTokens reads the token from the OS keyring and falls back to a static value.
type KeyringTokens struct {
	Service  string
	User     string
	Fallback string
	now      func() time.Time
}

// NewKeyringTokens returns a keyring backed source.
func NewKeyringTokens(service, user, fallback string) *KeyringTokens {
	return &KeyringTokens{Service: service, User: user, Fallback: fallback, now: time.Now}
}

// Token implements TokenSource.
func (k *KeyringTokens) Token(ctx context.Context) (string, error) {
	token, err := keyring.Get(k.Service, k.User)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		if k.Fallback == "" {
			return "", fmt.Errorf("remote: read keyring: %w", err)
		}
	}
	token = strings.TrimSpace(token)
	if token == "" {
		token = strings.TrimSpace(k.Fallback)
	}
	if token == "" {
		return "", ErrNoToken
	}
	now := time.Now
	if k.now != nil {
		now = k.now
	}
	if expired(token, now()) {
		return "", ErrTokenExpired
	}
	return token, nil
}

// Save stores token in the keyring.
func (k *KeyringTokens) Save(token string) error {
	if err := keyring.Set(k.Service, k.User, strings.TrimSpace(token)); err != nil {
		return fmt.Errorf("remote: write keyring: %w", err)
	}
	return nil
}

// Forget removes the stored token.
func (k *KeyringTokens) Forget() error {
	if err := keyring.Delete(k.Service, k.User); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("remote: delete keyring: %w", err)
	}
	return nil
}

// StaticToken always returns the same token.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// expired reports whether a JWT shaped token carries an exp claim in the past. The signature is
// not checked here; the server does that. Opaque tokens never expire locally.
func expired(token string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.After(now)
}
