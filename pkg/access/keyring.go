// Package access authenticates API clients and limits their request rate.
//
// A Keyring holds the configured API keys. Clients present a key as a
// bearer token or in the X-API-Key header:
//
//	Authorization: Bearer 3f9c...
//	X-API-Key: 3f9c...
//
// A Limiter keeps one token bucket per client, where a client is an API key
// ID or a remote address.
package access

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// APIKeyHeader is the alternative to a bearer token.
const APIKeyHeader = "X-API-Key"

var (
	// ErrMissingKey is returned for requests without credentials.
	ErrMissingKey = errors.New("missing API key")

	// ErrInvalidKey is returned for unknown keys.
	ErrInvalidKey = errors.New("invalid API key")

	// ErrKeyDisabled is returned for keys that exist but are disabled.
	ErrKeyDisabled = errors.New("API key disabled")
)

// Key is one API key.
type Key struct {
	// ID names the client in logs and rate limits. It is never secret.
	ID string `yaml:"id"`

	// Key is the secret value.
	Key string `yaml:"key"`

	// KeyEnv names an environment variable holding the secret. It is used
	// when Key is empty.
	KeyEnv string `yaml:"key_env"`

	// Disabled rejects the key without removing it.
	Disabled bool `yaml:"disabled"`
}

// Keyring validates API keys.
type Keyring struct {
	keys map[string]*Key
}

// NewKeyring resolves keys and indexes them by secret. Every key needs an
// ID and a secret, and neither may repeat.
func NewKeyring(keys []Key) (*Keyring, error) {
	return newKeyring(keys, os.LookupEnv)
}

func newKeyring(keys []Key, lookup func(string) (string, bool)) (*Keyring, error) {
	if len(keys) == 0 {
		return nil, errors.New("at least one API key is required")
	}

	kr := &Keyring{keys: make(map[string]*Key, len(keys))}
	ids := make(map[string]bool, len(keys))
	for i, k := range keys {
		if k.ID == "" {
			return nil, fmt.Errorf("key %d: id is required", i)
		}
		if ids[k.ID] {
			return nil, fmt.Errorf("key %q: duplicate id", k.ID)
		}
		ids[k.ID] = true

		if k.Key == "" && k.KeyEnv != "" {
			v, ok := lookup(k.KeyEnv)
			if !ok || v == "" {
				return nil, fmt.Errorf("key %q: environment variable %s is not set", k.ID, k.KeyEnv)
			}
			k.Key = v
		}
		if k.Key == "" {
			return nil, fmt.Errorf("key %q: key or key_env is required", k.ID)
		}
		if _, dup := kr.keys[k.Key]; dup {
			return nil, fmt.Errorf("key %q: secret is shared with another key", k.ID)
		}

		key := k
		kr.keys[k.Key] = &key
	}
	return kr, nil
}

// Authenticate returns the key presented by r.
func (kr *Keyring) Authenticate(r *http.Request) (*Key, error) {
	secret := extractKey(r)
	if secret == "" {
		return nil, ErrMissingKey
	}

	key, ok := kr.keys[secret]
	if !ok {
		return nil, ErrInvalidKey
	}
	if key.Disabled {
		return nil, fmt.Errorf("%w: %s", ErrKeyDisabled, key.ID)
	}
	return key, nil
}

// Len returns the number of keys.
func (kr *Keyring) Len() int {
	return len(kr.keys)
}

func extractKey(r *http.Request) string {
	if v := r.Header.Get("Authorization"); v != "" {
		scheme, token, ok := strings.Cut(v, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get(APIKeyHeader))
}

type contextKey struct{}

// WithKey returns ctx carrying the authenticated key.
func WithKey(ctx context.Context, key *Key) context.Context {
	return context.WithValue(ctx, contextKey{}, key)
}

// KeyFromContext returns the authenticated key in ctx.
func KeyFromContext(ctx context.Context) (*Key, bool) {
	key, ok := ctx.Value(contextKey{}).(*Key)
	return key, ok
}
