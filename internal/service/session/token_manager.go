package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"lavibaby-storefront/internal/kv"
)

type tokenMeta struct {
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// tokenManager keeps token metadata in the KV store so guest sessions survive
// restarts and are shared between replicas.
type tokenManager struct {
	store kv.Store
	now   func() time.Time
}

func newTokenManager(store kv.Store) *tokenManager {
	return &tokenManager{store: store, now: time.Now}
}

func (m *tokenManager) Issue(ctx context.Context, sessionID string, ttl time.Duration) (string, error) {
	token, err := randomToken()
	if err != nil {
		return "", err
	}
	meta := tokenMeta{
		SessionID: sessionID,
		ExpiresAt: m.now().Add(ttl),
	}
	if err := kv.SetJSONTTL(ctx, m.store, tokenKey(token), meta, ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Validate reports whether token is live. Expired tokens are evicted.
func (m *tokenManager) Validate(ctx context.Context, token string) (tokenMeta, bool, error) {
	var meta tokenMeta
	err := kv.GetJSON(ctx, m.store, tokenKey(token), &meta)
	if errors.Is(err, kv.ErrNotFound) {
		return tokenMeta{}, false, nil
	}
	if err != nil {
		return tokenMeta{}, false, err
	}
	if m.now().After(meta.ExpiresAt) {
		if err := m.store.Delete(ctx, tokenKey(token)); err != nil {
			return tokenMeta{}, false, err
		}
		return tokenMeta{}, false, nil
	}
	return meta, true, nil
}

func tokenKey(token string) string {
	return "guest:" + token
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
