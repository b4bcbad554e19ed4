// Package session issues the opaque guest tokens that own a cart and a
// checkout flow before (or without) any sign-in.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"lavibaby-storefront/internal/kv"
)

var ErrInvalidToken = errors.New("invalid session token")

type Service struct {
	tokens *tokenManager
	ttl    time.Duration
}

func New(store kv.Store) *Service {
	return &Service{
		tokens: newTokenManager(store),
		ttl:    30 * 24 * time.Hour,
	}
}

// Issue starts a guest session and returns its token and id.
func (s *Service) Issue(ctx context.Context) (token, sessionID string, err error) {
	sessionID = uuid.NewString()
	token, err = s.tokens.Issue(ctx, sessionID, s.ttl)
	if err != nil {
		return "", "", err
	}
	return token, sessionID, nil
}

// Lookup resolves a token to its session id.
func (s *Service) Lookup(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	meta, ok, err := s.tokens.Validate(ctx, token)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInvalidToken
	}
	return meta.SessionID, nil
}

func (s *Service) TTLSeconds() int {
	return int(s.ttl.Seconds())
}
