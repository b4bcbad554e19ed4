package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lavibaby-storefront/internal/kv"
)

func TestIssueAndLookup(t *testing.T) {
	svc := New(kv.NewMemory())
	ctx := context.Background()

	token, id, err := svc.Issue(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Len(t, id, 36)

	got, err := svc.Lookup(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	token2, id2, err := svc.Issue(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, token, token2)
	assert.NotEqual(t, id, id2)
}

func TestLookupUnknownToken(t *testing.T) {
	svc := New(kv.NewMemory())
	_, err := svc.Lookup(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.Lookup(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredTokenIsEvicted(t *testing.T) {
	store := kv.NewMemory()
	svc := New(store)
	ctx := context.Background()

	token, _, err := svc.Issue(ctx)
	require.NoError(t, err)

	svc.tokens.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }
	_, err = svc.Lookup(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = store.Get(ctx, tokenKey(token))
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

type ttlStore struct {
	*kv.Memory
	ttls map[string]time.Duration
}

func (s *ttlStore) SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.ttls[key] = ttl
	return s.Memory.SetTTL(ctx, key, value, ttl)
}

func TestGuestTokenStoredWithExpiry(t *testing.T) {
	store := &ttlStore{Memory: kv.NewMemory(), ttls: map[string]time.Duration{}}
	svc := New(store)

	token, _, err := svc.Issue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Duration(svc.TTLSeconds())*time.Second, store.ttls[tokenKey(token)])
}

func TestSessionsSurviveNewService(t *testing.T) {
	store := kv.NewMemory()
	ctx := context.Background()
	token, id, err := New(store).Issue(ctx)
	require.NoError(t, err)

	got, err := New(store).Lookup(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}
