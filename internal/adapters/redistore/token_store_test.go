package redistore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/sajansharmanz/accountd/internal/domain/auth"
	apperrors "github.com/sajansharmanz/accountd/internal/errors"
)

func newTestStore(t *testing.T) (*TokenStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewTokenStore(client, map[domainauth.TokenType]time.Duration{
		domainauth.TokenTypeSession:       time.Hour,
		domainauth.TokenTypePasswordReset: 30 * time.Minute,
	})
	return store, mr
}

func TestTokenStore_CreateAndFind(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Create(context.Background(), "u1", "hash-1", domainauth.TokenTypeSession))

	rec, err := store.FindByHash(context.Background(), "hash-1", domainauth.TokenTypeSession)
	require.NoError(t, err)
	assert.Equal(t, "u1", rec.UserID)
	assert.Equal(t, domainauth.TokenTypeSession, rec.Type)

	// Same hash under a different type does not resolve.
	_, err = store.FindByHash(context.Background(), "hash-1", domainauth.TokenTypePasswordReset)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTokenStore_RecordsExpire(t *testing.T) {
	store, mr := newTestStore(t)

	require.NoError(t, store.Create(context.Background(), "u1", "hash-1", domainauth.TokenTypeSession))

	mr.FastForward(time.Hour + time.Minute)

	_, err := store.FindByHash(context.Background(), "hash-1", domainauth.TokenTypeSession)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTokenStore_DeleteByHash(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Create(context.Background(), "u1", "hash-1", domainauth.TokenTypeSession))
	require.NoError(t, store.DeleteByHash(context.Background(), "hash-1", domainauth.TokenTypeSession))

	_, err := store.FindByHash(context.Background(), "hash-1", domainauth.TokenTypeSession)
	assert.True(t, apperrors.IsNotFound(err))

	// Deleting an absent record is a no-op.
	assert.NoError(t, store.DeleteByHash(context.Background(), "hash-1", domainauth.TokenTypeSession))
}

func TestTokenStore_DeleteForUser(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Create(context.Background(), "u1", "hash-1", domainauth.TokenTypeSession))
	require.NoError(t, store.Create(context.Background(), "u1", "hash-2", domainauth.TokenTypeSession))
	require.NoError(t, store.Create(context.Background(), "u1", "hash-3", domainauth.TokenTypePasswordReset))
	require.NoError(t, store.Create(context.Background(), "u2", "hash-4", domainauth.TokenTypeSession))

	require.NoError(t, store.DeleteForUser(context.Background(), "u1", domainauth.TokenTypeSession))

	_, err := store.FindByHash(context.Background(), "hash-1", domainauth.TokenTypeSession)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = store.FindByHash(context.Background(), "hash-2", domainauth.TokenTypeSession)
	assert.True(t, apperrors.IsNotFound(err))

	// Other types and other users survive.
	_, err = store.FindByHash(context.Background(), "hash-3", domainauth.TokenTypePasswordReset)
	assert.NoError(t, err)
	_, err = store.FindByHash(context.Background(), "hash-4", domainauth.TokenTypeSession)
	assert.NoError(t, err)
}
