package redis

import (
	"context"
	"testing"

	"github.com/BitForged/Compass/internal/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, prefix string) (*Store, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	store, err := Dial(context.Background(), server.Addr(), prefix)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store, server
}

func TestStoreRoundTripUsesPrefix(t *testing.T) {
	t.Parallel()

	store, server := newTestStore(t, "profile-a")
	ctx := context.Background()

	require.NoError(t, store.SetItem(ctx, domain.StorageKeyToken, "abc"))

	value, err := store.GetItem(ctx, domain.StorageKeyToken)
	require.NoError(t, err)
	assert.Equal(t, "abc", value)

	raw, err := server.Get("profile-a:token")
	require.NoError(t, err)
	assert.Equal(t, "abc", raw)
}

func TestStoreMissingKey(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t, "")

	_, err := store.GetItem(context.Background(), domain.StorageKeyUser)
	require.ErrorIs(t, err, domain.ErrStorageKeyNotFound)
}

func TestStoreRemoveItemIsIdempotent(t *testing.T) {
	t.Parallel()

	store, server := newTestStore(t, "")
	ctx := context.Background()

	require.NoError(t, store.SetItem(ctx, domain.StorageKeySettings, `{"theme":"dark"}`))
	require.NoError(t, store.RemoveItem(ctx, domain.StorageKeySettings))
	require.NoError(t, store.RemoveItem(ctx, domain.StorageKeySettings))

	assert.False(t, server.Exists(DefaultPrefix+domain.StorageKeySettings))
}

func TestStoreReportsServerErrors(t *testing.T) {
	t.Parallel()

	store, server := newTestStore(t, "")
	server.SetError("server is down")

	_, err := store.GetItem(context.Background(), domain.StorageKeyToken)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrStorageKeyNotFound)
	assert.ErrorContains(t, err, "redis get")
}

func TestDialFailsWithoutServer(t *testing.T) {
	t.Parallel()

	server := miniredis.RunT(t)
	addr := server.Addr()
	server.Close()

	_, err := Dial(context.Background(), addr, "")
	require.Error(t, err)
}

func TestNewStoreRejectsNilClient(t *testing.T) {
	t.Parallel()

	_, err := NewStore(nil, "")
	require.Error(t, err)
}
