package chain

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	passstore "github.com/BitForged/Compass/internal/adapters/storage/pass"
	"github.com/BitForged/Compass/internal/domain"
	portmocks "github.com/BitForged/Compass/internal/ports/mocks"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStoreGetItemUsesPrimaryWhenItSucceeds(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockLocalStorage(t)
	fallback := portmocks.NewMockLocalStorage(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().GetItem(mock.Anything, domain.StorageKeyToken).Return("from-pass", nil).Once()

	value, err := store.GetItem(context.Background(), domain.StorageKeyToken)
	require.NoError(t, err)
	assert.Equal(t, "from-pass", value)
}

func TestStoreGetItemFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockLocalStorage(t)
	fallback := portmocks.NewMockLocalStorage(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().GetItem(mock.Anything, domain.StorageKeyToken).Return("", passstore.ErrUnavailable).Once()
	fallback.EXPECT().GetItem(mock.Anything, domain.StorageKeyToken).Return("from-file", nil).Once()

	value, err := store.GetItem(context.Background(), domain.StorageKeyToken)
	require.NoError(t, err)
	assert.Equal(t, "from-file", value)
}

func TestStoreGetItemMissingEverywhereIsNotFound(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockLocalStorage(t)
	fallback := portmocks.NewMockLocalStorage(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().GetItem(mock.Anything, domain.StorageKeyUser).Return("", domain.ErrStorageKeyNotFound).Once()
	fallback.EXPECT().GetItem(mock.Anything, domain.StorageKeyUser).Return("", domain.ErrStorageKeyNotFound).Once()

	_, err := store.GetItem(context.Background(), domain.StorageKeyUser)
	require.ErrorIs(t, err, domain.ErrStorageKeyNotFound)
}

func TestStoreGetItemReturnsCombinedErrorWhenBothBackendsFail(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockLocalStorage(t)
	fallback := portmocks.NewMockLocalStorage(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().GetItem(mock.Anything, domain.StorageKeyToken).Return("", errors.New("pass failed")).Once()
	fallback.EXPECT().GetItem(mock.Anything, domain.StorageKeyToken).Return("", errors.New("file failed")).Once()

	_, err := store.GetItem(context.Background(), domain.StorageKeyToken)
	require.Error(t, err)
	assert.ErrorContains(t, err, "primary storage")
	assert.ErrorContains(t, err, "fallback storage")
	assert.ErrorContains(t, err, "pass failed")
	assert.ErrorContains(t, err, "file failed")
}

func TestStoreSetItemFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockLocalStorage(t)
	fallback := portmocks.NewMockLocalStorage(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().SetItem(mock.Anything, domain.StorageKeyToken, "abc").Return(errors.New("pass failed")).Once()
	fallback.EXPECT().SetItem(mock.Anything, domain.StorageKeyToken, "abc").Return(nil).Once()

	require.NoError(t, store.SetItem(context.Background(), domain.StorageKeyToken, "abc"))
}

func TestStoreSetItemDoesNotCallFallbackWhenPrimarySucceeds(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockLocalStorage(t)
	fallback := portmocks.NewMockLocalStorage(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().SetItem(mock.Anything, domain.StorageKeyToken, "abc").Return(nil).Once()

	require.NoError(t, store.SetItem(context.Background(), domain.StorageKeyToken, "abc"))
}

func TestStoreRemoveItemClearsBothBackends(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockLocalStorage(t)
	fallback := portmocks.NewMockLocalStorage(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().RemoveItem(mock.Anything, domain.StorageKeyToken).Return(nil).Once()
	fallback.EXPECT().RemoveItem(mock.Anything, domain.StorageKeyToken).Return(nil).Once()

	require.NoError(t, store.RemoveItem(context.Background(), domain.StorageKeyToken))
}

func TestStoreRemoveItemIgnoresUnavailablePrimary(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockLocalStorage(t)
	fallback := portmocks.NewMockLocalStorage(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().RemoveItem(mock.Anything, domain.StorageKeyToken).Return(passstore.ErrUnavailable).Once()
	fallback.EXPECT().RemoveItem(mock.Anything, domain.StorageKeyToken).Return(nil).Once()

	require.NoError(t, store.RemoveItem(context.Background(), domain.StorageKeyToken))
}

func TestStoreRemoveItemReportsPrimaryFailure(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockLocalStorage(t)
	fallback := portmocks.NewMockLocalStorage(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().RemoveItem(mock.Anything, domain.StorageKeyToken).Return(errors.New("gpg locked")).Once()
	fallback.EXPECT().RemoveItem(mock.Anything, domain.StorageKeyToken).Return(nil).Once()

	err := store.RemoveItem(context.Background(), domain.StorageKeyToken)
	require.Error(t, err)
	assert.ErrorContains(t, err, "gpg locked")
}

func TestStoreGetItemDoesNotFallbackOnCanceledContextError(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockLocalStorage(t)
	fallback := portmocks.NewMockLocalStorage(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().GetItem(mock.Anything, domain.StorageKeyToken).Return("", context.Canceled).Once()

	_, err := store.GetItem(context.Background(), domain.StorageKeyToken)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewStoreCheckedRejectsNilBackends(t *testing.T) {
	t.Parallel()

	_, err := NewStoreChecked(nil, portmocks.NewMockLocalStorage(t))
	require.ErrorIs(t, err, errNilPrimaryStore)

	_, err = NewStoreChecked(portmocks.NewMockLocalStorage(t), nil)
	require.ErrorIs(t, err, errNilFallbackStore)
}

func TestNewPassFirstWithTOMLFallback(t *testing.T) {
	t.Parallel()

	cfg := viper.New()
	cfg.Set("storage.path", filepath.Join(t.TempDir(), "storage.toml"))

	store, err := NewPassFirstWithTOMLFallback(cfg, "")
	require.NoError(t, err)
	assert.NotNil(t, store)
}
