package storage_test

import (
	"context"
	"os"
	"testing"

	"github.com/jrsteele09/spares-console/internal/errors"
	"github.com/jrsteele09/spares-console/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRepo_Plain(t *testing.T) {
	ctx := context.Background()
	repo, err := storage.NewFileRepo(t.TempDir(), "")
	require.NoError(t, err)

	_, ok, err := repo.Get(ctx, storage.KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Set(ctx, storage.KeyToken, "tok-1"))
	require.NoError(t, repo.Set(ctx, storage.KeyUser, `{"name":"Jo"}`))

	v, ok, err := repo.Get(ctx, storage.KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", v)

	data, err := os.ReadFile(repo.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "tok-1")

	require.NoError(t, repo.Delete(ctx, storage.KeyToken, storage.KeyUser))
	_, ok, err = repo.Get(ctx, storage.KeyUser)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileRepo_RejectsUnknownKey(t *testing.T) {
	repo, err := storage.NewFileRepo(t.TempDir(), "")
	require.NoError(t, err)

	err = repo.Set(context.Background(), "refresh", "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidStorageKey))
}

func TestFileRepo_Sealed(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	repo, err := storage.NewFileRepo(dir, "correct horse")
	require.NoError(t, err)
	require.NoError(t, repo.Set(ctx, storage.KeyToken, "secret-token"))

	data, err := os.ReadFile(repo.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret-token")

	// a second instance with the same passphrase reads it back
	again, err := storage.NewFileRepo(dir, "correct horse")
	require.NoError(t, err)
	v, ok, err := again.Get(ctx, storage.KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "secret-token", v)

	wrong, err := storage.NewFileRepo(dir, "battery staple")
	require.NoError(t, err)
	_, _, err = wrong.Get(ctx, storage.KeyToken)
	assert.True(t, errors.Is(err, errors.ErrSealedData))

	plain, err := storage.NewFileRepo(dir, "")
	require.NoError(t, err)
	_, _, err = plain.Get(ctx, storage.KeyToken)
	assert.True(t, errors.Is(err, errors.ErrSealedData))
}

func TestFileRepo_SealsPlainFileOnNextWrite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	plain, err := storage.NewFileRepo(dir, "")
	require.NoError(t, err)
	require.NoError(t, plain.Set(ctx, storage.KeyToken, "old-token"))

	sealed, err := storage.NewFileRepo(dir, "pass")
	require.NoError(t, err)
	v, _, err := sealed.Get(ctx, storage.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "old-token", v)

	require.NoError(t, sealed.Set(ctx, storage.KeyUser, "{}"))
	data, err := os.ReadFile(sealed.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "old-token")
}
