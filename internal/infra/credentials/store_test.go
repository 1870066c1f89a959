package credentials

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func openTestStore(t *testing.T) *TokenStore {
	t.Helper()
	store, err := OpenTokenStore(filepath.Join(t.TempDir(), "nested", "tokens.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestTokenStore_PutGetDelete(t *testing.T) {
	store := openTestStore(t)

	_, ok, err := store.Get("design")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put("Design", &oauth2.Token{AccessToken: "a1", RefreshToken: "r1"}))

	got, ok, err := store.Get("design")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a1", got.AccessToken)
	assert.Equal(t, "r1", got.RefreshToken)

	require.NoError(t, store.Delete("design"))
	_, ok, err = store.Get("design")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokenStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.db")
	store, err := OpenTokenStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Put("repo", &oauth2.Token{AccessToken: "persisted"}))
	require.NoError(t, store.Close())

	reopened, err := OpenTokenStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok, err := reopened.Get("repo")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "persisted", got.AccessToken)
}

func TestTokenStore_Errors(t *testing.T) {
	_, err := OpenTokenStore("  ")
	require.Error(t, err)

	store := openTestStore(t)
	assert.ErrorIs(t, store.Put("", &oauth2.Token{}), ErrMissingLabel)
	assert.Error(t, store.Put("design", nil))

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
	_, _, err = store.Get("design")
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.ErrorIs(t, store.Put("design", &oauth2.Token{AccessToken: "x"}), ErrStoreClosed)
}
