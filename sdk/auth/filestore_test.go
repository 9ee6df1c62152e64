package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/router-for-me/codex-switcher/internal/auth/codex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newTestAccount(name string) *Account {
	return codex.NewChatGPTAccount(name, codex.IDTokenClaims{Email: name + "@example.com"}, &codex.TokenResponse{
		IDToken:      "id",
		AccessToken:  "at-" + name,
		RefreshToken: "rt-" + name,
	})
}

func TestFileAccountStoreAddAndReload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "auth")
	store := NewFileAccountStore(dir)
	ctx := context.Background()

	first, err := store.Add(ctx, newTestAccount("work"))
	require.NoError(t, err)
	second, err := store.Add(ctx, newTestAccount("home"))
	require.NoError(t, err)

	accounts, activeID, err := NewFileAccountStore(dir).List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, first.ID, activeID, "first account becomes active")
	assert.Equal(t, "at-home", accounts[1].AuthData.AccessToken)
	assert.NotEqual(t, first.ID, second.ID)

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	dirInfo, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, int64(2), gjson.GetBytes(raw, "version").Int())
	assert.Equal(t, first.ID, gjson.GetBytes(raw, "active_account_id").String())
	assert.Equal(t, "chatgpt", gjson.GetBytes(raw, "accounts.0.auth_data.type").String())
	assert.False(t, gjson.GetBytes(raw, "accounts.0.last_used_at").Exists())
}

func TestFileAccountStoreRejectsDuplicateName(t *testing.T) {
	store := NewFileAccountStore(t.TempDir())
	ctx := context.Background()

	_, err := store.Add(ctx, newTestAccount("work"))
	require.NoError(t, err)
	_, err = store.Add(ctx, newTestAccount("work"))

	var dup *DuplicateAccountError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "work", dup.Name)
}

func TestFileAccountStoreSetActiveAndTouch(t *testing.T) {
	store := NewFileAccountStore(t.TempDir())
	ctx := context.Background()

	_, err := store.Add(ctx, newTestAccount("work"))
	require.NoError(t, err)
	home, err := store.Add(ctx, newTestAccount("home"))
	require.NoError(t, err)

	var notFound *AccountNotFoundError
	require.ErrorAs(t, store.SetActive(ctx, "missing"), &notFound)
	require.NoError(t, store.SetActive(ctx, home.ID))
	require.NoError(t, store.Touch(ctx, "missing"))

	before := time.Now().Add(-time.Second)
	require.NoError(t, store.Touch(ctx, home.ID))

	got, err := store.Get(ctx, home.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastUsedAt)
	assert.True(t, got.LastUsedAt.After(before))

	_, activeID, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, home.ID, activeID)

	_, err = store.Get(ctx, "missing")
	assert.ErrorAs(t, err, &notFound)
}

func TestFileAccountStoreFindByName(t *testing.T) {
	store := NewFileAccountStore(t.TempDir())
	ctx := context.Background()

	missing, err := store.FindByName(ctx, "work")
	require.NoError(t, err)
	assert.Nil(t, missing)

	added, err := store.Add(ctx, newTestAccount("work"))
	require.NoError(t, err)
	found, err := store.FindByName(ctx, "work")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, added.ID, found.ID)
}

func TestFileAccountStoreRejectsOtherSchemaVersion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "accounts.json"), []byte(`{"version":1,"accounts":[]}`), 0o600))

	_, _, err := NewFileAccountStore(dir).List(context.Background())
	assert.ErrorContains(t, err, "unsupported schema version 1")
}
