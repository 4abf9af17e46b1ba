package credentials

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/workspace-assistant/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "credentials.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	expiry := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	cred := &model.Credential{
		UserID:       "user-1",
		Service:      model.ServiceGmail,
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       expiry,
		AccountEmail: "me@example.com",
		Scopes:       []string{"scope.a", "scope.b"},
	}
	require.NoError(t, store.Upsert(ctx, cred))

	got, err := store.Get(ctx, "user-1", model.ServiceGmail)
	require.NoError(t, err)
	assert.Equal(t, "access", got.AccessToken)
	assert.Equal(t, "refresh", got.RefreshToken)
	assert.Equal(t, "me@example.com", got.AccountEmail)
	assert.Equal(t, []string{"scope.a", "scope.b"}, got.Scopes)
	assert.True(t, expiry.Equal(got.Expiry))
	assert.False(t, got.CreatedAt.IsZero())
}

func TestStore_UpsertUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	first := &model.Credential{UserID: "user-1", Service: model.ServiceCalendar, AccessToken: "one"}
	require.NoError(t, store.Upsert(ctx, first))
	created := first.CreatedAt

	second := &model.Credential{UserID: "user-1", Service: model.ServiceCalendar, AccessToken: "two"}
	require.NoError(t, store.Upsert(ctx, second))

	got, err := store.Get(ctx, "user-1", model.ServiceCalendar)
	require.NoError(t, err)
	assert.Equal(t, "two", got.AccessToken)
	assert.True(t, created.Equal(got.CreatedAt), "created_at is kept on update")

	all, err := store.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_GetMissing(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(context.Background(), "nobody", model.ServiceGmail)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestStore_ListIsScopedToUser(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	for _, c := range []*model.Credential{
		{UserID: "user-1", Service: model.ServiceGmail, AccessToken: "a"},
		{UserID: "user-1", Service: model.ServiceCalendar, AccessToken: "b"},
		{UserID: "user-2", Service: model.ServiceGmail, AccessToken: "c"},
	} {
		require.NoError(t, store.Upsert(ctx, c))
	}

	creds, err := store.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, creds, 2)
	assert.Equal(t, model.ServiceCalendar, creds[0].Service)
	assert.Equal(t, model.ServiceGmail, creds[1].Service)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.Upsert(ctx, &model.Credential{UserID: "user-1", Service: model.ServiceGmail, AccessToken: "a"}))
	require.NoError(t, store.Upsert(ctx, &model.Credential{UserID: "user-1", Service: model.ServiceCalendar, AccessToken: "b"}))
	require.NoError(t, store.Upsert(ctx, &model.Credential{UserID: "user-2", Service: model.ServiceGmail, AccessToken: "c"}))

	require.NoError(t, store.Delete(ctx, "user-1", model.ServiceGmail))
	require.NoError(t, store.Delete(ctx, "user-1", model.ServiceGmail), "deleting twice is fine")
	_, err := store.Get(ctx, "user-1", model.ServiceGmail)
	assert.ErrorIs(t, err, ErrNotConnected)

	n, err := store.DeleteUser(ctx, "user-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = store.Get(ctx, "user-2", model.ServiceGmail)
	assert.NoError(t, err)
}

func TestStore_InMemory(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Ping(context.Background()))
	require.NoError(t, store.Upsert(context.Background(), &model.Credential{UserID: "u", Service: model.ServiceGmail, AccessToken: "a"}))
	_, err = store.Get(context.Background(), "u", model.ServiceGmail)
	assert.NoError(t, err)
}
