package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProfile() User {
	return User{
		ID:          "4f0c2a4e-8f4b-4a8e-9c61-2b0c7f9d1e11",
		Username:    "driver",
		FullName:    "Dee Driver",
		Email:       "driver@example.com",
		Role:        RoleUser,
		PhoneNumber: "9000000001",
		Address:     "12 Lot Street",
		Pincode:     "560001",
		CreatedAt:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func exerciseProfileStore(t *testing.T, store ProfileStore) {
	t.Helper()
	ctx := context.Background()

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "empty store loads nothing")

	require.NoError(t, store.Save(ctx, sampleProfile()))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sampleProfile(), *got)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx), "clear is idempotent")
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryProfileStore(t *testing.T) {
	exerciseProfileStore(t, NewMemoryProfileStore())
}

func TestFileProfileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "profile.json")
	exerciseProfileStore(t, NewFileProfileStore(path))
}

func TestFileProfileStoreUsesUserKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	store := NewFileProfileStore(path)
	require.NoError(t, store.Save(context.Background(), sampleProfile()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"user"`)
	assert.Contains(t, string(data), `"full_name": "Dee Driver"`)
	assert.NotContains(t, string(data), "token")
}

func TestFileProfileStoreCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileProfileStore(path).Load(context.Background())
	require.Error(t, err)
}

func TestRedisProfileStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := NewRedisProfileStore(rdb, "bff:42", time.Hour)
	exerciseProfileStore(t, store)

	require.NoError(t, store.Save(context.Background(), sampleProfile()))
	assert.True(t, mr.Exists("bff:42:user"))
	assert.Equal(t, time.Hour, mr.TTL("bff:42:user"))
}

func TestRedisProfileStoreUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	_, err = NewRedisProfileStore(rdb, "", 0).Load(context.Background())
	require.ErrorIs(t, err, ErrProfileStoreUnavailable)
}
