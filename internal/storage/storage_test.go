package storage

import (
	"bytes"
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testQuota = 64

type backend struct {
	name string
	open func(t *testing.T) KV
}

func backends() []backend {
	return []backend{
		{name: "memory", open: func(t *testing.T) KV {
			return NewMemoryKV(testQuota)
		}},
		{name: "redis", open: func(t *testing.T) KV {
			mr, err := miniredis.Run()
			require.NoError(t, err)
			t.Cleanup(mr.Close)

			kv := NewRedisKVWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test", testQuota)
			t.Cleanup(func() { _ = kv.Close() })
			return kv
		}},
		{name: "sqlite", open: func(t *testing.T) KV {
			db, err := OpenSQLite(":memory:", nil)
			require.NoError(t, err)

			kv, err := NewSQLKV(db, testQuota)
			require.NoError(t, err)
			t.Cleanup(func() { _ = kv.Close() })
			return kv
		}},
	}
}

func TestKV_GetMissingKey(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			kv := b.open(t)

			_, err := kv.Get(context.Background(), "p1", "settings")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestKV_SetGetOverwrite(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			kv := b.open(t)
			ctx := context.Background()

			require.NoError(t, kv.Set(ctx, "p1", "settings", []byte(`{"a":1}`)))
			require.NoError(t, kv.Set(ctx, "p1", "settings", []byte(`{"a":2}`)))

			got, err := kv.Get(ctx, "p1", "settings")
			require.NoError(t, err)
			assert.Equal(t, `{"a":2}`, string(got))
		})
	}
}

func TestKV_ProfilesAreIsolated(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			kv := b.open(t)
			ctx := context.Background()

			require.NoError(t, kv.Set(ctx, "p1", "k", []byte("one")))
			require.NoError(t, kv.Set(ctx, "p2", "k", []byte("two")))
			require.NoError(t, kv.Clear(ctx, "p1"))

			_, err := kv.Get(ctx, "p1", "k")
			assert.ErrorIs(t, err, ErrNotFound)

			got, err := kv.Get(ctx, "p2", "k")
			require.NoError(t, err)
			assert.Equal(t, "two", string(got))
		})
	}
}

func TestKV_Delete(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			kv := b.open(t)
			ctx := context.Background()

			require.NoError(t, kv.Set(ctx, "p1", "flag", []byte("true")))
			require.NoError(t, kv.Delete(ctx, "p1", "flag"))
			require.NoError(t, kv.Delete(ctx, "p1", "flag"))

			_, err := kv.Get(ctx, "p1", "flag")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestKV_QuotaRejectsWriteAndKeepsPreviousValue(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			kv := b.open(t)
			ctx := context.Background()

			require.NoError(t, kv.Set(ctx, "p1", "settings", []byte("small")))

			err := kv.Set(ctx, "p1", "settings", bytes.Repeat([]byte("x"), testQuota))
			require.ErrorIs(t, err, ErrQuotaExceeded)

			got, err := kv.Get(ctx, "p1", "settings")
			require.NoError(t, err)
			assert.Equal(t, "small", string(got))
		})
	}
}

func TestKV_QuotaCountsOtherKeys(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			kv := b.open(t)
			ctx := context.Background()

			require.NoError(t, kv.Set(ctx, "p1", "a", bytes.Repeat([]byte("x"), 40)))

			// 41 bytes already used; 1 + 30 more would exceed 64.
			err := kv.Set(ctx, "p1", "b", bytes.Repeat([]byte("y"), 30))
			assert.ErrorIs(t, err, ErrQuotaExceeded)

			// Another profile has its own budget.
			assert.NoError(t, kv.Set(ctx, "p2", "b", bytes.Repeat([]byte("y"), 30)))
		})
	}
}

func TestKV_Ping(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			assert.NoError(t, b.open(t).Ping(context.Background()))
		})
	}
}
