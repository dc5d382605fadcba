package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goliatone/go-store"
	"github.com/goliatone/go-store/pkg/persist"
	persistredis "github.com/goliatone/go-store/pkg/persist/redis"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMedium(t *testing.T, opts ...persistredis.Option) (*miniredis.Miniredis, *persistredis.Medium) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "start miniredis")
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	medium := persistredis.NewFromClient(client, opts...)
	t.Cleanup(func() { medium.Close() })
	return mr, medium
}

func TestMediumRoundTrip(t *testing.T) {
	_, medium := newMedium(t)
	ctx := context.Background()

	_, found, err := medium.Get(ctx, "counter")
	require.NoError(t, err)
	assert.False(t, found, "missing key must not be an error")

	require.NoError(t, medium.Set(ctx, "counter", `{"count": 1}`))
	value, found, err := medium.Get(ctx, "counter")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `{"count": 1}`, value)
}

func TestMediumPrefixAndTTL(t *testing.T) {
	mr, medium := newMedium(t, persistredis.WithPrefix("app:"), persistredis.WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, medium.Set(ctx, "counter", "payload"))
	assert.True(t, mr.Exists("app:counter"))
	assert.Equal(t, time.Minute, mr.TTL("app:counter"))
}

func TestMediumWithPlugin(t *testing.T) {
	_, medium := newMedium(t)

	registry := store.New(store.WithLogger(store.NopLogger()))
	require.NoError(t, registry.Use(persist.New(medium, persist.WithHydrateInitial())))

	s, err := registry.DefineStore("counter", func() store.State {
		return store.State{"count": 0}
	})
	require.NoError(t, err)
	s.SetState(store.State{"count": 9})

	fresh := store.New(store.WithLogger(store.NopLogger()))
	require.NoError(t, fresh.Use(persist.New(medium)))
	restored, err := fresh.DefineStore("counter", func() store.State {
		return store.State{"count": 0}
	})
	require.NoError(t, err)
	assert.Equal(t, float64(9), restored.Get("count"))
}
