package stores

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulule/limiter/v3"
)

func TestNewLimiterStoreMemory(t *testing.T) {
	ctx := context.Background()
	store, err := NewLimiterStore(ctx, "")
	require.NoError(t, err)

	rate, err := limiter.NewRateFromFormatted("2-M")
	require.NoError(t, err)
	lmt := limiter.New(store, rate)

	for i := 0; i < 2; i++ {
		c, err := lmt.Get(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.False(t, c.Reached)
	}
	c, err := lmt.Get(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, c.Reached)
}

func TestNewLimiterStoreRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	store, err := NewLimiterStore(ctx, "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)

	rate, err := limiter.NewRateFromFormatted("1-H")
	require.NoError(t, err)
	lmt := limiter.New(store, rate)

	c, err := lmt.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, c.Reached)
	c, err = lmt.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, c.Reached)

	assert.NotEmpty(t, mr.Keys())
}

func TestNewLimiterStoreBadURI(t *testing.T) {
	_, err := NewLimiterStore(context.Background(), "://bad")
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err = NewRedisClient(context.Background(), "redis://"+addr)
	assert.Error(t, err)
}
