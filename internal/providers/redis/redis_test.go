package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestProvider(t *testing.T) (*RedisProvider, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	p := NewRedisProvider(mr.Addr(), zap.NewNop(), time.Minute)
	t.Cleanup(func() { _ = p.Close() })
	return p, mr
}

func TestJSONRoundTrip(t *testing.T) {
	p, mr := newTestProvider(t)
	ctx := context.Background()

	type payload struct {
		ID   uint64 `json:"id"`
		Name string `json:"name"`
	}

	require.NoError(t, p.SetJSON(ctx, "k", payload{ID: 7, Name: "ada"}, 0))

	var got payload
	require.NoError(t, p.GetJSON(ctx, "k", &got))
	assert.Equal(t, payload{ID: 7, Name: "ada"}, got)

	assert.Equal(t, time.Minute, mr.TTL("k"))
}

func TestGetJSONMiss(t *testing.T) {
	p, _ := newTestProvider(t)

	var got map[string]string
	assert.ErrorIs(t, p.GetJSON(context.Background(), "absent", &got), ErrCacheMiss)
}

func TestDel(t *testing.T) {
	p, mr := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("a", "1"))
	require.NoError(t, p.Del(ctx, "a").Err())
	assert.False(t, mr.Exists("a"))
}

func TestCounter(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	n, err := p.GetInt64(ctx, "gen")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, p.Incr(ctx, "gen").Err())
	require.NoError(t, p.Incr(ctx, "gen").Err())

	n, err = p.GetInt64(ctx, "gen")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
