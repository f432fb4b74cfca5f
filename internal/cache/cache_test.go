package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_HitAfterMiss(t *testing.T) {
	ctx := context.Background()
	l := NewLoader(NewMemory(8, time.Minute))

	var builds int
	build := func() ([]byte, error) {
		builds++
		return []byte("view"), nil
	}

	data, hit, err := l.Get(ctx, "k", build)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []byte("view"), data)

	data, hit, err = l.Get(ctx, "k", build)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("view"), data)
	assert.Equal(t, 1, builds)
}

func TestLoader_BuildErrorNotCached(t *testing.T) {
	ctx := context.Background()
	l := NewLoader(NewMemory(8, time.Minute))

	_, _, err := l.Get(ctx, "k", func() ([]byte, error) { return nil, errors.New("boom") })
	assert.Error(t, err)

	data, hit, err := l.Get(ctx, "k", func() ([]byte, error) { return []byte("ok"), nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []byte("ok"), data)
}

func TestLoader_Disabled(t *testing.T) {
	l := NewLoader(nil)

	var builds int
	for range 3 {
		_, hit, err := l.Get(context.Background(), "k", func() ([]byte, error) {
			builds++
			return []byte("v"), nil
		})
		require.NoError(t, err)
		assert.False(t, hit)
	}
	assert.Equal(t, 3, builds)
	assert.Equal(t, "none", l.Stats().Backend)
}

func TestLoader_CoalescesConcurrentMisses(t *testing.T) {
	ctx := context.Background()
	l := NewLoader(NewMemory(8, time.Minute))

	var builds atomic.Int32
	release := make(chan struct{})
	build := func() ([]byte, error) {
		builds.Add(1)
		<-release
		return []byte("v"), nil
	}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, _, err := l.Get(ctx, "k", build)
			assert.NoError(t, err)
			assert.Equal(t, []byte("v"), data)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, builds.Load(), int32(10))
	assert.GreaterOrEqual(t, builds.Load(), int32(1))
	data, hit, err := l.Get(ctx, "k", build)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("v"), data)
}

func TestLoader_RedisDownStillBuilds(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	l := NewLoader(NewRedis(client, "", time.Minute))
	mr.Close()
	defer client.Close() //nolint:errcheck

	data, hit, err := l.Get(context.Background(), "k", func() ([]byte, error) { return []byte("v"), nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []byte("v"), data)
}
