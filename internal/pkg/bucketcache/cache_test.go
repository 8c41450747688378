package bucketcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoFetchesOncePerKey(t *testing.T) {
	ctx := context.Background()
	var fetches atomic.Int32
	c := New(func(_ context.Context, key string) []string {
		fetches.Add(1)
		return []string{"seed:" + key}
	})

	for i := 0; i < 3; i++ {
		c.Do(ctx, "2024-01-01", func(v *[]string) {
			*v = append(*v, "x")
		})
	}

	var got []string
	c.Do(ctx, "2024-01-01", func(v *[]string) { got = append(got, *v...) })

	assert.Equal(t, int32(1), fetches.Load())
	assert.Equal(t, []string{"seed:2024-01-01", "x", "x", "x"}, got)
	assert.True(t, c.Cached("2024-01-01"))
	assert.False(t, c.Cached("2024-01-02"))
}

func TestDropEvictsAndRunsCallback(t *testing.T) {
	ctx := context.Background()
	var fetches atomic.Int32
	c := New(func(context.Context, string) int {
		fetches.Add(1)
		return 0
	})

	c.Do(ctx, "k", func(v *int) { *v = 42 })

	called := false
	err := c.Drop("k", func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.False(t, c.Cached("k"))
	assert.Equal(t, 0, c.Len())

	var got int
	c.Do(ctx, "k", func(v *int) { got = *v })
	assert.Equal(t, 0, got)
	assert.Equal(t, int32(2), fetches.Load())
}

func TestDropFailureKeepsEmptyBucket(t *testing.T) {
	ctx := context.Background()
	var fetches atomic.Int32
	c := New(func(context.Context, string) []string {
		fetches.Add(1)
		return []string{"stored"}
	})

	c.Do(ctx, "k", func(v *[]string) { *v = append(*v, "fresh") })

	errDelete := errors.New("delete failed")
	err := c.Drop("k", func() error { return errDelete })
	require.ErrorIs(t, err, errDelete)
	assert.True(t, c.Cached("k"))

	var got []string
	c.Do(ctx, "k", func(v *[]string) { got = *v })
	assert.Empty(t, got)
	assert.Equal(t, int32(1), fetches.Load(), "bucket is not reloaded from the store")
}

func TestDropMissingKeyIsNoop(t *testing.T) {
	c := New(func(context.Context, string) int { return 0 })

	calls := 0
	count := func() error {
		calls++
		return nil
	}
	require.NoError(t, c.Drop("absent", count))
	require.NoError(t, c.Drop("absent", count))

	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, c.Len())
}

func TestConcurrentDoIsSerializedPerKey(t *testing.T) {
	ctx := context.Background()
	c := New(func(context.Context, string) int { return 0 })

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Do(ctx, "counter", func(v *int) { *v++ })
		}()
	}
	wg.Wait()

	var got int
	c.Do(ctx, "counter", func(v *int) { got = *v })
	require.Equal(t, 50, got)
}
