package resource

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.AcquireMemory(context.Background(), 50))
	assert.Equal(t, int64(50), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(context.Background(), 40))
	assert.Equal(t, int64(90), c.MemoryUsage())

	assert.False(t, c.TryAcquireMemory(20))
	assert.Equal(t, int64(90), c.MemoryUsage())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireMemory(ctx, 20), context.DeadlineExceeded)

	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(context.Background(), 20))
	assert.Equal(t, int64(60), c.MemoryUsage())
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 0})

	require.NoError(t, c.AcquireMemory(context.Background(), 1000))
	assert.Equal(t, int64(1000), c.MemoryUsage())

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
}

func TestController_IOSlots(t *testing.T) {
	c := NewController(Config{MaxConcurrentIO: 2})
	assert.Equal(t, int64(2), c.Config().MaxConcurrentIO)

	require.NoError(t, c.AcquireIOSlot(context.Background()))
	require.NoError(t, c.AcquireIOSlot(context.Background()))
	assert.False(t, c.TryAcquireIOSlot())

	c.ReleaseIOSlot()
	assert.True(t, c.TryAcquireIOSlot())
}

func TestController_IOLimit(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})

	// Larger than the burst: split into several waits instead of failing.
	require.NoError(t, c.AcquireIO(context.Background(), 1<<20+10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, c.AcquireIO(ctx, 1<<20))
}

func TestController_Nil(t *testing.T) {
	var c *Controller
	ctx := context.Background()

	require.NoError(t, c.AcquireMemory(ctx, 10))
	assert.True(t, c.TryAcquireMemory(10))
	c.ReleaseMemory(10)
	assert.Equal(t, int64(0), c.MemoryUsage())
	require.NoError(t, c.AcquireIOSlot(ctx))
	assert.True(t, c.TryAcquireIOSlot())
	c.ReleaseIOSlot()
	require.NoError(t, c.AcquireIO(ctx, 1<<30))
	assert.Equal(t, Config{}, c.Config())
}

func TestRateLimitedIO(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})
	ctx := context.Background()

	var buf bytes.Buffer
	w := NewRateLimitedWriter(ctx, &buf, c)
	n, err := w.Write([]byte("hologram"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	r := NewRateLimitedReader(ctx, strings.NewReader(buf.String()), c)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hologram", string(got))
}
