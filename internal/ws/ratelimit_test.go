package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterRegistryReusesPerKey(t *testing.T) {
	lr := NewLimiterRegistry(10, 20)

	a := lr.Get("10.0.0.1")
	b := lr.Get("10.0.0.2")
	require.NotSame(t, a, b)
	assert.Same(t, a, lr.Get("10.0.0.1"), "a key keeps its limiter across connections")
	assert.Equal(t, 2, lr.Len())
}

func TestLimiterRegistrySweep(t *testing.T) {
	lr := NewLimiterRegistry(10, 20)
	lr.Get("stale")
	time.Sleep(20 * time.Millisecond)
	lr.Get("fresh")

	evicted := lr.Sweep(10 * time.Millisecond)
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, lr.Len())

	// Swept keys start over on next sight.
	lr.Get("stale")
	assert.Equal(t, 2, lr.Len())
}

func TestLimiterEnforcesBurst(t *testing.T) {
	lr := NewLimiterRegistry(1, 3)
	limiter := lr.Get("client")

	for i := 0; i < 3; i++ {
		require.True(t, limiter.Allow(), "burst budget exhausted early at %d", i)
	}
	assert.False(t, limiter.Allow(), "over-burst message was allowed")
}
