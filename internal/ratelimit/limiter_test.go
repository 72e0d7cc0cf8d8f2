package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiter_InitialBurst(t *testing.T) {
	t.Parallel()

	l := New(Config{RatePerSecond: 5.0})
	ctx := context.Background()

	// A fresh bucket holds its full capacity, so the first five requests
	// pass without measurable delay.
	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Wait(ctx, "example.com"))
	}
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestLimiter_BlocksWhenExhausted(t *testing.T) {
	t.Parallel()

	l := New(Config{RatePerSecond: 1.0})
	require.NoError(t, l.Wait(context.Background(), "example.com"))

	// The bucket is now empty; the next token arrives in ~1s, far past
	// this deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx, "example.com")
	require.Error(t, err)
}

func TestLimiter_DomainsAreIndependent(t *testing.T) {
	t.Parallel()

	l := New(Config{RatePerSecond: 1.0})
	ctx := context.Background()

	// Exhaust one domain's bucket.
	require.NoError(t, l.Wait(ctx, "slow.example.com"))

	// A different domain is unaffected.
	start := time.Now()
	require.NoError(t, l.Wait(ctx, "fast.example.com"))
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestLimiter_CanceledContext(t *testing.T) {
	t.Parallel()

	l := New(Config{RatePerSecond: 1.0})
	require.NoError(t, l.Wait(context.Background(), "example.com"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, l.Wait(ctx, "example.com"))
}

func TestLimiter_EmptyDomainBucketed(t *testing.T) {
	t.Parallel()

	l := New(Config{RatePerSecond: 100.0})
	require.NoError(t, l.Wait(context.Background(), ""))
}
