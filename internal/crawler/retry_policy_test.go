package crawler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetryPolicy_ShouldRetry(t *testing.T) {
	t.Parallel()

	p := NewRetryPolicy()

	timeout := &FetchError{Kind: KindTimeout, Err: errors.New("deadline")}
	conn := &FetchError{Kind: KindConnection, Err: errors.New("refused")}
	server := &FetchError{Kind: KindHTTP, StatusCode: 503, Err: errors.New("unavailable")}
	client := &FetchError{Kind: KindHTTP, StatusCode: 404, Err: errors.New("not found")}

	require.True(t, p.ShouldRetry(timeout, 0))
	require.True(t, p.ShouldRetry(timeout, 1))
	require.False(t, p.ShouldRetry(timeout, 2), "retry budget is two extra attempts")

	require.True(t, p.ShouldRetry(conn, 0))
	require.True(t, p.ShouldRetry(server, 0))
	require.False(t, p.ShouldRetry(client, 0), "4xx is permanent")

	require.False(t, p.ShouldRetry(nil, 0))
	require.False(t, p.ShouldRetry(errors.New("plain error"), 0))
	require.False(t, p.ShouldRetry(context.Canceled, 0))
}

func TestRetryPolicy_ShouldRetry_WrappedFetchError(t *testing.T) {
	t.Parallel()

	p := NewRetryPolicy()
	wrapped := fmt.Errorf("fetch: %w", &FetchError{Kind: KindTimeout, Err: errors.New("slow")})
	require.True(t, p.ShouldRetry(wrapped, 0))
}

func TestRetryPolicy_Backoff(t *testing.T) {
	t.Parallel()

	p := NewRetryPolicy()

	first := p.Backoff(0)
	require.GreaterOrEqual(t, first, 125*time.Millisecond)
	require.LessOrEqual(t, first, 250*time.Millisecond)

	second := p.Backoff(1)
	require.GreaterOrEqual(t, second, 250*time.Millisecond)
	require.LessOrEqual(t, second, 500*time.Millisecond)

	// Far beyond the cap the delay stays bounded.
	capped := p.Backoff(20)
	require.LessOrEqual(t, capped, 5*time.Second)
	require.GreaterOrEqual(t, capped, 2500*time.Millisecond)
}
