package frontier

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFrontier_DeduplicatesCanonicalVariants(t *testing.T) {
	t.Parallel()

	f := New(Config{MaxDepth: -1, Workers: 1})

	require.True(t, f.Enqueue("https://example.com/a", 0))
	require.False(t, f.Enqueue("https://example.com/a", 0), "exact duplicate")
	require.False(t, f.Enqueue("https://EXAMPLE.com/a", 0), "case variant")
	require.False(t, f.Enqueue("https://example.com:443/a", 0), "default port variant")
	require.False(t, f.Enqueue("https://example.com/a#frag", 0), "fragment variant")
	require.False(t, f.Enqueue("https://example.com/a/", 0), "trailing slash variant")

	require.True(t, f.Enqueue("https://example.com", 0))
	require.False(t, f.Enqueue("https://example.com/", 0), "bare host and root slash are one page")

	require.Equal(t, 2, f.Pending())
	require.Equal(t, 2, f.SeenCount())
}

func TestFrontier_RejectsMalformed(t *testing.T) {
	t.Parallel()

	f := New(Config{MaxDepth: -1, Workers: 1})

	require.False(t, f.Enqueue("", 0))
	require.False(t, f.Enqueue("/relative", 0))
	require.False(t, f.Enqueue("ftp://example.com/x", 0))
	require.Equal(t, 0, f.Pending())
}

func TestFrontier_DepthBound(t *testing.T) {
	t.Parallel()

	f := New(Config{MaxDepth: 2, Workers: 1})

	require.True(t, f.Enqueue("https://example.com/depth2", 2))
	require.False(t, f.Enqueue("https://example.com/depth3", 3))

	unbounded := New(Config{MaxDepth: -1, Workers: 1})
	require.True(t, unbounded.Enqueue("https://example.com/deep", 9999))
}

func TestFrontier_DomainRestriction(t *testing.T) {
	t.Parallel()

	f := New(Config{MaxDepth: -1, Domain: "example.com", Workers: 1})

	require.True(t, f.Enqueue("https://example.com/in", 0))
	require.False(t, f.Enqueue("https://other.com/out", 0))
	require.False(t, f.Enqueue("https://sub.example.com/out", 0), "exact host match only")
	require.Equal(t, 1, f.SeenCount())
}

func TestFrontier_FIFOOrder(t *testing.T) {
	t.Parallel()

	f := New(Config{MaxDepth: -1, Workers: 1})
	for i := 0; i < 5; i++ {
		require.True(t, f.Enqueue(fmt.Sprintf("https://example.com/p%d", i), 0))
	}

	for i := 0; i < 5; i++ {
		rec, ok := f.Dequeue()
		require.True(t, ok)
		require.Equal(t, fmt.Sprintf("https://example.com/p%d", i), rec.CanonicalURL)
	}
}

func TestFrontier_ExhaustionEndsTheCrawl(t *testing.T) {
	t.Parallel()

	f := New(Config{MaxDepth: -1, Workers: 1})
	require.True(t, f.Enqueue("https://example.com/", 0))

	_, ok := f.Dequeue()
	require.True(t, ok)

	// Queue is empty and the only worker is back at Dequeue: done.
	_, ok = f.Dequeue()
	require.False(t, ok)

	// Exhaustion is terminal.
	require.False(t, f.Enqueue("https://example.com/late", 0))
	_, ok = f.Dequeue()
	require.False(t, ok)
}

func TestFrontier_ExhaustionWaitsForBusyWorkers(t *testing.T) {
	t.Parallel()

	f := New(Config{MaxDepth: -1, Workers: 2})
	require.True(t, f.Enqueue("https://example.com/", 0))

	// Worker one takes the only record and is now busy processing it.
	rec, ok := f.Dequeue()
	require.True(t, ok)
	require.Equal(t, "https://example.com/", rec.CanonicalURL)

	// Worker two blocks: queue is empty but worker one may still produce.
	got := make(chan bool, 1)
	go func() {
		_, ok := f.Dequeue()
		got <- ok
	}()

	select {
	case <-got:
		t.Fatal("dequeue returned while another worker was busy")
	case <-time.After(50 * time.Millisecond):
	}

	// Worker one discovers a link; worker two should receive it.
	require.True(t, f.Enqueue("https://example.com/next", 1))
	select {
	case ok := <-got:
		require.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("dequeue did not wake after enqueue")
	}
}

func TestFrontier_CloseWakesBlockedWorkers(t *testing.T) {
	t.Parallel()

	f := New(Config{MaxDepth: -1, Workers: 2})
	require.True(t, f.Enqueue("https://example.com/", 0))
	_, ok := f.Dequeue()
	require.True(t, ok)

	got := make(chan bool, 1)
	go func() {
		_, ok := f.Dequeue()
		got <- ok
	}()
	time.Sleep(20 * time.Millisecond)

	f.Close()
	f.Close() // idempotent

	select {
	case ok := <-got:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("close did not wake blocked dequeue")
	}

	require.False(t, f.Enqueue("https://example.com/after", 0))
}
