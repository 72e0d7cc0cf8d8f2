// Package frontier implements the deduplicated, depth-aware crawl queue.
package frontier

import (
	"sync"

	"github.com/JakeFAU/webindexer/internal/clock/system"
	"github.com/JakeFAU/webindexer/internal/crawler"
	"github.com/JakeFAU/webindexer/internal/metrics"
)

// Config controls admission policy and completion detection.
type Config struct {
	// MaxDepth rejects URLs discovered deeper than this; -1 means unbounded.
	MaxDepth int
	// Domain, when set, restricts admitted URLs to this exact host.
	Domain string
	// Workers is the number of workers that will call Dequeue. The frontier
	// needs it to detect exhaustion: the crawl is over once every worker is
	// idle-waiting on an empty queue.
	Workers int
	Clock   crawler.Clock
}

// Frontier is the single source of truth for what to crawl next. It owns the
// visited set, so a canonical URL is accepted at most once per run and never
// yielded to two dequeues. Ordering is FIFO by discovery (breadth-first).
type Frontier struct {
	cfg  Config
	mu   sync.Mutex
	cond *sync.Cond

	queue  []crawler.URLRecord
	seen   map[string]struct{}
	idle   int
	closed bool
	done   bool
}

// New constructs a Frontier for the given number of workers.
func New(cfg Config) *Frontier {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Clock == nil {
		cfg.Clock = system.New()
	}
	f := &Frontier{
		cfg:  cfg,
		seen: make(map[string]struct{}),
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Enqueue normalizes rawURL and admits it unless it is malformed, a
// duplicate, beyond the depth bound, or outside the domain restriction.
// Rejection has no side effect.
func (f *Frontier) Enqueue(rawURL string, depth int) bool {
	canonical, host, err := crawler.Normalize(rawURL)
	if err != nil {
		return false
	}
	if f.cfg.MaxDepth >= 0 && depth > f.cfg.MaxDepth {
		return false
	}
	if f.cfg.Domain != "" && host != f.cfg.Domain {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.done {
		return false
	}
	if _, dup := f.seen[canonical]; dup {
		return false
	}
	f.seen[canonical] = struct{}{}
	f.queue = append(f.queue, crawler.URLRecord{
		CanonicalURL: canonical,
		Depth:        depth,
		Domain:       host,
		DiscoveredAt: f.cfg.Clock.Now(),
	})
	metrics.SetFrontierPending(len(f.queue))
	f.cond.Signal()
	return true
}

// Dequeue blocks until work is available and returns the next record in
// discovery order. It returns false exactly once per worker, when the crawl
// is complete: either Close was called, or the queue is empty and every
// worker is idle-waiting, which guarantees no live producer can still
// enqueue work.
func (f *Frontier) Dequeue() (crawler.URLRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.idle++
	for {
		if f.closed || f.done {
			return crawler.URLRecord{}, false
		}
		if len(f.queue) > 0 {
			break
		}
		if f.idle == f.cfg.Workers {
			f.done = true
			f.cond.Broadcast()
			return crawler.URLRecord{}, false
		}
		f.cond.Wait()
	}

	f.idle--
	rec := f.queue[0]
	f.queue = f.queue[1:]
	metrics.SetFrontierPending(len(f.queue))
	return rec, true
}

// Close drains the frontier: pending work is abandoned and all blocked
// Dequeue calls return false. Idempotent.
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.cond.Broadcast()
}

// Pending returns the number of queued URLs.
func (f *Frontier) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// SeenCount returns the number of canonical URLs accepted so far.
func (f *Frontier) SeenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}
