package crawler

import (
	"context"
	"time"
)

// Fetcher performs a single HTTP GET and returns the body plus metadata.
// Failures are reported as *FetchError; context cancellation surfaces
// ctx.Err() unchanged.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (FetchResult, error)
}

// IndexStore persists page records and crawl run metadata.
type IndexStore interface {
	UpsertPage(ctx context.Context, page PageRecord) error
	StartRun(ctx context.Context, runID, seedURL string, startedAt time.Time) error
	FinishRun(ctx context.Context, runID string, finishedAt time.Time, pagesIndexed int64) error
}

// Hasher computes digests for content fingerprinting.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces crawl run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
