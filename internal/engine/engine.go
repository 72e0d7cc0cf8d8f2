// Package engine implements the crawl coordinator: the bounded worker pool
// that drives the dequeue → rate-limit → fetch → parse → index pipeline.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/webindexer/internal/clock/system"
	"github.com/JakeFAU/webindexer/internal/crawler"
	"github.com/JakeFAU/webindexer/internal/frontier"
	"github.com/JakeFAU/webindexer/internal/metrics"
	"github.com/JakeFAU/webindexer/internal/parser"
	"github.com/JakeFAU/webindexer/internal/ratelimit"
)

// State is the engine lifecycle phase.
type State int32

// Engine states. Draining means cancellation was observed: no new dequeues,
// in-flight fetches finish bounded by their timeout.
const (
	StateIdle State = iota
	StateRunning
	StateDraining
	StateStopped
)

// Engine owns the worker pool and the crawl's termination logic.
type Engine struct {
	cfg      crawler.Config
	frontier *frontier.Frontier
	limiter  *ratelimit.Limiter
	fetcher  crawler.Fetcher
	store    crawler.IndexStore
	retry    *crawler.RetryPolicy
	hasher   crawler.Hasher
	clock    crawler.Clock
	idGen    crawler.IDGenerator
	logger   *zap.Logger

	state        atomic.Int32
	runID        string
	pagesIndexed atomic.Int64
	pagesFailed  atomic.Int64
	retries      atomic.Int64
}

// New constructs an Engine.
func New(
	cfg crawler.Config,
	front *frontier.Frontier,
	limiter *ratelimit.Limiter,
	fetcher crawler.Fetcher,
	store crawler.IndexStore,
	retry *crawler.RetryPolicy,
	hasher crawler.Hasher,
	clock crawler.Clock,
	idGen crawler.IDGenerator,
	logger *zap.Logger,
) *Engine {
	if retry == nil {
		retry = crawler.NewRetryPolicy()
	}
	if clock == nil {
		clock = system.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:      cfg,
		frontier: front,
		limiter:  limiter,
		fetcher:  fetcher,
		store:    store,
		retry:    retry,
		hasher:   hasher,
		clock:    clock,
		idGen:    idGen,
		logger:   logger,
	}
}

// State returns the current lifecycle phase.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Run seeds the frontier and blocks until the crawl completes or drains
// after cancellation. Interruption is a normal outcome and returns nil;
// already-indexed pages are retained either way.
func (e *Engine) Run(ctx context.Context) error {
	runID, err := e.idGen.NewID()
	if err != nil {
		return fmt.Errorf("generate run id: %w", err)
	}
	e.runID = runID

	// Admit the seed before opening the run row so a rejected seed never
	// leaves an orphaned, unfinished run behind.
	if !e.frontier.Enqueue(e.cfg.SeedURL, 0) {
		return fmt.Errorf("seed url %q rejected by crawl policy", e.cfg.SeedURL)
	}
	startedAt := e.clock.Now()
	if err := e.store.StartRun(ctx, runID, e.cfg.SeedURL, startedAt); err != nil {
		return fmt.Errorf("record run start: %w", err)
	}

	e.state.Store(int32(StateRunning))
	e.logger.Info("crawl started",
		zap.String("run_id", runID),
		zap.String("seed", e.cfg.SeedURL),
		zap.Int("concurrency", e.cfg.Concurrency),
		zap.Int("max_depth", e.cfg.MaxDepth),
		zap.Float64("rate_limit", e.cfg.RatePerSecond),
	)

	stopWatch := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			e.state.Store(int32(StateDraining))
			e.frontier.Close()
		case <-stopWatch:
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < e.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.runWorker(ctx)
		}()
	}
	wg.Wait()
	close(stopWatch)
	e.state.Store(int32(StateStopped))

	finishedAt := e.clock.Now()
	indexed := e.pagesIndexed.Load()
	if err := e.store.FinishRun(context.WithoutCancel(ctx), runID, finishedAt, indexed); err != nil {
		e.logger.Warn("record run finish", zap.Error(err))
	}
	e.logger.Info("crawl finished",
		zap.String("run_id", runID),
		zap.Int64("pages_indexed", indexed),
		zap.Int64("pages_failed", e.pagesFailed.Load()),
		zap.Int64("retries", e.retries.Load()),
		zap.Duration("elapsed", finishedAt.Sub(startedAt)),
		zap.Bool("interrupted", ctx.Err() != nil),
	)
	return nil
}

func (e *Engine) runWorker(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		rec, ok := e.frontier.Dequeue()
		if !ok {
			return
		}
		metrics.IncActiveWorkers()
		e.process(ctx, rec)
		metrics.DecActiveWorkers()
	}
}

func (e *Engine) process(ctx context.Context, rec crawler.URLRecord) {
	if err := e.limiter.Wait(ctx, rec.Domain); err != nil {
		// Draining; this record is abandoned with the rest of the frontier.
		return
	}
	res, err := e.fetchWithRetry(ctx, rec.CanonicalURL)
	if err != nil {
		e.recordFailure(ctx, rec, err)
		return
	}
	e.indexPage(ctx, rec, res)
}

func (e *Engine) fetchWithRetry(ctx context.Context, url string) (crawler.FetchResult, error) {
	for attempt := 0; ; attempt++ {
		res, err := e.fetcher.Fetch(ctx, url)
		if err == nil {
			return res, nil
		}
		if !e.retry.ShouldRetry(err, attempt) {
			return crawler.FetchResult{}, err
		}
		e.retries.Add(1)
		metrics.IncFetchRetries()
		e.logger.Debug("retrying fetch",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		if !e.pause(ctx, e.retry.Backoff(attempt)) {
			return crawler.FetchResult{}, err
		}
	}
}

// recordFailure persists the terminal failure status for a URL so it is
// never silently dropped. Cancellation mid-flight is not terminal and is
// not recorded.
func (e *Engine) recordFailure(ctx context.Context, rec crawler.URLRecord, err error) {
	var ferr *crawler.FetchError
	if !errors.As(err, &ferr) {
		return
	}
	status, httpStatus := crawler.PageStatusForError(ferr)
	page := crawler.PageRecord{
		URL:        rec.CanonicalURL,
		Status:     status,
		HTTPStatus: httpStatus,
		Depth:      rec.Depth,
		FetchedAt:  e.clock.Now(),
		RunID:      e.runID,
	}
	if err := e.store.UpsertPage(context.WithoutCancel(ctx), page); err != nil {
		e.logger.Error("record failed page", zap.String("url", rec.CanonicalURL), zap.Error(err))
	}
	e.pagesFailed.Add(1)
	metrics.ObserveCrawl(rec.Domain, string(status), 0)
	e.logger.Warn("page failed",
		zap.String("url", rec.CanonicalURL),
		zap.String("status", string(status)),
		zap.Error(ferr),
	)
}

func (e *Engine) indexPage(ctx context.Context, rec crawler.URLRecord, res crawler.FetchResult) {
	base := res.FinalURL
	if base == "" {
		base = rec.CanonicalURL
	}
	parsed := parser.Extract(res.Body, base)

	hash, err := e.hasher.Hash(res.Body)
	if err != nil {
		e.logger.Debug("hash body", zap.String("url", rec.CanonicalURL), zap.Error(err))
	}

	status := crawler.PageStatusOK
	if parsed.Partial {
		status = crawler.PageStatusParseError
	}
	page := crawler.PageRecord{
		URL:         rec.CanonicalURL,
		Status:      status,
		HTTPStatus:  res.StatusCode,
		Title:       parsed.Title,
		ContentHash: hash,
		Links:       parsed.Links,
		Depth:       rec.Depth,
		FetchedAt:   e.clock.Now(),
		RunID:       e.runID,
	}
	if err := e.store.UpsertPage(context.WithoutCancel(ctx), page); err != nil {
		e.pagesFailed.Add(1)
		e.logger.Error("index page", zap.String("url", rec.CanonicalURL), zap.Error(err))
		return
	}
	e.pagesIndexed.Add(1)
	metrics.ObserveCrawl(rec.Domain, string(status), len(res.Body))
	e.logger.Debug("page indexed",
		zap.String("url", rec.CanonicalURL),
		zap.Int("depth", rec.Depth),
		zap.Int("links", len(parsed.Links)),
	)

	for _, link := range parsed.Links {
		e.frontier.Enqueue(link, rec.Depth+1)
	}
}

func (e *Engine) pause(ctx context.Context, delay time.Duration) bool {
	if delay <= 0 {
		return true
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
