// Package collyfetcher implements crawler.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/webindexer/internal/crawler"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher performs one HTTP GET per call through a cloned Colly collector.
// Rate limiting, dedup, and link following are the engine's job; the fetcher
// only moves bytes and classifies failures.
type Fetcher struct {
	cfg           Config
	transport     http.RoundTripper
	baseCollector *colly.Collector
}

// New builds a Fetcher with a pooled transport shared by all clones.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	transport := newHTTPTransport()
	c.WithTransport(transport)
	return &Fetcher{
		cfg:           cfg,
		transport:     transport,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET. Failures are returned as
// *crawler.FetchError; cancellation of ctx surfaces ctx.Err().
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (crawler.FetchResult, error) {
	collector := f.baseCollector.Clone()
	collector.IgnoreRobotsTxt = true
	collector.WithTransport(f.transport)
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	timeout := f.cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	var (
		result   crawler.FetchResult
		fetchErr *crawler.FetchError
	)
	start := time.Now()

	collector.OnResponse(func(r *colly.Response) {
		result = crawler.FetchResult{
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		fetchErr = classify(r, err)
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return crawler.FetchResult{}, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		switch {
		case fetchErr != nil:
			return crawler.FetchResult{}, fetchErr
		case err != nil:
			return crawler.FetchResult{}, classify(nil, err)
		case result.StatusCode == 0:
			return crawler.FetchResult{}, &crawler.FetchError{
				Kind: crawler.KindConnection,
				Err:  errors.New("collector produced no response"),
			}
		}
		return result, nil
	}
}

func classify(r *colly.Response, err error) *crawler.FetchError {
	if r != nil && r.StatusCode >= 400 {
		return &crawler.FetchError{Kind: crawler.KindHTTP, StatusCode: r.StatusCode, Err: err}
	}
	if isTimeout(err) {
		return &crawler.FetchError{Kind: crawler.KindTimeout, Err: err}
	}
	return &crawler.FetchError{Kind: crawler.KindConnection, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
