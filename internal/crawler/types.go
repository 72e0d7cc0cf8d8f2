// Package crawler defines core types shared across subsystems.
package crawler

import (
	"fmt"
	"time"
)

// PageStatus is the terminal outcome recorded for a crawled URL.
type PageStatus string

// Page status values persisted in the index store.
const (
	PageStatusOK          PageStatus = "ok"
	PageStatusHTTPError   PageStatus = "http_error"
	PageStatusTimeout     PageStatus = "timeout"
	PageStatusUnreachable PageStatus = "unreachable"
	PageStatusParseError  PageStatus = "parse_error"
)

// URLRecord is a unit of pending work held by the frontier.
type URLRecord struct {
	CanonicalURL string
	Depth        int
	Domain       string
	DiscoveredAt time.Time
}

// PageRecord is persisted for each fetched page, keyed by canonical URL.
type PageRecord struct {
	URL         string     `json:"url"`
	Status      PageStatus `json:"status"`
	HTTPStatus  int        `json:"http_status,omitempty"`
	Title       string     `json:"title,omitempty"`
	ContentHash string     `json:"content_hash,omitempty"`
	Links       []string   `json:"links,omitempty"`
	Depth       int        `json:"depth"`
	FetchedAt   time.Time  `json:"fetched_at"`
	RunID       string     `json:"run_id,omitempty"`
}

// FetchResult is the successful outcome of a single HTTP GET.
type FetchResult struct {
	FinalURL   string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// FetchErrorKind classifies fetch failures for the retry policy.
type FetchErrorKind int

// Fetch failure kinds. Timeouts and connection failures are transient;
// HTTP errors are transient only for 5xx.
const (
	KindConnection FetchErrorKind = iota
	KindTimeout
	KindHTTP
)

// FetchError is the typed failure returned by a Fetcher.
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("fetch timeout: %v", e.Err)
	case KindHTTP:
		return fmt.Sprintf("http error %d: %v", e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("connection failed: %v", e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// PageStatusForError maps a fetch failure to the status recorded in the index.
func PageStatusForError(e *FetchError) (PageStatus, int) {
	switch e.Kind {
	case KindTimeout:
		return PageStatusTimeout, 0
	case KindHTTP:
		return PageStatusHTTPError, e.StatusCode
	default:
		return PageStatusUnreachable, 0
	}
}
