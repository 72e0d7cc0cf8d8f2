// Package sqlite implements the crawler.IndexStore interface on a local
// SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JakeFAU/webindexer/internal/crawler"
)

// ErrNotFound is returned when no page record exists for a URL.
var ErrNotFound = errors.New("page not found")

// Store persists page records keyed by canonical URL.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database file and runs schema migrations.
func New(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %w", err)
	}
	// SQLite allows a single writer; serializing through one connection
	// avoids SQLITE_BUSY under concurrent upserts.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS pages (
	url          TEXT PRIMARY KEY,
	status       TEXT NOT NULL,
	http_status  INTEGER NOT NULL DEFAULT 0,
	title        TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL DEFAULT '',
	links        TEXT NOT NULL DEFAULT '[]',
	depth        INTEGER NOT NULL DEFAULT 0,
	fetched_at   TEXT NOT NULL,
	run_id       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_pages_status ON pages (status);

CREATE TABLE IF NOT EXISTS crawl_runs (
	id            TEXT PRIMARY KEY,
	seed_url      TEXT NOT NULL,
	started_at    TEXT NOT NULL,
	finished_at   TEXT,
	pages_indexed INTEGER NOT NULL DEFAULT 0
);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// UpsertPage writes the terminal outcome for a URL, overwriting any prior
// record for the same canonical URL.
func (s *Store) UpsertPage(ctx context.Context, page crawler.PageRecord) error {
	links, err := json.Marshal(page.Links)
	if err != nil {
		return fmt.Errorf("marshal links: %w", err)
	}
	query := `
INSERT INTO pages (url, status, http_status, title, content_hash, links, depth, fetched_at, run_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(url) DO UPDATE SET
	status       = excluded.status,
	http_status  = excluded.http_status,
	title        = excluded.title,
	content_hash = excluded.content_hash,
	links        = excluded.links,
	depth        = excluded.depth,
	fetched_at   = excluded.fetched_at,
	run_id       = excluded.run_id`
	_, err = s.db.ExecContext(ctx, query,
		page.URL,
		string(page.Status),
		page.HTTPStatus,
		page.Title,
		page.ContentHash,
		string(links),
		page.Depth,
		page.FetchedAt.Format(time.RFC3339Nano),
		page.RunID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert page %s: %w", page.URL, err)
	}
	return nil
}

// GetPage retrieves a single page record by canonical URL.
func (s *Store) GetPage(ctx context.Context, url string) (crawler.PageRecord, error) {
	query := `SELECT url, status, http_status, title, content_hash, links, depth, fetched_at, run_id
FROM pages WHERE url = ?`
	var (
		page       crawler.PageRecord
		status     string
		linksJSON  string
		fetchedStr string
	)
	err := s.db.QueryRowContext(ctx, query, url).Scan(
		&page.URL, &status, &page.HTTPStatus, &page.Title,
		&page.ContentHash, &linksJSON, &page.Depth, &fetchedStr, &page.RunID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return crawler.PageRecord{}, ErrNotFound
	}
	if err != nil {
		return crawler.PageRecord{}, fmt.Errorf("failed to get page: %w", err)
	}
	page.Status = crawler.PageStatus(status)
	if err := json.Unmarshal([]byte(linksJSON), &page.Links); err != nil {
		return crawler.PageRecord{}, fmt.Errorf("unmarshal links: %w", err)
	}
	page.FetchedAt, _ = time.Parse(time.RFC3339Nano, fetchedStr)
	return page, nil
}

// CountPages returns the number of page records in the index.
func (s *Store) CountPages(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return n, nil
}

// StartRun records the beginning of a crawl run.
func (s *Store) StartRun(ctx context.Context, runID, seedURL string, startedAt time.Time) error {
	query := `INSERT INTO crawl_runs (id, seed_url, started_at) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, runID, seedURL, startedAt.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to record run start: %w", err)
	}
	return nil
}

// FinishRun records the end of a crawl run and its page count.
func (s *Store) FinishRun(ctx context.Context, runID string, finishedAt time.Time, pagesIndexed int64) error {
	query := `UPDATE crawl_runs SET finished_at = ?, pages_indexed = ? WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, query, finishedAt.Format(time.RFC3339Nano), pagesIndexed, runID); err != nil {
		return fmt.Errorf("failed to record run finish: %w", err)
	}
	return nil
}
