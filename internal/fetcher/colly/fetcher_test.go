package collyfetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/webindexer/internal/crawler"
)

func TestFetch_OK(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-agent", r.UserAgent())
		w.Write([]byte("<html><title>Hi</title></html>"))
	}))
	defer srv.Close()

	f := New(Config{UserAgent: "test-agent", Timeout: 5 * time.Second})
	res, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, 200, res.StatusCode)
	require.Contains(t, string(res.Body), "<title>Hi</title>")
	require.NotEmpty(t, res.FinalURL)
	require.Greater(t, res.Duration, time.Duration(0))
}

func TestFetch_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})
	_, err := f.Fetch(context.Background(), srv.URL)

	var ferr *crawler.FetchError
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, crawler.KindHTTP, ferr.Kind)
	require.Equal(t, 404, ferr.StatusCode)
}

func TestFetch_ConnectionRefused(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	f := New(Config{Timeout: 2 * time.Second})
	_, err := f.Fetch(context.Background(), url)

	var ferr *crawler.FetchError
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, crawler.KindConnection, ferr.Kind)
}

func TestFetch_Timeout(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	f := New(Config{Timeout: 50 * time.Millisecond})
	_, err := f.Fetch(context.Background(), srv.URL)

	var ferr *crawler.FetchError
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, crawler.KindTimeout, ferr.Kind)
}

func TestFetch_ContextCanceled(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	f := New(Config{Timeout: 5 * time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := f.Fetch(ctx, srv.URL)
	require.ErrorIs(t, err, context.Canceled)

	var ferr *crawler.FetchError
	require.False(t, errors.As(err, &ferr), "cancellation is not a fetch failure")
}

func TestFetch_InvalidURL(t *testing.T) {
	t.Parallel()

	f := New(Config{Timeout: time.Second})
	_, err := f.Fetch(context.Background(), "://not-a-url")

	var ferr *crawler.FetchError
	require.ErrorAs(t, err, &ferr)
}
