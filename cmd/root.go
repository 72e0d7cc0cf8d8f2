// Package cmd defines and implements the CLI for the webindexer executable.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/webindexer/internal/api"
	"github.com/JakeFAU/webindexer/internal/clock/system"
	"github.com/JakeFAU/webindexer/internal/crawler"
	"github.com/JakeFAU/webindexer/internal/engine"
	collyfetcher "github.com/JakeFAU/webindexer/internal/fetcher/colly"
	"github.com/JakeFAU/webindexer/internal/frontier"
	"github.com/JakeFAU/webindexer/internal/hash/sha256"
	"github.com/JakeFAU/webindexer/internal/id/uuid"
	"github.com/JakeFAU/webindexer/internal/index/sqlite"
	"github.com/JakeFAU/webindexer/internal/logging"
	"github.com/JakeFAU/webindexer/internal/ratelimit"
)

// newRootCmd creates and configures the root command. The CLI is a single
// command: one positional seed URL plus crawl flags.
func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "webindexer [flags] START_URL",
		Short: "A concurrent web crawler and indexer",
		Long: `webindexer crawls the web starting from a seed URL, following links
breadth-first subject to depth, domain, concurrency, and per-domain
rate limits, and indexes every visited page into a local SQLite
database keyed by canonical URL.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawl(cmd.Context(), v, args[0])
		},
	}

	flags := cmd.Flags()
	flags.Int("max-depth", -1, "maximum crawl depth (-1 = unlimited)")
	flags.String("domain", "", "restrict crawling to this domain")
	flags.Int("concurrency", 10, "maximum concurrent requests")
	flags.Float64("rate-limit", 5.0, "requests per second per domain")
	flags.String("db-path", "crawler_index.db", "index database file path")
	flags.Int("timeout", 10, "request timeout in seconds")
	flags.Bool("verbose", false, "enable verbose logging")
	flags.String("user-agent", "webindexer/0.1", "User-Agent header for outbound requests")
	flags.String("metrics-addr", "", "listen address for the metrics/health server (disabled when empty)")

	v.SetEnvPrefix("CRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	cobra.CheckErr(v.BindPFlags(flags))

	return cmd
}

func runCrawl(ctx context.Context, v *viper.Viper, seedURL string) error {
	cfg, err := crawler.Load(v, seedURL)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush

	// SIGINT/SIGTERM drain the crawl gracefully; already-indexed pages
	// are retained and the process exits 0.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open index store: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Warn("close index store", zap.Error(cerr))
		}
	}()

	eng := engine.New(
		cfg,
		frontier.New(frontier.Config{
			MaxDepth: cfg.MaxDepth,
			Domain:   cfg.Domain,
			Workers:  cfg.Concurrency,
		}),
		ratelimit.New(ratelimit.Config{RatePerSecond: cfg.RatePerSecond}),
		collyfetcher.New(collyfetcher.Config{
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout,
		}),
		store,
		crawler.NewRetryPolicy(),
		sha256.New(),
		system.New(),
		uuid.NewUUIDGenerator(),
		logger,
	)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer cancelRun()
		if err := eng.Run(gctx); err != nil {
			return fmt.Errorf("run crawl: %w", err)
		}
		return nil
	})
	if cfg.MetricsAddr != "" {
		srv := api.NewServer(cfg.MetricsAddr, logger)
		g.Go(func() error {
			return srv.Run(gctx)
		})
	}
	return g.Wait()
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
