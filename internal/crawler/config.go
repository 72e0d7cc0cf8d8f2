package crawler

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures every configuration knob that influences a crawl run.
// It is constructed once at startup and immutable afterwards. All values
// originate from Viper so the crawler can be configured via CLI flags or
// environment variables.
type Config struct {
	SeedURL       string
	MaxDepth      int // -1 means unbounded
	Domain        string
	Concurrency   int
	RatePerSecond float64
	Timeout       time.Duration
	DBPath        string
	UserAgent     string
	MetricsAddr   string
	Verbose       bool
}

// Load constructs a Config by reading from Viper plus the positional seed URL.
func Load(v *viper.Viper, seedURL string) (Config, error) {
	cfg := Config{
		SeedURL:       seedURL,
		MaxDepth:      v.GetInt("max-depth"),
		Domain:        strings.ToLower(strings.TrimSpace(v.GetString("domain"))),
		Concurrency:   v.GetInt("concurrency"),
		RatePerSecond: v.GetFloat64("rate-limit"),
		Timeout:       time.Duration(v.GetInt("timeout")) * time.Second,
		DBPath:        v.GetString("db-path"),
		UserAgent:     v.GetString("user-agent"),
		MetricsAddr:   v.GetString("metrics-addr"),
		Verbose:       v.GetBool("verbose"),
	}
	return cfg, cfg.Validate()
}

// Validate fails fast on configuration that would make the crawl meaningless.
func (c Config) Validate() error {
	if _, _, err := Normalize(c.SeedURL); err != nil {
		return fmt.Errorf("invalid seed url: %w", err)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1, got %d", c.Concurrency)
	}
	if c.RatePerSecond <= 0 {
		return fmt.Errorf("rate-limit must be > 0, got %g", c.RatePerSecond)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0, got %s", c.Timeout)
	}
	if c.DBPath == "" {
		return fmt.Errorf("db-path must be set")
	}
	return nil
}

// DepthAllowed reports whether depth is within the configured bound.
func (c Config) DepthAllowed(depth int) bool {
	return c.MaxDepth < 0 || depth <= c.MaxDepth
}
