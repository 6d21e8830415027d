package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Server
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl      string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://listings.example.com)"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Storage
	DBPath    string        `long:"db-path" env:"DB_PATH" default:"./data/listings.db" description:"SQLite database file"`
	RedisAddr string        `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for the scrape cache (cache disabled when empty)"`
	CacheTTL  time.Duration `long:"cache-ttl" env:"CACHE_TTL" default:"1h" description:"How long scraped listings stay cached"`

	// Fetch proxy
	ProxyURL       string        `long:"proxy-url" env:"SCRAPING_API_URL" default:"https://api.scrape.do/" description:"Rendering fetch proxy endpoint"`
	ProxyKey       string        `long:"proxy-key" env:"SCRAPING_API_KEY" description:"Fetch proxy API key (required)" required:"true"`
	FetchTimeout   time.Duration `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"60s" description:"Per-fetch timeout, clamped to 30s..120s"`
	MaxAttempts    int           `long:"max-attempts" env:"MAX_ATTEMPTS" default:"3" description:"Fetch attempts per scrape"`
	RetryBaseDelay time.Duration `long:"retry-base-delay" env:"RETRY_BASE_DELAY" default:"1s" description:"Base delay for quadratic retry backoff"`
	RateLimit      float64       `long:"rate-limit" env:"RATE_LIMIT" default:"0" description:"Fetch proxy requests per second (0 disables limiting)"`

	// Extraction
	ExtractionConfig string `long:"extraction-config" env:"EXTRACTION_CONFIG" description:"YAML file overriding extraction selectors and markers"`

	// Background work
	WorkerCount     int           `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers"`
	RefreshInterval time.Duration `long:"refresh-interval" env:"REFRESH_INTERVAL" default:"24h" description:"How often tracked properties are re-scraped (0 disables)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Listing Comb/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/Warsaw)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	return parse(os.Args[1:])
}

func parse(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.ProxyKey == "" {
		return nil, fmt.Errorf("fetch proxy key must not be empty")
	}
	if raw.MaxAttempts < 1 {
		return nil, fmt.Errorf("max attempts must be at least 1, got %d", raw.MaxAttempts)
	}
	if raw.RateLimit < 0 {
		return nil, fmt.Errorf("rate limit must not be negative, got %v", raw.RateLimit)
	}

	cfg := &Cfg{
		Port:             raw.Port,
		BaseUrl:          raw.BaseUrl,
		APIAccessKey:     raw.APIAccessKey,
		DBPath:           raw.DBPath,
		RedisAddr:        raw.RedisAddr,
		CacheTTL:         raw.CacheTTL,
		ProxyURL:         raw.ProxyURL,
		ProxyKey:         raw.ProxyKey,
		FetchTimeout:     raw.FetchTimeout,
		MaxAttempts:      raw.MaxAttempts,
		RetryBaseDelay:   raw.RetryBaseDelay,
		RateLimit:        raw.RateLimit,
		ExtractionConfig: raw.ExtractionConfig,
		WorkerCount:      raw.WorkerCount,
		RefreshInterval:  raw.RefreshInterval,
		UserAgent:        raw.UserAgent,
		Timezone:         raw.Timezone,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		slog.Warn("Invalid timezone, using system default", "timezone", cfg.Timezone, "error", err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone == "" {
		return nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return err
	}
	time.Local = loc
	return nil
}
