package cfg

import "time"

type Cfg struct {
	// Server
	Port         string
	BaseUrl      string
	APIAccessKey string

	// Storage
	DBPath    string
	RedisAddr string
	CacheTTL  time.Duration

	// Fetch proxy
	ProxyURL       string
	ProxyKey       string
	FetchTimeout   time.Duration
	MaxAttempts    int
	RetryBaseDelay time.Duration
	RateLimit      float64

	// Extraction
	ExtractionConfig string

	// Background work
	WorkerCount     int
	RefreshInterval time.Duration

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
