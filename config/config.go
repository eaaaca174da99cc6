package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "sjsage522/listingwatcher/pkg/errors"
)

// Seen store backends
const (
	SeenBackendFile     = "file"
	SeenBackendRedis    = "redis"
	SeenBackendPostgres = "postgres"
)

// Notifier implementations
const (
	NotifierLog   = "log"
	NotifierRedis = "redis"
)

// Config represents the application configuration
type Config struct {
	// Listing site
	ListingURL  string
	SiteProfile string

	// Scheduling and fetching
	CrawlInterval  time.Duration
	FetchTimeout   time.Duration
	FetchMinGap    time.Duration
	RateLimitBlock time.Duration

	// Seen store
	SeenBackend  string
	SeenPath     string
	SeenRedisKey string
	PostgresDSN  string

	// Notifier
	Notifier             string
	NotifierDestinations string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisPrefix          string
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr   string
	CacheNamespace string

	// Filter defaults
	DefaultMinPrice   int
	DefaultMaxPrice   int
	DefaultDateBucket string

	// Control surface
	Port string

	ErrorLogFile string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		ListingURL:           getEnv("LISTING_URL", "https://doska.ykt.ru/"),
		SiteProfile:          getEnv("SITE_PROFILE", ""),
		CrawlInterval:        getSeconds("CRAWL_INTERVAL_SECONDS", 1800),
		FetchTimeout:         getSeconds("FETCH_TIMEOUT_SECONDS", 30),
		FetchMinGap:          getSeconds("FETCH_MIN_GAP_SECONDS", 10),
		RateLimitBlock:       getSeconds("RATE_LIMIT_BLOCK_SECONDS", 600),
		SeenBackend:          strings.ToLower(getEnv("SEEN_BACKEND", SeenBackendFile)),
		SeenPath:             getEnv("SEEN_PATH", "seen.json"),
		SeenRedisKey:         getEnv("SEEN_REDIS_KEY", "listingwatcher:seen"),
		PostgresDSN:          getEnv("POSTGRES_DSN", ""),
		Notifier:             strings.ToLower(getEnv("NOTIFIER", NotifierLog)),
		NotifierDestinations: getEnv("NOTIFIER_DESTINATIONS", ""),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              getInt("REDIS_DB", 0),
		RedisPrefix:          getEnv("REDIS_PREFIX", "listingwatcher"),
		RedisStreamMaxLength: getInt("REDIS_STREAM_MAX_LENGTH", 1000),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		CacheNamespace:       getEnv("CACHE_NAMESPACE", "listingwatcher"),
		DefaultMinPrice:      getInt("DEFAULT_MIN_PRICE", 0),
		DefaultMaxPrice:      getInt("DEFAULT_MAX_PRICE", 999999),
		DefaultDateBucket:    getEnv("DEFAULT_DATE_BUCKET", "сегодня"),
		Port:                 getEnv("PORT", "3000"),
		ErrorLogFile:         getEnv("ERROR_LOG_FILE", "errors.log"),
		Environment:          getEnv("WATCHER_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the watcher cannot run with
func (c *Config) Validate() error {
	if c.ListingURL == "" {
		return apperrors.NewConfiguration("LISTING_URL is required", nil)
	}
	if c.CrawlInterval <= 0 {
		return apperrors.NewConfiguration("CRAWL_INTERVAL_SECONDS must be positive", nil)
	}
	if c.FetchTimeout <= 0 {
		return apperrors.NewConfiguration("FETCH_TIMEOUT_SECONDS must be positive", nil)
	}
	if c.DefaultMinPrice < 0 || c.DefaultMaxPrice < c.DefaultMinPrice {
		return apperrors.NewConfiguration(
			fmt.Sprintf("invalid default price range [%d, %d]", c.DefaultMinPrice, c.DefaultMaxPrice), nil)
	}

	switch c.SeenBackend {
	case SeenBackendFile:
		if c.SeenPath == "" {
			return apperrors.NewConfiguration("SEEN_PATH is required for the file backend", nil)
		}
	case SeenBackendRedis:
		if c.RedisAddr == "" || c.SeenRedisKey == "" {
			return apperrors.NewConfiguration("REDIS_ADDR and SEEN_REDIS_KEY are required for the redis backend", nil)
		}
	case SeenBackendPostgres:
		if c.PostgresDSN == "" {
			return apperrors.NewConfiguration("POSTGRES_DSN is required for the postgres backend", nil)
		}
	default:
		return apperrors.NewConfiguration(fmt.Sprintf("unknown SEEN_BACKEND %q", c.SeenBackend), nil)
	}

	switch c.Notifier {
	case NotifierLog, NotifierRedis:
	default:
		return apperrors.NewConfiguration(fmt.Sprintf("unknown NOTIFIER %q", c.Notifier), nil)
	}

	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

func getSeconds(key string, defaultValue int) time.Duration {
	return time.Duration(getInt(key, defaultValue)) * time.Second
}
