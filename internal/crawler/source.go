package crawler

import (
	"context"
	"errors"
	"io"
	"time"

	"golang.org/x/time/rate"

	"sjsage522/listingwatcher/helpers"
	"sjsage522/listingwatcher/logger"
	apperrors "sjsage522/listingwatcher/pkg/errors"
	"sjsage522/listingwatcher/services/cache"
)

// SourceConfig contains configuration for an HTTP page source
type SourceConfig struct {
	Name      string
	URL       string
	CacheKey  string
	BlockTime time.Duration
	MinGap    time.Duration
}

// HTTPSource fetches the listing page over HTTP. A 429 from the site blocks
// further requests through the cache service for BlockTime, or for the
// site's Retry-After when that is longer. Consecutive fetches are spaced at
// least MinGap apart.
type HTTPSource struct {
	SourceConfig
	CacheSvc  cache.CacheService
	limiter   *rate.Limiter
	fetchFunc func(ctx context.Context, url string) (io.Reader, error)
	log       *logger.Logger
}

// NewHTTPSource creates a new HTTP page source. cacheSvc may be nil.
func NewHTTPSource(config SourceConfig, cacheSvc cache.CacheService) *HTTPSource {
	limit := rate.Inf
	if config.MinGap > 0 {
		limit = rate.Every(config.MinGap)
	}
	if config.CacheKey == "" {
		config.CacheKey = config.Name + "_rate_limited"
	}

	return &HTTPSource{
		SourceConfig: config,
		CacheSvc:     cacheSvc,
		limiter:      rate.NewLimiter(limit, 1),
		fetchFunc:    helpers.FetchWithRandomHeaders,
		log:          logger.ForCrawler(config.Name),
	}
}

// GetName returns the source name
func (s *HTTPSource) GetName() string {
	return s.Name
}

// Fetch fetches the page. While a rate-limit block is active the site is not
// contacted at all.
func (s *HTTPSource) Fetch(ctx context.Context) (io.Reader, error) {
	if remaining := s.blockedFor(); remaining > 0 {
		return nil, apperrors.NewRateLimit(s.Name, remaining)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, apperrors.NewFetch(s.Name, "waiting for fetch slot", err)
	}

	body, err := s.fetchFunc(ctx, s.URL)
	if err != nil {
		var rateLimited *helpers.RateLimitError
		if errors.As(err, &rateLimited) {
			s.block(max(s.BlockTime, rateLimited.RetryAfter))
			return nil, apperrors.New(apperrors.ErrorTypeRateLimit, s.Name, "site responded with rate limit", err)
		}
		return nil, apperrors.NewFetch(s.Name, "failed to fetch listing page", err)
	}

	return body, nil
}

func (s *HTTPSource) blockedFor() time.Duration {
	if s.CacheSvc == nil || s.CacheKey == "" {
		return 0
	}
	return cache.BlockedFor(s.CacheSvc, s.CacheKey, time.Now())
}

func (s *HTTPSource) block(d time.Duration) {
	if s.CacheSvc == nil || s.CacheKey == "" || d <= 0 {
		return
	}
	if err := cache.Block(s.CacheSvc, s.CacheKey, d, time.Now()); err != nil {
		s.log.Warn().Err(err).Msg("Failed to store rate limit block")
		return
	}
	s.log.Warn().Dur("block_time", d).Msg("Rate limited, blocking further requests")
}
