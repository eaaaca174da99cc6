package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"sjsage522/listingwatcher/config"
	"sjsage522/listingwatcher/helpers"
	"sjsage522/listingwatcher/internal/crawler"
	"sjsage522/listingwatcher/logger"
	"sjsage522/listingwatcher/services/cache"
	"sjsage522/listingwatcher/services/control"
	"sjsage522/listingwatcher/services/dispatchlog"
	"sjsage522/listingwatcher/services/notifier"
	"sjsage522/listingwatcher/services/seen"
	"sjsage522/listingwatcher/services/settings"
	"sjsage522/listingwatcher/services/worker"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Dur("crawl_interval", cfg.CrawlInterval).
		Str("seen_backend", cfg.SeenBackend).
		Str("notifier", cfg.Notifier).
		Msg("Starting application")

	// Set up context with cancellation on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	profile, err := loadProfile(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load site profile")
	}
	extractor, err := crawler.NewExtractor(profile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create extractor")
	}
	source := crawler.NewHTTPSource(crawler.SourceConfig{
		Name:      profile.Name,
		URL:       profile.ListURL,
		BlockTime: cfg.RateLimitBlock,
		MinGap:    cfg.FetchMinGap,
	}, services.Cache)

	filters := settings.NewStore(settings.Filter{
		MinPrice:   cfg.DefaultMinPrice,
		MaxPrice:   cfg.DefaultMaxPrice,
		DateBucket: cfg.DefaultDateBucket,
	})
	history := dispatchlog.New()

	errLog := helpers.NewLogger(cfg.ErrorLogFile)
	defer errLog.Close()

	w := worker.NewWorker(worker.Dependencies{
		Source:      source,
		Extractor:   extractor,
		Seen:        services.Seen,
		Settings:    filters,
		Notifier:    services.Notifier,
		DispatchLog: history,
		Logger:      errLog,
	}, cfg.CrawlInterval, cfg.FetchTimeout)

	deps := control.Dependencies{
		Settings:    filters,
		DispatchLog: history,
		Pipeline:    w,
		Seen:        services.Seen,
	}
	if pairing, ok := services.Notifier.(notifier.PairingSource); ok {
		deps.Pairing = pairing
	}
	server := control.NewServer(":"+cfg.Port, deps)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Start()
	}()

	// The pipeline starts only once the notifier has produced its catalog
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)

		log.Info().Str("source", profile.ListURL).Msg("Waiting for notifier")
		if err := services.Notifier.Connect(ctx); err != nil {
			log.Warn().Err(err).Msg("Notifier never became ready")
			return
		}
		filters.SetCatalog(services.Notifier.Destinations())

		log.Info().Msg("Starting listing watcher")
		w.Start(ctx)
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("Received shutdown signal")
	case err := <-serverDone:
		if err != nil {
			log.Error().Err(err).Msg("Control surface exited with error")
		}
		stop()
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shut down control surface")
	}

	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("In-flight cycle did not finish before shutdown timeout")
	}
}

// loadProfile returns the site profile. LISTING_URL overrides the profile's
// list URL unless a profile file is used and the variable is unset.
func loadProfile(cfg *config.Config) (crawler.Profile, error) {
	profile := crawler.DefaultProfile()
	if cfg.SiteProfile != "" {
		loaded, err := crawler.LoadProfile(cfg.SiteProfile)
		if err != nil {
			return crawler.Profile{}, err
		}
		profile = loaded
	}

	if _, set := os.LookupEnv("LISTING_URL"); set || cfg.SiteProfile == "" {
		profile.ListURL = cfg.ListingURL
	}
	return profile, profile.Validate()
}

// Services holds all the initialized services
type Services struct {
	Cache    cache.CacheService
	Seen     seen.Store
	Notifier notifier.Notifier
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Notifier != nil {
		if err := s.Notifier.Close(); err != nil {
			logger.Warn("Failed to close notifier: %v", err)
		}
	}
	if s.Seen != nil {
		if err := s.Seen.Close(); err != nil {
			logger.Warn("Failed to close seen store: %v", err)
		}
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	// Without memcached, rate-limit blocks are kept in process only
	services.Cache = cache.NewMemoryCache()
	if cfg.MemcacheAddr != "" {
		memcache := cache.NewMemcacheService(cfg.MemcacheAddr, cfg.CacheNamespace)
		if err := memcache.Ping(); err != nil {
			logger.Warn("Memcache at %s unreachable, keeping rate-limit blocks in memory: %v", cfg.MemcacheAddr, err)
		} else {
			services.Cache = memcache
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	store, err := openSeenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	services.Seen = store
	logger.Info("Loaded %d seen listings from %s backend", store.Len(), cfg.SeenBackend)

	switch cfg.Notifier {
	case config.NotifierRedis:
		services.Notifier = notifier.NewRedisNotifier(cfg.RedisAddr, cfg.RedisDB, cfg.RedisPrefix, cfg.RedisStreamMaxLength)
		logger.Info("Using Redis notifier at %s (prefix: %s)", cfg.RedisAddr, cfg.RedisPrefix)
	default:
		services.Notifier = notifier.NewConsoleNotifier(notifier.ParseDestinations(cfg.NotifierDestinations))
		logger.Info("Using console notifier")
	}

	return services, nil
}

func openSeenStore(ctx context.Context, cfg *config.Config) (seen.Store, error) {
	switch cfg.SeenBackend {
	case config.SeenBackendRedis:
		return seen.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.SeenRedisKey)
	case config.SeenBackendPostgres:
		return seen.NewPostgresStore(ctx, cfg.PostgresDSN)
	case config.SeenBackendFile:
		return seen.NewFileStore(cfg.SeenPath)
	default:
		return nil, fmt.Errorf("unknown seen backend %q", cfg.SeenBackend)
	}
}
