package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ofertaglobal/dealfinder/config"
	"ofertaglobal/dealfinder/internal/deal"
	"ofertaglobal/dealfinder/internal/search"
	"ofertaglobal/dealfinder/internal/server"
	"ofertaglobal/dealfinder/internal/session"
	"ofertaglobal/dealfinder/logger"
	"ofertaglobal/dealfinder/services/cache"
	"ofertaglobal/dealfinder/services/publisher"
	"ofertaglobal/dealfinder/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Load configuration, then pick the log format for the environment
	cfg := config.LoadConfig()
	logger.Init(cfg.IsProduction())
	log := logger.Default

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("model", cfg.GeminiModel).
		Str("location", cfg.DefaultLocation).
		Str("session_policy", cfg.SessionPolicy).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	searcher, err := buildSearcher(ctx, cfg, services)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create search client")
	}

	store := session.NewStore(searcher, cfg.DefaultLocation, session.ParsePolicy(cfg.SessionPolicy)).
		WithLogger(logger.ForServer())

	srv, err := server.New(store, searcher, logger.ForServer())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	httpServer := &http.Server{
		Addr:        ":" + cfg.HTTPPort,
		Handler:     srv.Handler(cfg.CORSOrigins),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	serverDone := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("Server starting")
		serverDone <- httpServer.ListenAndServe()
	}()

	// Start the trending worker when enabled
	if cfg.TrendingInterval > 0 {
		w := worker.NewWorker(searcher, cfg.DefaultLocation, deal.Categories, cfg.TrendingInterval)
		go func() {
			log.Info().Dur("interval", cfg.TrendingInterval).Msg("Starting trending worker")
			if err := w.Start(ctx); err != nil {
				logger.LogError("worker", err, "Trending worker exited with error")
			}
		}()
	}

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
	case err := <-serverDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Server exited with error")
		}
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}

// Services holds the optional backing services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		if err := s.Publisher.Close(); err != nil {
			logger.LogError("publisher", err, "Failed to close publisher")
		}
	}
}

// initializeServices connects the services that have an address configured.
// An unreachable service is logged and left out rather than stopping the app.
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	if cfg.MemcacheAddr != "" {
		cacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := cacheService.Ping(); err != nil {
			logger.Warn("Memcache at %s unavailable, result cache disabled: %v", cfg.MemcacheAddr, err)
		} else {
			services.Cache = cacheService
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(); err != nil {
			redisPublisher.Close()
			logger.Warn("Redis at %s unavailable, deal feed disabled: %v", cfg.RedisAddr, err)
		} else {
			services.Publisher = redisPublisher
			logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
				cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		}
	}

	return services, nil
}

// buildSearcher stacks the search client with the feed publisher and the result cache.
// Cache hits are not republished.
func buildSearcher(ctx context.Context, cfg *config.Config, services *Services) (search.Searcher, error) {
	provider, err := search.NewGeminiProvider(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}

	opts := []search.Option{search.WithTimeout(cfg.SearchTimeout)}
	if cfg.EnrichImages {
		opts = append(opts, search.WithEnricher(search.NewImageEnricher(cfg.EnrichConcurrency)))
	}

	var searcher search.Searcher = search.NewClient(provider, cfg.GeminiModel, opts...)
	if services.Publisher != nil {
		searcher = search.NewPublishingSearcher(searcher, services.Publisher)
	}
	if services.Cache != nil {
		searcher = search.NewCachedSearcher(searcher, services.Cache, cfg.CacheTTL)
	}
	return searcher, nil
}
