// Package main is the entry point for the flatrank API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/onnwee/flatrank/internal/api"
	"github.com/onnwee/flatrank/internal/auth"
	"github.com/onnwee/flatrank/internal/config"
	"github.com/onnwee/flatrank/internal/db"
	"github.com/onnwee/flatrank/internal/group"
	"github.com/onnwee/flatrank/internal/health"
	"github.com/onnwee/flatrank/internal/listing"
	"github.com/onnwee/flatrank/internal/middleware"
	"github.com/onnwee/flatrank/internal/rank"
)

func main() {
	configPath := flag.String("config", "", "path to optional YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("Flatrank API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	env := config.DefaultEnv
	if cfg != nil {
		env = cfg.Env
	}
	logger := middleware.NewLogger(env)
	slog.SetDefault(logger)

	if len(errs) > 0 {
		for _, err := range errs {
			logger.Error("configuration error", "error", err)
		}
		os.Exit(1)
	}
	logger.Info("configuration loaded", "summary", cfg.LogSummary())

	ctx := context.Background()

	// Storage: PostgreSQL when configured, in-memory otherwise. Validation
	// already requires a database outside development.
	var (
		rankStore   rank.Store
		listingRepo listing.Repository
		groupRepo   group.Repository
		dbChecker   api.HealthChecker
	)
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		defer conn.Close()

		rankStore = rank.NewPostgresStore(conn, logger)
		listingRepo = listing.NewPostgresRepository(conn, logger)
		groupRepo = group.NewPostgresRepository(conn, logger)
		dbChecker = health.NewDBChecker(conn)
	} else {
		logger.Warn("no DATABASE_URL configured, using in-memory storage")
		rankStore = rank.NewMemoryStore()
		listingRepo = listing.NewInMemoryRepository()
		groupRepo = group.NewInMemoryRepository()
	}

	// Redis backs the rankings cache and rate limiting when available.
	var (
		redisClient    *redis.Client
		rankingsCache  *rank.RankingsCache
		redisChecker   api.HealthChecker
		rateLimitStore middleware.RateLimitStore = middleware.NewInMemoryRateLimitStore()
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()

		rankingsCache = rank.NewRankingsCache(redisClient, cfg.RankingsCacheTTL, logger)
		redisChecker = health.NewRedisChecker(redisClient)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	rankMetrics := rank.NewMetrics()
	if err := rankMetrics.Register(registry); err != nil {
		logger.Error("failed to register ranking metrics", "error", err)
		os.Exit(1)
	}
	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(registry); err != nil {
		logger.Error("failed to register http metrics", "error", err)
		os.Exit(1)
	}
	if cfg.RedisURL != "" {
		rateLimitStore = middleware.NewRedisRateLimitStore(redisClient).WithMetrics(httpMetrics)
	}

	// Ranking engine
	locks := rank.NewUserLocks()
	recorder := rank.NewRecorder(rankStore, listingRepo, locks, rankingsCache, rankMetrics, logger)
	selector := rank.NewSelector(rankStore, listingRepo, locks, rankMetrics, logger)
	aggregator := rank.NewAggregator(rankStore, listingRepo, groupRepo, rankingsCache, logger)

	// Domain services
	groupSvc := group.NewService(groupRepo, logger)
	listingSvc := listing.NewService(listingRepo, groupRepo, rankStore, rankingsCache, logger)

	jwtService := auth.NewJWTService(cfg.JWTSecret)

	mux := api.NewRouter(api.RouterConfig{
		Compare:          api.NewCompareHandlers(recorder, selector, rankStore, listingRepo),
		Groups:           api.NewGroupHandlers(groupSvc),
		Listings:         api.NewListingHandlers(listingSvc),
		Rankings:         api.NewRankingHandlers(aggregator, groupRepo),
		Health:           api.NewHealthHandlers(api.HealthHandlersConfig{DBChecker: dbChecker, RedisChecker: redisChecker}),
		RequireAuth:      middleware.RequireAuth(jwtService),
		CompareRateLimit: middleware.RateLimiter(rateLimitStore, middleware.DefaultCompareLimit(), middleware.UserKeyFunc(), httpMetrics),
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Middleware chain, outermost first
	handler := middleware.RequestID(
		middleware.Logging(logger)(
			middleware.HTTPMetrics(httpMetrics)(
				middleware.CORS(middleware.CORSConfig{
					AllowedOrigins:   cfg.CORSOrigins,
					AllowCredentials: true,
					MaxAge:           300,
				})(
					middleware.RateLimiter(rateLimitStore, middleware.DefaultGlobalLimit(), middleware.IPKeyFunc(), httpMetrics)(
						mux,
					),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
