package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/dharmasatrya/flightgraph/internal/aggregator"
	"github.com/dharmasatrya/flightgraph/internal/airports"
	"github.com/dharmasatrya/flightgraph/internal/budget"
	"github.com/dharmasatrya/flightgraph/internal/cache"
	"github.com/dharmasatrya/flightgraph/internal/config"
	"github.com/dharmasatrya/flightgraph/internal/explorer"
	"github.com/dharmasatrya/flightgraph/internal/handler"
	"github.com/dharmasatrya/flightgraph/internal/layover"
	"github.com/dharmasatrya/flightgraph/internal/providers"
	"github.com/dharmasatrya/flightgraph/internal/ratelimit"
	"github.com/dharmasatrya/flightgraph/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if cfg.UsesPostgres() {
		pool, err = store.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer pool.Close()
		if err := store.Migrate(ctx, pool); err != nil {
			log.Fatalf("Failed to migrate schema: %v", err)
		}
		log.Println("Postgres connected and migrated")
	}

	var redisClient *redis.Client
	if cfg.UsesRedis() {
		redisClient, err = cache.NewRedisClient(redisConfig(cfg))
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Printf("Redis connected (host: %s:%s)", cfg.Redis.Host, cfg.Redis.Port)
	}

	provider, err := initializeProvider(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize provider: %v", err)
	}

	rateLimiter := ratelimit.NewProviderLimiter(ratelimit.DefaultConfig())
	rateLimiter.SetProviderLimit(provider.Name(), cfg.Provider.RequestsPerSecond, cfg.Provider.Burst)
	retryConfig := providers.DefaultRetryConfig()
	retryConfig.Timeout = cfg.Provider.Timeout
	retryConfig.MaxRetries = cfg.Provider.MaxRetries
	retryConfig.RateLimiter = rateLimiter
	provider = providers.NewRetryingProvider(provider, retryConfig)

	guard := budget.NewGuard(budgetCounter(cfg, pool, redisClient), cfg.MaxRequestsPerDay)
	log.Printf("Provider %s, budget %d requests/day", provider.Name(), guard.Limit())

	flightCache := cache.NewFlightCache(responseStore(cfg, pool, redisClient), provider, guard, cache.Config{
		TTL:      cfg.CacheTTL,
		Currency: cfg.Provider.Currency,
		Language: cfg.Provider.Language,
		Country:  cfg.Provider.Country,
	})

	directory, err := airportDirectory(ctx, cfg, pool)
	if err != nil {
		log.Fatalf("Failed to load airports: %v", err)
	}

	agg := aggregator.NewAggregator(flightCache, aggregator.Config{
		Concurrency:    cfg.Explore.LegConcurrency,
		BulkCandidates: cfg.Explore.BulkCandidateFetch,
	})
	selector := layover.NewSelector(directory, layover.DefaultConfig())

	var searches store.SearchStore = store.NewMemoryStore()
	if cfg.StoreBackend == config.BackendPostgres {
		searches = store.NewPostgresStore(pool)
	}

	exploreConfig := explorer.DefaultConfig()
	exploreConfig.DefaultStayDays = cfg.Explore.DefaultStayDays
	exploreConfig.MinStayDays = cfg.Explore.MinStayDays
	exploreConfig.Timeout = cfg.Explore.Timeout
	exploreConfig.Currency = cfg.Provider.Currency
	exp := explorer.New(searches, selector, agg, exploreConfig)
	// Explorations outlive the request that started them but not the process.
	exploreCtx, cancelExplorations := context.WithCancel(context.Background())
	defer cancelExplorations()
	service := explorer.NewService(exploreCtx, searches, exp)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(handler.Metrics)

	searchHandler := handler.NewSearchHandler(service)

	api := e.Group("/api/v1")
	api.POST("/searches", searchHandler.Create)
	api.GET("/searches/:id", searchHandler.Get)
	e.GET("/health", handler.HealthHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	go func() {
		log.Printf("Starting flightgraph server on port %s", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	if err := service.Wait(shutdownCtx); err != nil {
		log.Printf("Explorations still running at shutdown, cancelling: %v", err)
		cancelExplorations()
		_ = service.Wait(context.Background())
	}
}

func redisConfig(cfg *config.Config) cache.RedisConfig {
	rc := cache.DefaultRedisConfig()
	rc.Host = cfg.Redis.Host
	rc.Port = cfg.Redis.Port
	rc.Password = cfg.Redis.Password
	rc.DB = cfg.Redis.DB
	return rc
}

func initializeProvider(cfg *config.Config) (providers.Provider, error) {
	if cfg.Provider.Name == config.ProviderSerpAPI {
		return providers.NewSerpAPIProvider(providers.SerpAPIConfig{
			APIKey:  cfg.Provider.SerpAPIKey,
			BaseURL: cfg.Provider.SerpAPIBaseURL,
			Timeout: cfg.Provider.Timeout,
		})
	}

	static, err := providers.LoadStaticProvider(cfg.Provider.StaticRoutesPath)
	if err != nil {
		return nil, err
	}
	return static.WithLatency(50 * time.Millisecond), nil
}

func budgetCounter(cfg *config.Config, pool *pgxpool.Pool, client *redis.Client) budget.Counter {
	switch cfg.BudgetBackend {
	case config.BackendRedis:
		return budget.NewRedisCounter(client)
	case config.BackendPostgres:
		return budget.NewPostgresCounter(pool)
	default:
		return budget.NewMemoryCounter()
	}
}

func responseStore(cfg *config.Config, pool *pgxpool.Pool, client *redis.Client) cache.ResponseStore {
	switch cfg.CacheBackend {
	case config.BackendRedis:
		return cache.NewRedisStore(client, redisConfig(cfg))
	case config.BackendPostgres:
		return cache.NewPostgresStore(pool)
	default:
		return cache.NewMemoryStore()
	}
}

// airportDirectory prefers the airports table when Postgres is configured,
// seeding it from the CSV the first time.
func airportDirectory(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (layover.AirportLookup, error) {
	if pool == nil {
		list, err := airports.LoadCSVFile(cfg.AirportsCSV)
		if err != nil {
			return nil, err
		}
		log.Printf("Loaded %d airports from %s", len(list), cfg.AirportsCSV)
		return airports.NewMemoryDirectory(list), nil
	}

	directory := airports.NewPostgresDirectory(pool)
	count, err := directory.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		list, err := airports.LoadCSVFile(cfg.AirportsCSV)
		if err != nil {
			return nil, err
		}
		if err := directory.Upsert(ctx, list); err != nil {
			return nil, err
		}
		log.Printf("Seeded %d airports from %s", len(list), cfg.AirportsCSV)
	}
	return directory, nil
}
