// Package config assembles server settings from defaults, an optional YAML
// file named by FLIGHTGRAPH_CONFIG, and environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"

	ProviderStatic  = "static"
	ProviderSerpAPI = "serpapi"
)

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ProviderConfig struct {
	Name              string        `yaml:"name"`
	SerpAPIKey        string        `yaml:"serpapi_api_key"`
	SerpAPIBaseURL    string        `yaml:"serpapi_base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxRetries        int           `yaml:"max_retries"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	StaticRoutesPath  string        `yaml:"static_routes_path"`
	Currency          string        `yaml:"currency"`
	Language          string        `yaml:"language"`
	Country           string        `yaml:"country"`
}

type ExploreConfig struct {
	DefaultStayDays    int           `yaml:"default_stay_days"`
	MinStayDays        int           `yaml:"min_stay_days"`
	Timeout            time.Duration `yaml:"timeout"`
	LegConcurrency     int           `yaml:"leg_concurrency"`
	BulkCandidateFetch bool          `yaml:"bulk_candidate_fetch"`
}

type Config struct {
	Port              string         `yaml:"port"`
	StoreBackend      string         `yaml:"store_backend"`
	CacheBackend      string         `yaml:"cache_backend"`
	BudgetBackend     string         `yaml:"budget_backend"`
	DatabaseURL       string         `yaml:"database_url"`
	Redis             RedisConfig    `yaml:"redis"`
	CacheTTL          time.Duration  `yaml:"cache_ttl"`
	MaxRequestsPerDay int64          `yaml:"max_requests_per_day"`
	AirportsCSV       string         `yaml:"airports_csv"`
	Provider          ProviderConfig `yaml:"provider"`
	Explore           ExploreConfig  `yaml:"explore"`
}

func Default() *Config {
	return &Config{
		Port:          "8080",
		StoreBackend:  BackendMemory,
		CacheBackend:  BackendMemory,
		BudgetBackend: BackendMemory,
		Redis: RedisConfig{
			Host: "localhost",
			Port: "6379",
		},
		CacheTTL:          24 * time.Hour,
		MaxRequestsPerDay: 1000,
		AirportsCSV:       "data/airports.csv",
		Provider: ProviderConfig{
			Name:              ProviderStatic,
			SerpAPIBaseURL:    "https://serpapi.com",
			Timeout:           10 * time.Second,
			MaxRetries:        2,
			RequestsPerSecond: 5,
			Burst:             10,
			StaticRoutesPath:  "data/routes.json",
			Currency:          "USD",
			Language:          "en",
			Country:           "us",
		},
		Explore: ExploreConfig{
			DefaultStayDays: 1,
			MinStayDays:     1,
			Timeout:         10 * time.Minute,
			LegConcurrency:  4,
		},
	}
}

// Load returns the effective configuration. A missing FLIGHTGRAPH_CONFIG
// file is an error; an unset variable is not.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("FLIGHTGRAPH_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.StoreBackend = strings.ToLower(getEnv("STORE_BACKEND", c.StoreBackend))
	c.CacheBackend = strings.ToLower(getEnv("CACHE_BACKEND", c.CacheBackend))
	c.BudgetBackend = strings.ToLower(getEnv("BUDGET_BACKEND", c.BudgetBackend))
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)

	c.Redis.Host = getEnv("REDIS_HOST", c.Redis.Host)
	c.Redis.Port = getEnv("REDIS_PORT", c.Redis.Port)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)

	c.CacheTTL = getEnvDuration("CACHE_TTL", c.CacheTTL)
	c.MaxRequestsPerDay = int64(getEnvInt("MAX_REQUESTS_PER_DAY", int(c.MaxRequestsPerDay)))
	c.AirportsCSV = getEnv("AIRPORTS_CSV", c.AirportsCSV)

	p := &c.Provider
	p.Name = strings.ToLower(getEnv("PROVIDER", p.Name))
	p.SerpAPIKey = getEnv("SERPAPI_API_KEY", p.SerpAPIKey)
	p.SerpAPIBaseURL = getEnv("SERPAPI_BASE_URL", p.SerpAPIBaseURL)
	p.Timeout = getEnvDuration("PROVIDER_TIMEOUT", p.Timeout)
	p.MaxRetries = getEnvInt("PROVIDER_MAX_RETRIES", p.MaxRetries)
	p.RequestsPerSecond = getEnvFloat("PROVIDER_RPS", p.RequestsPerSecond)
	p.Burst = getEnvInt("PROVIDER_BURST", p.Burst)
	p.StaticRoutesPath = getEnv("STATIC_ROUTES_PATH", p.StaticRoutesPath)
	p.Currency = strings.ToUpper(getEnv("CURRENCY", p.Currency))
	p.Language = getEnv("LANGUAGE", p.Language)
	p.Country = getEnv("COUNTRY", p.Country)

	x := &c.Explore
	x.DefaultStayDays = getEnvInt("DEFAULT_STAY_DAYS", x.DefaultStayDays)
	x.MinStayDays = getEnvInt("MIN_STAY_DAYS", x.MinStayDays)
	x.Timeout = getEnvDuration("EXPLORE_TIMEOUT", x.Timeout)
	x.LegConcurrency = getEnvInt("LEG_CONCURRENCY", x.LegConcurrency)
	x.BulkCandidateFetch = getEnvBool("BULK_CANDIDATE_FETCH", x.BulkCandidateFetch)
}

var (
	ErrUnknownBackend  = errors.New("unknown backend")
	ErrUnknownProvider = errors.New("unknown provider")
	ErrMissingDSN      = errors.New("DATABASE_URL is required for postgres backends")
	ErrMissingAPIKey   = errors.New("SERPAPI_API_KEY is required for the serpapi provider")
)

func (c *Config) Validate() error {
	checks := []struct {
		name    string
		value   string
		allowed []string
	}{
		{"STORE_BACKEND", c.StoreBackend, []string{BackendMemory, BackendPostgres}},
		{"CACHE_BACKEND", c.CacheBackend, []string{BackendMemory, BackendRedis, BackendPostgres}},
		{"BUDGET_BACKEND", c.BudgetBackend, []string{BackendMemory, BackendRedis, BackendPostgres}},
	}
	for _, check := range checks {
		if !contains(check.allowed, check.value) {
			return fmt.Errorf("%w: %s=%q", ErrUnknownBackend, check.name, check.value)
		}
	}

	if c.UsesPostgres() && c.DatabaseURL == "" {
		return ErrMissingDSN
	}

	switch c.Provider.Name {
	case ProviderStatic:
	case ProviderSerpAPI:
		if c.Provider.SerpAPIKey == "" {
			return ErrMissingAPIKey
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider.Name)
	}
	return nil
}

func (c *Config) UsesPostgres() bool {
	return c.StoreBackend == BackendPostgres || c.CacheBackend == BackendPostgres || c.BudgetBackend == BackendPostgres
}

func (c *Config) UsesRedis() bool {
	return c.CacheBackend == BackendRedis || c.BudgetBackend == BackendRedis
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}
