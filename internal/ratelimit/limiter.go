// Package ratelimit keeps one token bucket per outbound provider.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

type Config struct {
	RequestsPerSecond float64
	BurstSize         int
}

func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 5,
		BurstSize:         10,
	}
}

type ProviderLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	defaults Config
}

func NewProviderLimiter(config Config) *ProviderLimiter {
	return &ProviderLimiter{
		limiters: make(map[string]*rate.Limiter),
		defaults: normalize(config),
	}
}

// normalize treats a non-positive rate as unlimited.
func normalize(config Config) Config {
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = float64(rate.Inf)
	}
	if config.BurstSize <= 0 {
		config.BurstSize = 1
	}
	return config
}

func (p *ProviderLimiter) limiter(provider string) *rate.Limiter {
	p.mu.RLock()
	l, ok := p.limiters[provider]
	p.mu.RUnlock()
	if ok {
		return l
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok = p.limiters[provider]; ok {
		return l
	}
	l = rate.NewLimiter(rate.Limit(p.defaults.RequestsPerSecond), p.defaults.BurstSize)
	p.limiters[provider] = l
	return l
}

// SetProviderLimit overrides the default bucket for one provider.
func (p *ProviderLimiter) SetProviderLimit(provider string, rps float64, burst int) {
	config := normalize(Config{RequestsPerSecond: rps, BurstSize: burst})

	p.mu.Lock()
	defer p.mu.Unlock()
	p.limiters[provider] = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.BurstSize)
}

func (p *ProviderLimiter) Wait(ctx context.Context, provider string) error {
	return p.limiter(provider).Wait(ctx)
}

// Allow takes a token without waiting.
func (p *ProviderLimiter) Allow(provider string) bool {
	return p.limiter(provider).Allow()
}
