package providers

import (
	"context"
	"log"
	"time"

	"github.com/dharmasatrya/flightgraph/internal/metrics"
	"github.com/dharmasatrya/flightgraph/internal/models"
	"github.com/dharmasatrya/flightgraph/internal/ratelimit"
)

type RetryConfig struct {
	Timeout     time.Duration
	MaxRetries  int
	RetryDelays []time.Duration
	RateLimiter *ratelimit.ProviderLimiter
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Timeout:    10 * time.Second,
		MaxRetries: 2,
		RetryDelays: []time.Duration{
			200 * time.Millisecond,
			500 * time.Millisecond,
			time.Second,
		},
	}
}

// RetryingProvider wraps a provider with a token bucket, a per-attempt
// timeout and bounded retries.
type RetryingProvider struct {
	provider Provider
	config   RetryConfig
}

func NewRetryingProvider(provider Provider, config RetryConfig) *RetryingProvider {
	return &RetryingProvider{
		provider: provider,
		config:   config,
	}
}

func (r *RetryingProvider) Name() string {
	return r.provider.Name()
}

func (r *RetryingProvider) Search(ctx context.Context, params models.ProviderSearchParams) (*models.ProviderResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if attempt > 0 && len(r.config.RetryDelays) > 0 {
			delayIdx := attempt - 1
			if delayIdx >= len(r.config.RetryDelays) {
				delayIdx = len(r.config.RetryDelays) - 1
			}

			select {
			case <-time.After(r.config.RetryDelays[delayIdx]):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if r.config.RateLimiter != nil && !r.config.RateLimiter.Allow(r.provider.Name()) {
			metrics.ProviderRequests.WithLabelValues(r.provider.Name(), "throttled").Inc()
			if err := r.config.RateLimiter.Wait(ctx, r.provider.Name()); err != nil {
				return nil, err
			}
		}

		resp, err := r.attempt(ctx, params)
		if err == nil {
			metrics.ProviderRequests.WithLabelValues(r.provider.Name(), "success").Inc()
			return resp, nil
		}

		metrics.ProviderRequests.WithLabelValues(r.provider.Name(), "error").Inc()
		lastErr = err
		log.Printf("Provider %s attempt %d failed: %v", r.provider.Name(), attempt+1, err)

		if !IsRetryable(err) {
			break
		}
	}

	return nil, lastErr
}

func (r *RetryingProvider) attempt(ctx context.Context, params models.ProviderSearchParams) (*models.ProviderResponse, error) {
	if r.config.Timeout <= 0 {
		return r.provider.Search(ctx, params)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()
	return r.provider.Search(attemptCtx, params)
}
