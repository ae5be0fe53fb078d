package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/dharmasatrya/flightgraph/internal/models"
)

type Provider interface {
	Name() string
	Search(ctx context.Context, params models.ProviderSearchParams) (*models.ProviderResponse, error)
}

type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func NewProviderError(provider string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Err:      err,
	}
}

// StatusError is a non-2xx answer from an HTTP provider.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Message)
}

// Retryable is false for client errors other than 429.
func (e *StatusError) Retryable() bool {
	return e.Code == 429 || e.Code >= 500
}

// IsRetryable reports whether another attempt could succeed.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return true
}
