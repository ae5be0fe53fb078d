package explorer

import (
	"context"
	"errors"
	"fmt"

	"github.com/dharmasatrya/flightgraph/internal/budget"
	"github.com/dharmasatrya/flightgraph/internal/models"
	"github.com/dharmasatrya/flightgraph/internal/providers"
)

var ErrMaxPriceExceeded = errors.New("itinerary exceeds max price")

// NoRouteError means leg Leg had no path from From to To after filtering.
type NoRouteError struct {
	Leg  int
	From string
	To   string
	Date string
}

func (e *NoRouteError) Error() string {
	return fmt.Sprintf("no route for leg %d %s-%s on %s", e.Leg, e.From, e.To, e.Date)
}

// Classify maps an exploration error onto the reason stored with the failed
// search.
func Classify(err error) models.FailureReason {
	var (
		noRoute *NoRouteError
		provErr *providers.ProviderError
		status  *providers.StatusError
	)

	switch {
	case err == nil:
		return models.ReasonNone
	case errors.Is(err, budget.ErrBudgetExceeded):
		return models.ReasonBudgetExceeded
	case errors.As(err, &noRoute):
		return models.ReasonNoRoute
	case errors.Is(err, ErrMaxPriceExceeded):
		return models.ReasonMaxPriceExceeded
	case errors.Is(err, context.DeadlineExceeded):
		return models.ReasonTimeout
	case errors.As(err, &provErr), errors.As(err, &status):
		return models.ReasonProviderError
	default:
		return models.ReasonInternal
	}
}
