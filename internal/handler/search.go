package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/flightgraph/internal/metrics"
	"github.com/dharmasatrya/flightgraph/internal/models"
	"github.com/dharmasatrya/flightgraph/internal/store"
	"github.com/dharmasatrya/flightgraph/pkg/currency"
)

// SearchService is satisfied by explorer.Service.
type SearchService interface {
	CreateSearch(ctx context.Context, req models.SearchRequest) (*models.Search, error)
	GetSearch(ctx context.Context, id string) (*models.Search, error)
}

type SearchHandler struct {
	service SearchService
}

func NewSearchHandler(service SearchService) *SearchHandler {
	return &SearchHandler{
		service: service,
	}
}

func (h *SearchHandler) Create(c echo.Context) error {
	var req models.SearchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	search, err := h.service.CreateSearch(c.Request().Context(), req)
	if err != nil {
		var validationErr models.ValidationError
		if errors.As(err, &validationErr) {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "validation_error",
				Message: validationErr.Error(),
				Code:    http.StatusBadRequest,
			})
		}
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "search_error",
			Message: "Failed to create search: " + err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}

	return c.JSON(http.StatusCreated, buildSearchResponse(search))
}

func (h *SearchHandler) Get(c echo.Context) error {
	search, err := h.service.GetSearch(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Search " + c.Param("id") + " does not exist",
			Code:    http.StatusNotFound,
		})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "search_error",
			Message: "Failed to load search: " + err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}

	return c.JSON(http.StatusOK, buildSearchResponse(search))
}

func buildSearchResponse(s *models.Search) models.SearchResponse {
	resp := models.SearchResponse{
		ID:            s.ID,
		Origins:       s.Origins,
		Destinations:  s.Destinations,
		DepartureDate: s.DepartureDate,
		LayoverDays:   s.LayoverDays,
		Criteria:      s.Criteria,
		Status:        s.Status,
		FailureReason: s.FailureReason,
		CreatedAt:     s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     s.UpdatedAt.UTC().Format(time.RFC3339),
	}
	for _, it := range s.Itineraries {
		resp.Itineraries = append(resp.Itineraries, models.ItineraryResponse{
			Itinerary:           it,
			FormattedTotalPrice: currency.Format(it.TotalPrice, it.Currency),
		})
	}
	return resp
}

// Metrics records request counts and latency per route template.
func Metrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		endpoint := c.Path()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		method := c.Request().Method
		metrics.HTTPRequests.WithLabelValues(method, endpoint, strconv.Itoa(c.Response().Status)).Inc()
		metrics.HTTPDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
		return nil
	}
}

func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
