package models

import (
	"regexp"
	"strings"
	"time"
)

type Priority string

const (
	PriorityCheap    Priority = "cheap"
	PriorityFast     Priority = "fast"
	PriorityBalanced Priority = "balanced"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityCheap, PriorityFast, PriorityBalanced:
		return true
	}
	return false
}

type SearchCriteria struct {
	Priority Priority `json:"priority"`
	MaxPrice *float64 `json:"max_price,omitempty"`
}

// SearchRequest describes a multi-city chain [origin, destinations...].
// LayoverDays[i] is the stay in Destinations[i] before the next leg.
type SearchRequest struct {
	Origins       []string       `json:"origins"`
	Destinations  []string       `json:"destinations"`
	DepartureDate string         `json:"departure_date"`
	LayoverDays   []int          `json:"layover_days,omitempty"`
	Criteria      SearchCriteria `json:"criteria"`
}

var iataPattern = regexp.MustCompile(`^[A-Z]{3}$`)

func (r *SearchRequest) Validate() error {
	if len(r.Origins) == 0 {
		return ErrMissingOrigin
	}
	if len(r.Destinations) == 0 {
		return ErrMissingDestination
	}
	if r.DepartureDate == "" {
		return ErrMissingDepartureDate
	}
	if _, err := time.Parse("2006-01-02", r.DepartureDate); err != nil {
		return ErrInvalidDepartureDate
	}

	for i, code := range r.Origins {
		code = strings.ToUpper(strings.TrimSpace(code))
		if !iataPattern.MatchString(code) {
			return ErrInvalidAirportCode
		}
		r.Origins[i] = code
	}
	for i, code := range r.Destinations {
		code = strings.ToUpper(strings.TrimSpace(code))
		if !iataPattern.MatchString(code) {
			return ErrInvalidAirportCode
		}
		r.Destinations[i] = code
	}

	for _, origin := range r.Origins {
		if origin == r.Destinations[0] {
			return ErrRepeatedCity
		}
	}
	for i := 1; i < len(r.Destinations); i++ {
		if r.Destinations[i] == r.Destinations[i-1] {
			return ErrRepeatedCity
		}
	}

	for _, days := range r.LayoverDays {
		if days < 0 {
			return ErrInvalidLayoverDays
		}
	}

	if r.Criteria.Priority == "" {
		r.Criteria.Priority = PriorityBalanced
	}
	if !r.Criteria.Priority.Valid() {
		return ErrInvalidPriority
	}
	if r.Criteria.MaxPrice != nil && *r.Criteria.MaxPrice < 0 {
		return ErrInvalidMaxPrice
	}
	return nil
}

// CitySequence is the chain walked by the explorer, starting at origin.
func (r SearchRequest) CitySequence(origin string) []string {
	cities := make([]string, 0, len(r.Destinations)+1)
	cities = append(cities, origin)
	return append(cities, r.Destinations...)
}

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrMissingOrigin        ValidationError = "origins is required"
	ErrMissingDestination   ValidationError = "destinations is required"
	ErrMissingDepartureDate ValidationError = "departure_date is required"
	ErrInvalidDepartureDate ValidationError = "departure_date must be YYYY-MM-DD"
	ErrInvalidAirportCode   ValidationError = "airport codes must be 3-letter IATA codes"
	ErrRepeatedCity         ValidationError = "consecutive cities must differ"
	ErrInvalidLayoverDays   ValidationError = "layover_days must not be negative"
	ErrInvalidPriority      ValidationError = "criteria.priority must be cheap, fast or balanced"
	ErrInvalidMaxPrice      ValidationError = "criteria.max_price must not be negative"
)
