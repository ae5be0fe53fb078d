package models

import "time"

type SearchStatus string

const (
	StatusSearching SearchStatus = "searching"
	StatusCompleted SearchStatus = "completed"
	StatusFailed    SearchStatus = "failed"
)

func (s SearchStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type FailureReason string

const (
	ReasonNone             FailureReason = ""
	ReasonNoRoute          FailureReason = "no_route"
	ReasonProviderError    FailureReason = "provider_error"
	ReasonBudgetExceeded   FailureReason = "budget_exceeded"
	ReasonMaxPriceExceeded FailureReason = "max_price_exceeded"
	ReasonTimeout          FailureReason = "timeout"
	ReasonInternal         FailureReason = "internal_error"
)

type Search struct {
	ID            string         `json:"id"`
	Origins       []string       `json:"origins"`
	Destinations  []string       `json:"destinations"`
	DepartureDate string         `json:"departure_date"`
	LayoverDays   []int          `json:"layover_days,omitempty"`
	Criteria      SearchCriteria `json:"criteria"`
	Status        SearchStatus   `json:"status"`
	FailureReason FailureReason  `json:"failure_reason,omitempty"`
	Itineraries   []Itinerary    `json:"itineraries,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func NewSearch(id string, req SearchRequest, now time.Time) *Search {
	return &Search{
		ID:            id,
		Origins:       req.Origins,
		Destinations:  req.Destinations,
		DepartureDate: req.DepartureDate,
		LayoverDays:   req.LayoverDays,
		Criteria:      req.Criteria,
		Status:        StatusSearching,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (s *Search) Request() SearchRequest {
	return SearchRequest{
		Origins:       s.Origins,
		Destinations:  s.Destinations,
		DepartureDate: s.DepartureDate,
		LayoverDays:   s.LayoverDays,
		Criteria:      s.Criteria,
	}
}

// Leg is one booked flight edge of an itinerary. Order is 1-based.
type Leg struct {
	Order       int     `json:"order"`
	FlightID    string  `json:"flight_id"`
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	Price       float64 `json:"price"`
	Duration    int     `json:"duration"`
	Stops       int     `json:"stops"`
	Date        string  `json:"date"`
}

type Itinerary struct {
	ID            string    `json:"id"`
	SearchID      string    `json:"search_id"`
	Score         float64   `json:"score"`
	TotalPrice    float64   `json:"total_price"`
	TotalDuration int       `json:"total_duration"`
	Currency      string    `json:"currency"`
	CityOrder     []string  `json:"city_order"`
	Legs          []Leg     `json:"legs"`
	CreatedAt     time.Time `json:"created_at"`
}

func (it Itinerary) TotalStops() int {
	stops := 0
	for _, leg := range it.Legs {
		stops += leg.Stops
	}
	return stops
}
