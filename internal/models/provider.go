package models

import "errors"

// ProviderSearchParams is one query to the flight-data provider. More than one
// departure or arrival airport makes it a bulk query.
type ProviderSearchParams struct {
	DepartureIDs []string
	ArrivalIDs   []string
	OutboundDate string
	Currency     string
	Language     string
	Country      string
}

func (p ProviderSearchParams) IsBulk() bool {
	return len(p.DepartureIDs) > 1 || len(p.ArrivalIDs) > 1
}

type ProviderAirport struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Time string `json:"time"`
}

type FlightSegment struct {
	DepartureAirport ProviderAirport `json:"departure_airport"`
	ArrivalAirport   ProviderAirport `json:"arrival_airport"`
	Duration         int             `json:"duration"`
	Airplane         string          `json:"airplane,omitempty"`
	Airline          string          `json:"airline,omitempty"`
	TravelClass      string          `json:"travel_class,omitempty"`
	FlightNumber     string          `json:"flight_number,omitempty"`
	Overnight        bool            `json:"overnight,omitempty"`
	OftenDelayed     bool            `json:"often_delayed_by_30_min,omitempty"`
}

type Layover struct {
	Duration  int    `json:"duration"`
	Name      string `json:"name"`
	ID        string `json:"id"`
	Overnight bool   `json:"overnight,omitempty"`
}

type CarbonEmissions struct {
	ThisFlight        int `json:"this_flight"`
	TypicalForRoute   int `json:"typical_for_this_route"`
	DifferencePercent int `json:"difference_percent"`
}

// FlightRoute is one bookable option as returned by the provider. Price is a
// pointer because the provider omits it for routes it cannot price.
type FlightRoute struct {
	Flights         []FlightSegment  `json:"flights"`
	Layovers        []Layover        `json:"layovers,omitempty"`
	TotalDuration   int              `json:"total_duration"`
	CarbonEmissions *CarbonEmissions `json:"carbon_emissions,omitempty"`
	Price           *float64         `json:"price,omitempty"`
	Type            string           `json:"type,omitempty"`
	DepartureToken  string           `json:"departure_token,omitempty"`
	BookingToken    string           `json:"booking_token,omitempty"`
}

var (
	ErrRouteNoSegments   = errors.New("route has no flight segments")
	ErrRouteNoPrice      = errors.New("route has no price")
	ErrRouteNegative     = errors.New("route has negative price or duration")
	ErrRouteSameEndpoint = errors.New("route starts and ends at the same airport")
)

func (r FlightRoute) Origin() string {
	if len(r.Flights) == 0 {
		return ""
	}
	return r.Flights[0].DepartureAirport.ID
}

func (r FlightRoute) Destination() string {
	if len(r.Flights) == 0 {
		return ""
	}
	return r.Flights[len(r.Flights)-1].ArrivalAirport.ID
}

// Stops counts the connections inside this single booked route.
func (r FlightRoute) Stops() int {
	if r.Layovers != nil {
		return len(r.Layovers)
	}
	if len(r.Flights) > 0 {
		return len(r.Flights) - 1
	}
	return 0
}

func (r FlightRoute) Validate() error {
	if len(r.Flights) == 0 {
		return ErrRouteNoSegments
	}
	if r.Price == nil {
		return ErrRouteNoPrice
	}
	if *r.Price < 0 || r.TotalDuration < 0 {
		return ErrRouteNegative
	}
	if r.Origin() == r.Destination() {
		return ErrRouteSameEndpoint
	}
	return nil
}

type PriceInsights struct {
	LowestPrice       float64     `json:"lowest_price"`
	PriceLevel        string      `json:"price_level"`
	TypicalPriceRange []float64   `json:"typical_price_range,omitempty"`
	PriceHistory      [][]float64 `json:"price_history,omitempty"`
}

type SearchMetadata struct {
	ID             string  `json:"id"`
	Status         string  `json:"status"`
	CreatedAt      string  `json:"created_at,omitempty"`
	ProcessedAt    string  `json:"processed_at,omitempty"`
	TotalTimeTaken float64 `json:"total_time_taken,omitempty"`
}

// SearchParameters echoes the query; departure_id and arrival_id are
// comma-separated for bulk queries.
type SearchParameters struct {
	DepartureID  string `json:"departure_id"`
	ArrivalID    string `json:"arrival_id"`
	OutboundDate string `json:"outbound_date"`
	Currency     string `json:"currency,omitempty"`
	Language     string `json:"hl,omitempty"`
	Country      string `json:"gl,omitempty"`
}

type ProviderResponse struct {
	Metadata      SearchMetadata   `json:"search_metadata"`
	Parameters    SearchParameters `json:"search_parameters"`
	BestFlights   []FlightRoute    `json:"best_flights"`
	OtherFlights  []FlightRoute    `json:"other_flights,omitempty"`
	PriceInsights *PriceInsights   `json:"price_insights,omitempty"`
	Error         string           `json:"error,omitempty"`
}

// Routes returns best flights followed by the other flights.
func (r ProviderResponse) Routes() []FlightRoute {
	routes := make([]FlightRoute, 0, len(r.BestFlights)+len(r.OtherFlights))
	routes = append(routes, r.BestFlights...)
	routes = append(routes, r.OtherFlights...)
	return routes
}
