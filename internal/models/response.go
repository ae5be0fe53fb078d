package models

type ItineraryResponse struct {
	Itinerary
	FormattedTotalPrice string `json:"formatted_total_price"`
}

type SearchResponse struct {
	ID            string              `json:"id"`
	Origins       []string            `json:"origins"`
	Destinations  []string            `json:"destinations"`
	DepartureDate string              `json:"departure_date"`
	LayoverDays   []int               `json:"layover_days,omitempty"`
	Criteria      SearchCriteria      `json:"criteria"`
	Status        SearchStatus        `json:"status"`
	FailureReason FailureReason       `json:"failure_reason,omitempty"`
	Itineraries   []ItineraryResponse `json:"itineraries,omitempty"`
	CreatedAt     string              `json:"created_at"`
	UpdatedAt     string              `json:"updated_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
