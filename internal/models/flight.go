package models

import "time"

type Airport struct {
	IATA            string  `json:"iata"`
	Name            string  `json:"name"`
	City            string  `json:"city"`
	Country         string  `json:"country"`
	ImportanceScore float64 `json:"importance_score"`
	Longitude       float64 `json:"lon"`
	Latitude        float64 `json:"lat"`
}

// FlightEdge is one bookable route between two airports, quoted for Date.
// Edges only live for the duration of a single leg search.
type FlightEdge struct {
	ID       string  `json:"id"`
	From     string  `json:"from"`
	To       string  `json:"to"`
	Price    float64 `json:"price"`
	Duration int     `json:"duration"`
	Stops    int     `json:"stops"`
	Date     string  `json:"date"`
}

type RouteKey struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        string `json:"date"`
}

func (k RouteKey) String() string {
	return k.Origin + ":" + k.Destination + ":" + k.Date
}

// CachedResponse is a stored provider snapshot for one exact route key.
type CachedResponse struct {
	ID        string           `json:"id"`
	Key       RouteKey         `json:"key"`
	Response  ProviderResponse `json:"response"`
	CreatedAt time.Time        `json:"created_at"`
}

// Fresh reports whether the snapshot can still be served at now.
func (c CachedResponse) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(c.CreatedAt) < ttl
}
