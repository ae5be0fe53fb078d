package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/flightgraph/internal/metrics"
	"github.com/dharmasatrya/flightgraph/internal/models"
	"github.com/dharmasatrya/flightgraph/internal/ratelimit"
)

const serpBody = `{
	"search_metadata": {"id": "abc", "status": "Success"},
	"search_parameters": {"departure_id": "MAD", "arrival_id": "BCN", "outbound_date": "2026-03-10", "currency": "USD", "hl": "en", "gl": "us"},
	"best_flights": [{
		"flights": [{
			"departure_airport": {"name": "Madrid", "id": "MAD", "time": "2026-03-10 08:00"},
			"arrival_airport": {"name": "Barcelona", "id": "BCN", "time": "2026-03-10 09:10"},
			"duration": 70, "airline": "Iberia", "flight_number": "IB 1234"
		}],
		"total_duration": 70,
		"price": 50,
		"type": "One way",
		"booking_token": "tok-1"
	}],
	"other_flights": [],
	"price_insights": {"lowest_price": 50, "price_level": "low", "typical_price_range": [45, 90]}
}`

func params() models.ProviderSearchParams {
	return models.ProviderSearchParams{
		DepartureIDs: []string{"MAD"},
		ArrivalIDs:   []string{"BCN"},
		OutboundDate: "2026-03-10",
		Currency:     "USD",
		Language:     "en",
		Country:      "us",
	}
}

func TestSerpAPIProvider_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "google_flights", q.Get("engine"))
		assert.Equal(t, "secret", q.Get("api_key"))
		assert.Equal(t, "2", q.Get("type"))
		assert.Equal(t, "MAD", q.Get("departure_id"))
		assert.Equal(t, "BCN", q.Get("arrival_id"))
		assert.Equal(t, "2026-03-10", q.Get("outbound_date"))
		assert.Equal(t, "USD", q.Get("currency"))
		assert.Equal(t, "en", q.Get("hl"))
		assert.Equal(t, "us", q.Get("gl"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(serpBody))
	}))
	defer srv.Close()

	p, err := NewSerpAPIProvider(SerpAPIConfig{APIKey: "secret", BaseURL: srv.URL + "/", Timeout: time.Second})
	require.NoError(t, err)

	resp, err := p.Search(context.Background(), params())
	require.NoError(t, err)

	routes := resp.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, "MAD", routes[0].Origin())
	assert.Equal(t, "BCN", routes[0].Destination())
	require.NotNil(t, routes[0].Price)
	assert.Equal(t, 50.0, *routes[0].Price)
	require.NotNil(t, resp.PriceInsights)
	assert.Equal(t, "low", resp.PriceInsights.PriceLevel)
}

func TestSerpAPIProvider_BulkJoinsCodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "MAD,VLC", r.URL.Query().Get("departure_id"))
		assert.Equal(t, "BCN,ZAZ", r.URL.Query().Get("arrival_id"))
		_, _ = w.Write([]byte(`{"best_flights": []}`))
	}))
	defer srv.Close()

	p, err := NewSerpAPIProvider(SerpAPIConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	q := params()
	q.DepartureIDs = []string{"MAD", "VLC"}
	q.ArrivalIDs = []string{"BCN", "ZAZ"}
	_, err = p.Search(context.Background(), q)
	require.NoError(t, err)
}

func TestSerpAPIProvider_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCode  int
		retryable bool
		noError   bool
	}{
		{name: "unauthorized", status: 401, body: `{"error": "Invalid API key."}`, wantCode: 401},
		{name: "rate limited", status: 429, body: `{}`, wantCode: 429, retryable: true},
		{name: "server error", status: 502, body: `bad gateway`, wantCode: 502, retryable: true},
		{name: "error in body", status: 200, body: `{"error": "Unsupported departure_id"}`, retryable: true},
		{name: "no results", status: 200, body: `{"error": "Google Flights hasn't returned any results for this query."}`, noError: true},
		{name: "garbage", status: 200, body: `{`, retryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p, err := NewSerpAPIProvider(SerpAPIConfig{APIKey: "k", BaseURL: srv.URL})
			require.NoError(t, err)

			resp, err := p.Search(context.Background(), params())
			if tt.noError {
				require.NoError(t, err)
				assert.Empty(t, resp.Routes())
				return
			}
			require.Error(t, err)

			var provErr *ProviderError
			require.True(t, errors.As(err, &provErr))
			assert.Equal(t, "serpapi", provErr.Provider)

			if tt.wantCode != 0 {
				var statusErr *StatusError
				require.True(t, errors.As(err, &statusErr))
				assert.Equal(t, tt.wantCode, statusErr.Code)
			}
			assert.Equal(t, tt.retryable, IsRetryable(err))
		})
	}
}

func TestNewSerpAPIProvider_RequiresKey(t *testing.T) {
	_, err := NewSerpAPIProvider(DefaultSerpAPIConfig())
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func price(v float64) *float64 { return &v }

func dailyRoute(from, to, token string, p float64, minutes int) models.FlightRoute {
	return models.FlightRoute{
		Flights: []models.FlightSegment{{
			DepartureAirport: models.ProviderAirport{ID: from, Time: "08:00"},
			ArrivalAirport:   models.ProviderAirport{ID: to, Time: "10:00"},
			Duration:         minutes,
		}},
		TotalDuration: minutes,
		Price:         price(p),
		BookingToken:  token,
	}
}

func TestStaticProvider_StampsDailySchedules(t *testing.T) {
	dated := dailyRoute("MAD", "BCN", "dated", 80, 70)
	dated.Flights[0].DepartureAirport.Time = "2026-03-12 07:00"

	p := NewStaticProvider([]models.FlightRoute{
		dailyRoute("MAD", "BCN", "ib", 50, 70),
		dailyRoute("MAD", "LIS", "tp", 40, 80),
		dated,
	})

	resp, err := p.Search(context.Background(), params())
	require.NoError(t, err)

	routes := resp.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, "2026-03-10 08:00", routes[0].Flights[0].DepartureAirport.Time)
	assert.Equal(t, "ib-2026-03-10", routes[0].BookingToken)
	assert.Equal(t, "MAD", resp.Parameters.DepartureID)

	q := params()
	q.OutboundDate = "2026-03-12"
	resp, err = p.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, resp.Routes(), 2)
}

func TestLoadStaticProvider_Fixture(t *testing.T) {
	p, err := LoadStaticProvider("../../data/routes.json")
	require.NoError(t, err)

	resp, err := p.Search(context.Background(), params())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Routes())
}

type flakyProvider struct {
	calls    atomic.Int32
	failures int32
	err      error
}

func (f *flakyProvider) Name() string { return "flaky" }

func (f *flakyProvider) Search(ctx context.Context, _ models.ProviderSearchParams) (*models.ProviderResponse, error) {
	if f.calls.Add(1) <= f.failures {
		return nil, f.err
	}
	return &models.ProviderResponse{}, nil
}

func fastRetry() RetryConfig {
	return RetryConfig{
		Timeout:     time.Second,
		MaxRetries:  2,
		RetryDelays: []time.Duration{time.Millisecond},
		RateLimiter: ratelimit.NewProviderLimiter(ratelimit.Config{RequestsPerSecond: 1000, BurstSize: 10}),
	}
}

func TestRetryingProvider_RetriesTransientErrors(t *testing.T) {
	inner := &flakyProvider{failures: 2, err: errors.New("connection reset")}
	p := NewRetryingProvider(inner, fastRetry())

	_, err := p.Search(context.Background(), params())
	require.NoError(t, err)
	assert.Equal(t, int32(3), inner.calls.Load())
	assert.Equal(t, "flaky", p.Name())
}

func TestRetryingProvider_GivesUp(t *testing.T) {
	inner := &flakyProvider{failures: 10, err: errors.New("connection reset")}
	p := NewRetryingProvider(inner, fastRetry())

	_, err := p.Search(context.Background(), params())
	require.Error(t, err)
	assert.Equal(t, int32(3), inner.calls.Load())
}

func TestRetryingProvider_NoRetryOnClientError(t *testing.T) {
	inner := &flakyProvider{failures: 10, err: NewProviderError("flaky", &StatusError{Code: 401})}
	p := NewRetryingProvider(inner, fastRetry())

	_, err := p.Search(context.Background(), params())
	require.Error(t, err)
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestRetryingProvider_StopsOnCancel(t *testing.T) {
	inner := &flakyProvider{failures: 10, err: errors.New("boom")}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRetryingProvider(inner, fastRetry()).Search(ctx, params())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), inner.calls.Load())
}

func TestRetryingProvider_WaitsForTokenWhenThrottled(t *testing.T) {
	throttled := metrics.ProviderRequests.WithLabelValues("flaky", "throttled")
	before := testutil.ToFloat64(throttled)

	cfg := fastRetry()
	cfg.RateLimiter = ratelimit.NewProviderLimiter(ratelimit.DefaultConfig())
	cfg.RateLimiter.SetProviderLimit("flaky", 50, 1)
	inner := &flakyProvider{failures: 1, err: errors.New("connection reset")}

	start := time.Now()
	_, err := NewRetryingProvider(inner, cfg).Search(context.Background(), params())
	require.NoError(t, err)

	assert.Equal(t, int32(2), inner.calls.Load())
	assert.Equal(t, before+1, testutil.ToFloat64(throttled))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}
