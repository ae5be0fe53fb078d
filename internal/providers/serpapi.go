package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dharmasatrya/flightgraph/internal/models"
)

type SerpAPIConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

func DefaultSerpAPIConfig() SerpAPIConfig {
	return SerpAPIConfig{
		BaseURL: "https://serpapi.com",
		Timeout: 10 * time.Second,
	}
}

var ErrMissingAPIKey = errors.New("serpapi: api key is required")

// SerpAPIProvider queries the google_flights engine for one-way fares.
type SerpAPIProvider struct {
	client  *http.Client
	config  SerpAPIConfig
	baseURL string
}

func NewSerpAPIProvider(config SerpAPIConfig) (*SerpAPIProvider, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultSerpAPIConfig().BaseURL
	}
	return &SerpAPIProvider{
		client:  &http.Client{Timeout: config.Timeout},
		config:  config,
		baseURL: strings.TrimRight(config.BaseURL, "/"),
	}, nil
}

func (p *SerpAPIProvider) Name() string {
	return "serpapi"
}

func (p *SerpAPIProvider) Search(ctx context.Context, params models.ProviderSearchParams) (*models.ProviderResponse, error) {
	query := url.Values{}
	query.Set("engine", "google_flights")
	query.Set("api_key", p.config.APIKey)
	query.Set("type", "2")
	query.Set("departure_id", strings.Join(params.DepartureIDs, ","))
	query.Set("arrival_id", strings.Join(params.ArrivalIDs, ","))
	query.Set("outbound_date", params.OutboundDate)
	if params.Currency != "" {
		query.Set("currency", params.Currency)
	}
	if params.Language != "" {
		query.Set("hl", params.Language)
	}
	if params.Country != "" {
		query.Set("gl", params.Country)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/search?"+query.Encode(), nil)
	if err != nil {
		return nil, NewProviderError(p.Name(), err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, NewProviderError(p.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, NewProviderError(p.Name(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &payload)
		return nil, NewProviderError(p.Name(), &StatusError{Code: resp.StatusCode, Message: payload.Error})
	}

	var result models.ProviderResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, NewProviderError(p.Name(), fmt.Errorf("decode response: %w", err))
	}
	if result.Error != "" {
		// google_flights reports "no results" as an error string with a 200.
		if isNoResults(result.Error) {
			result.Error = ""
			return &result, nil
		}
		return nil, NewProviderError(p.Name(), errors.New(result.Error))
	}

	return &result, nil
}

func isNoResults(message string) bool {
	return strings.Contains(strings.ToLower(message), "hasn't returned any results")
}
