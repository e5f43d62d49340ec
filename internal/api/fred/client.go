// Package fred is the client for the St. Louis Fed FRED API. It is
// the only place that talks HTTP: transport failures are logged and
// surfaced to callers as errors they treat as "no data".
package fred

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/macrolens/harmonizer/models"
)

const defaultBaseURL = "https://api.stlouisfed.org/fred"

// missingValue is FRED's sentinel for a reporting gap.
const missingValue = "."

// Client is the FRED API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new FRED client.
type ClientOptions struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
	RequestsPerSec int
}

// NewClient creates a new FRED API client with rate limiting.
func NewClient(options ClientOptions) *Client {
	if options.RequestTimeout == 0 {
		options.RequestTimeout = 30 * time.Second
	}
	if options.RequestsPerSec == 0 {
		options.RequestsPerSec = 5
	}
	if options.BaseURL == "" {
		options.BaseURL = defaultBaseURL
	}

	return &Client{
		apiKey:     options.APIKey,
		baseURL:    options.BaseURL,
		httpClient: &http.Client{Timeout: options.RequestTimeout},
		limiter:    rate.NewLimiter(rate.Every(time.Second), options.RequestsPerSec),
		logger:     log.With().Str("component", "fred_client").Logger(),
	}
}

// observationsResponse mirrors /fred/series/observations.
type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// seriesResponse mirrors /fred/series and /fred/series/search.
type seriesResponse struct {
	Seriess []seriesMeta `json:"seriess"`
}

type seriesMeta struct {
	ID                      string `json:"id"`
	Title                   string `json:"title"`
	Frequency               string `json:"frequency"`
	Units                   string `json:"units"`
	UnitsShort              string `json:"units_short"`
	SeasonalAdjustmentShort string `json:"seasonal_adjustment_short"`
	LastUpdated             string `json:"last_updated"`
	Popularity              int    `json:"popularity"`
}

// FetchSeries fetches all observations of a series from start_date
// onward, sorted ascending by date. Rows with unparseable dates or
// values are dropped; the "." gap sentinel becomes an invalid
// observation so downstream transforms can still see the period.
func (c *Client) FetchSeries(ctx context.Context, seriesID string, start time.Time) ([]models.Observation, error) {
	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("observation_start", start.Format("2006-01-02"))

	var data observationsResponse
	if err := c.getJSON(ctx, "series/observations", params, &data); err != nil {
		return nil, fmt.Errorf("fetching observations for %s: %w", seriesID, err)
	}

	var obs []models.Observation
	for _, raw := range data.Observations {
		date, err := time.Parse("2006-01-02", raw.Date)
		if err != nil {
			c.logger.Warn().Str("series_id", seriesID).Str("date", raw.Date).Msg("Dropping observation with unparseable date")
			continue
		}
		if raw.Value == missingValue {
			obs = append(obs, models.Observation{SeriesID: seriesID, Date: date})
			continue
		}
		value, err := strconv.ParseFloat(raw.Value, 64)
		if err != nil {
			c.logger.Warn().Str("series_id", seriesID).Str("value", raw.Value).Msg("Dropping non-numeric observation")
			continue
		}
		obs = append(obs, models.Observation{SeriesID: seriesID, Date: date, Value: value, Valid: true})
	}

	c.logger.Debug().Str("series_id", seriesID).Int("count", len(obs)).Msg("Fetched observations")
	return obs, nil
}

// FetchSeriesInfo returns the declared frequency and unit of a series.
func (c *Client) FetchSeriesInfo(ctx context.Context, seriesID string) (models.SeriesInfo, error) {
	params := url.Values{}
	params.Set("series_id", seriesID)

	var data seriesResponse
	if err := c.getJSON(ctx, "series", params, &data); err != nil {
		return models.SeriesInfo{}, fmt.Errorf("fetching series info for %s: %w", seriesID, err)
	}
	if len(data.Seriess) == 0 {
		return models.SeriesInfo{}, fmt.Errorf("series %s not found", seriesID)
	}

	meta := data.Seriess[0]
	unit := meta.UnitsShort
	if unit == "" {
		unit = meta.Units
	}
	return models.SeriesInfo{
		ID:        meta.ID,
		Frequency: ParseFrequency(meta.Frequency),
		Unit:      unit,
	}, nil
}

// SearchSeries runs a full-text series search. When seasonallyAdjusted
// is true only SA candidates are returned.
func (c *Client) SearchSeries(ctx context.Context, query string, seasonallyAdjusted bool) ([]models.SeriesCandidate, error) {
	params := url.Values{}
	params.Set("search_text", query)

	var data seriesResponse
	if err := c.getJSON(ctx, "series/search", params, &data); err != nil {
		return nil, fmt.Errorf("searching series %q: %w", query, err)
	}

	var candidates []models.SeriesCandidate
	for _, meta := range data.Seriess {
		sa := strings.HasPrefix(strings.ToUpper(meta.SeasonalAdjustmentShort), "S")
		if seasonallyAdjusted && !sa {
			continue
		}
		candidates = append(candidates, models.SeriesCandidate{
			ID:                 meta.ID,
			Popularity:         meta.Popularity,
			SeasonallyAdjusted: sa,
			Frequency:          ParseFrequency(meta.Frequency),
			LastUpdated:        meta.LastUpdated,
		})
	}

	c.logger.Debug().Str("query", query).Int("candidates", len(candidates)).Msg("Series search done")
	return candidates, nil
}

// getJSON performs one GET against the API with rate limiting and
// exponential backoff, decoding the JSON body into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	params.Set("api_key", c.apiKey)
	params.Set("file_type", "json")
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	var body []byte
	operation := func() error {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("HTTP request failed: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("non-200 status code: %d", resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response body: %w", err)
		}
		return nil
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(backoffStrategy, ctx)); err != nil {
		return fmt.Errorf("after retries: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("Error parsing JSON")
		return fmt.Errorf("parsing JSON: %w", err)
	}
	return nil
}

// ParseFrequency maps FRED's frequency strings ("Monthly", "Weekly,
// Ending Friday", ...) onto the canonical cadence values.
func ParseFrequency(s string) models.Frequency {
	switch {
	case strings.HasPrefix(s, "Daily"):
		return models.Daily
	case strings.HasPrefix(s, "Biweekly"):
		return models.Biweekly
	case strings.HasPrefix(s, "Weekly"):
		return models.Weekly
	case strings.HasPrefix(s, "Monthly"):
		return models.Monthly
	case strings.HasPrefix(s, "Quarterly"):
		return models.Quarterly
	case strings.HasPrefix(s, "Annual"):
		return models.Annual
	default:
		return models.Frequency(s)
	}
}
