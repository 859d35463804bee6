// Package geocode resolves free-text project locations into coordinates
// through a Nominatim-compatible search endpoint, with a database-backed
// cache so repeated loads never re-query the service.
package geocode

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

	"github.com/researchatlas/engine/internal/config"
	"github.com/researchatlas/engine/internal/geo"
)

// ErrNoResult means the service answered with an empty candidate list.
var ErrNoResult = errors.New("no geocoding result")

const userAgent = "research-atlas-engine"

// Result is the best candidate for a query. Raw keeps the provider's
// untouched JSON for the cache.
type Result struct {
	Lat         float64
	Lon         float64
	DisplayName string
	Raw         json.RawMessage
}

// Client handles communication with the geocoding service.
type Client struct {
	serverURL  string
	email      string
	httpClient *http.Client
}

// NewClient creates a client for the configured search endpoint.
func NewClient(cfg config.GeocoderConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		serverURL:  strings.TrimRight(cfg.ServerURL, "/"),
		email:      cfg.Email,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Healthcheck checks if the geocoding service is reachable. A bare search
// URL without parameters answers 400, so any non-5xx status counts.
func (c *Client) Healthcheck() error {
	req, err := http.NewRequest(http.MethodGet, c.serverURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

// Lookup queries the service for a single address and returns the first
// candidate. The email parameter identifies us to the public service per
// its usage policy.
func (c *Client) Lookup(ctx context.Context, query string) (Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	if c.email != "" {
		params.Set("email", c.email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"?"+params.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("geocode returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("error reading geocode response: %w", err)
	}

	var hits []json.RawMessage
	if err := json.Unmarshal(body, &hits); err != nil {
		return Result{}, fmt.Errorf("error decoding geocode response: %w", err)
	}
	if len(hits) == 0 {
		return Result{}, ErrNoResult
	}

	var candidate struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
	}
	if err := json.Unmarshal(hits[0], &candidate); err != nil {
		return Result{}, fmt.Errorf("error decoding geocode candidate: %w", err)
	}

	lat, lon, err := geo.ParseLatLon(candidate.Lat, candidate.Lon)
	if err != nil {
		return Result{}, fmt.Errorf("parsing geocode coordinates: %w", err)
	}

	return Result{
		Lat:         lat,
		Lon:         lon,
		DisplayName: candidate.DisplayName,
		Raw:         hits[0],
	}, nil
}
