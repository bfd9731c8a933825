// Package vcom adapts the VCOM monitoring platform, the source of ground
// truth for physical site and equipment attributes.
package vcom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"pvsync/ratelimit"
)

var errUnexpectedStatusCode = errors.New("unexpected status code")

// Client is a minimal VCOM API client covering the endpoints the sync needs.
// All requests share one rate limiter: VCOM meters the API key, not the code
// path.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	log        zerolog.Logger
}

// NewClient returns a client for the given base URL and API key.
func NewClient(baseURL, apiKey string, limiter *ratelimit.Limiter, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		log:        log.With().Str("component", "vcom").Logger(),
	}
}

// Systems lists every system visible to the API key.
func (c *Client) Systems(ctx context.Context) ([]System, error) {
	var resp systemsResponse
	if err := c.getJSON(ctx, "/systems", &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// SystemDetails fetches location and commissioning data for one system.
func (c *Client) SystemDetails(ctx context.Context, systemKey string) (SystemDetails, error) {
	var resp systemDetailsResponse
	err := c.getJSON(ctx, "/systems/"+url.PathEscape(systemKey), &resp)
	return resp.Data, err
}

// TechnicalData fetches rated power and panel references for one system.
func (c *Client) TechnicalData(ctx context.Context, systemKey string) (TechnicalData, error) {
	var resp technicalDataResponse
	err := c.getJSON(ctx, "/systems/"+url.PathEscape(systemKey)+"/technical-data", &resp)
	return resp.Data, err
}

// Inverters lists the inverters of one system.
func (c *Client) Inverters(ctx context.Context, systemKey string) ([]Inverter, error) {
	var resp invertersResponse
	if err := c.getJSON(ctx, "/systems/"+url.PathEscape(systemKey)+"/inverters", &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// InverterDetails fetches vendor/model for one inverter.
func (c *Client) InverterDetails(ctx context.Context, systemKey, inverterID string) (InverterDetails, error) {
	var resp inverterDetailsResponse
	err := c.getJSON(ctx, "/systems/"+url.PathEscape(systemKey)+"/inverters/"+url.PathEscape(inverterID), &resp)
	return resp.Data, err
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.limiter.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
		if err != nil {
			return err
		}
		req.Header.Set("X-API-Key", c.apiKey)
		req.Header.Set("Accept", "application/json")

		c.log.Debug().Str("path", path).Msg("GET")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("GET %s: %w", path, err)
		}
		defer func() {
			if cerr := resp.Body.Close(); cerr != nil {
				c.log.Warn().Err(cerr).Msg("failed to close response body")
			}
		}()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("GET %s: %w: %d", path, errUnexpectedStatusCode, resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		return nil
	})
}
