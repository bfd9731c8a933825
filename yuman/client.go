// Package yuman adapts the Yuman CMMS, the operational record. It never
// writes to the database directly; foreign-id write-back goes through the
// injected store.
package yuman

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"pvsync/ratelimit"
)

var errUnexpectedStatusCode = errors.New("unexpected status code")

const listPageSize = 100

// API is the part of the Yuman surface the adapter consumes. Kept as an
// interface so the apply policies are testable without HTTP.
type API interface {
	ListSites(ctx context.Context) ([]SiteDTO, error)
	CreateSite(ctx context.Context, payload SitePayload) (SiteDTO, error)
	UpdateSite(ctx context.Context, siteID int64, payload map[string]any) error
	ListMaterials(ctx context.Context) ([]MaterialDTO, error)
	CreateMaterial(ctx context.Context, payload MaterialPayload) (MaterialDTO, error)
	UpdateMaterial(ctx context.Context, materialID int64, payload map[string]any) error
}

// Client talks to the Yuman REST API. Yuman meters 60 req/min per token;
// every request goes through the shared limiter.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	log        zerolog.Logger
}

var _ API = (*Client)(nil)

// NewClient returns a client for the given base URL and bearer token.
func NewClient(baseURL, token string, limiter *ratelimit.Limiter, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		log:        log.With().Str("component", "yuman").Logger(),
	}
}

// ListSites pages through every site with custom fields embedded.
func (c *Client) ListSites(ctx context.Context) ([]SiteDTO, error) {
	var out []SiteDTO
	for page := 1; ; page++ {
		var resp sitesPage
		path := fmt.Sprintf("/sites?embed=fields,client&page=%d&per_page=%d", page, listPageSize)
		if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, err
		}
		out = append(out, resp.Items...)
		if len(resp.Items) < listPageSize {
			return out, nil
		}
	}
}

// CreateSite creates a site and returns it, new id included.
func (c *Client) CreateSite(ctx context.Context, payload SitePayload) (SiteDTO, error) {
	var created SiteDTO
	err := c.do(ctx, http.MethodPost, "/sites", payload, &created)
	return created, err
}

// UpdateSite patches a site. The payload carries only the fields to change.
func (c *Client) UpdateSite(ctx context.Context, siteID int64, payload map[string]any) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/sites/%d", siteID), payload, nil)
}

// ListMaterials pages through every material with custom fields embedded.
func (c *Client) ListMaterials(ctx context.Context) ([]MaterialDTO, error) {
	var out []MaterialDTO
	for page := 1; ; page++ {
		var resp materialsPage
		path := fmt.Sprintf("/materials?embed=fields,site&page=%d&per_page=%d", page, listPageSize)
		if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, err
		}
		out = append(out, resp.Items...)
		if len(resp.Items) < listPageSize {
			return out, nil
		}
	}
}

// CreateMaterial creates a material and returns it, new id included.
func (c *Client) CreateMaterial(ctx context.Context, payload MaterialPayload) (MaterialDTO, error) {
	var created MaterialDTO
	err := c.do(ctx, http.MethodPost, "/materials", payload, &created)
	return created, err
}

// UpdateMaterial patches a material.
func (c *Client) UpdateMaterial(ctx context.Context, materialID int64, payload map[string]any) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/materials/%d", materialID), payload, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	return c.limiter.Do(ctx, func() error {
		var reader *bytes.Reader
		if body != nil {
			raw, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("marshal %s %s: %w", method, path, err)
			}
			reader = bytes.NewReader(raw)
			c.log.Debug().Str("method", method).Str("path", path).RawJSON("payload", raw).Msg("request")
		} else {
			reader = bytes.NewReader(nil)
			c.log.Debug().Str("method", method).Str("path", path).Msg("request")
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
		defer func() {
			if cerr := resp.Body.Close(); cerr != nil {
				c.log.Warn().Err(cerr).Msg("failed to close response body")
			}
		}()

		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			return fmt.Errorf("%s %s: %w: %d", method, path, errUnexpectedStatusCode, resp.StatusCode)
		}
		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("decode %s %s: %w", method, path, err)
			}
		}
		return nil
	})
}
