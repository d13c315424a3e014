package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/milvoyage/tdy-engine/internal/locality"
)

// AuthorityConfig holds the external rate API configuration.
type AuthorityConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// authorityResponse is the provider's wire format: whole currency units.
type authorityResponse struct {
	Meals   int64 `json:"meals"`
	Lodging int64 `json:"lodging"`
}

// AuthorityClient queries the government per-diem rate API over HTTP.
type AuthorityClient struct {
	cfg    AuthorityConfig
	client *http.Client
	logger *zap.Logger
}

// NewAuthorityClient creates an HTTP rate authority client.
func NewAuthorityClient(cfg AuthorityConfig, logger *zap.Logger) *AuthorityClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AuthorityClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Lookup queries the authority by ZIP or city/state and year. Missing
// credentials, a non-2xx status, or an unparseable body all surface as
// errors; the resolver maps every error to the fallback rate.
func (c *AuthorityClient) Lookup(ctx context.Context, key locality.SearchKey, year int) (int64, int64, error) {
	if c.cfg.APIKey == "" {
		return 0, 0, fmt.Errorf("rate authority credentials not configured")
	}

	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	if key.ZIP != "" {
		q.Set("zip", key.ZIP)
	} else {
		q.Set("city", key.City)
		if key.State != "" {
			q.Set("state", key.State)
		}
	}

	endpoint := fmt.Sprintf("%s/rates?%s", c.cfg.BaseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to build rate request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("rate authority request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("Rate authority returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return 0, 0, fmt.Errorf("rate authority returned status %d", resp.StatusCode)
	}

	var parsed authorityResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, 0, fmt.Errorf("failed to parse rate authority response: %w", err)
	}
	if parsed.Meals <= 0 || parsed.Lodging <= 0 {
		return 0, 0, fmt.Errorf("rate authority returned empty rates")
	}

	return parsed.Meals, parsed.Lodging, nil
}
