package planning

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/itinera/internal/interfaces"
	"github.com/ternarybob/itinera/internal/models"
)

// Client talks to the planning backend over its streaming and REST
// endpoints. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	// streamClient has no overall timeout: a streaming exchange lives as
	// long as the backend keeps sending events.
	streamClient *http.Client
	limiter      *rate.Limiter
	logger       arbor.ILogger
}

// ClientConfig carries the backend connection settings.
type ClientConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	NearbyInterval time.Duration
}

// NewClient creates a planning backend client. The request timeout applies
// to the REST endpoints only; streaming exchanges run until the backend
// closes them or the context is cancelled.
func NewClient(cfg ClientConfig, logger arbor.ILogger) interfaces.PlanningClient {
	interval := cfg.NearbyInterval
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		streamClient: &http.Client{},
		limiter:      rate.NewLimiter(rate.Every(interval), 1),
		logger:       logger,
	}
}

// Nearby looks up restaurants around the given location. Lookups are rate
// limited so paging quickly through attractions does not hammer the backend.
func (c *Client) Nearby(ctx context.Context, loc models.Location) (*models.NearbyResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("nearby lookup throttled: %w", err)
	}

	url := fmt.Sprintf("%s/api/nearby/%v,%v", c.baseURL, loc.Lat, loc.Lng)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create nearby request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nearby request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("nearby request returned status %d: %s", resp.StatusCode, string(body))
	}

	var result models.NearbyResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode nearby response: %w", err)
	}
	return &result, nil
}

// Reset clears the backend-side session.
func (c *Client) Reset(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/reset", nil)
	if err != nil {
		return fmt.Errorf("failed to create reset request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reset request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reset request returned status %d", resp.StatusCode)
	}
	return nil
}
