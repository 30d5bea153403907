package maps

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

	pkgerrors "github.com/gaslinkhq/gaslink-backend/pkg/errors"
)

const (
	defaultBaseURL        = "https://maps.googleapis.com/maps/api"
	defaultTimeout        = 10 * time.Second
	responseBodyReadLimit = 1024
)

var errAPIKeyRequired = errors.New("google maps api key is required")

// Client wraps the Google Distance Matrix API used to resolve the road
// distance between an agency and a customer address.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout bounds every distance lookup. Lookups are never retried; a
// timeout surfaces as a dependency failure to the caller.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the distance client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// DistanceResult is the normalized route measurement between two addresses.
type DistanceResult struct {
	DistanceKm      float64
	DurationMinutes float64
}

// Distance resolves the driving distance from origin to destination.
// Transport failures and unresolvable routes are both dependency errors; the
// wrapped cause distinguishes them for logging.
func (c *Client) Distance(ctx context.Context, origin, destination string) (*DistanceResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "maps client not configured")
	}
	if strings.TrimSpace(origin) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "origin address is required")
	}
	if strings.TrimSpace(destination) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination address is required")
	}

	query := url.Values{}
	query.Set("origins", origin)
	query.Set("destinations", destination)
	query.Set("units", "metric")
	query.Set("key", c.apiKey)

	endpoint := fmt.Sprintf("%s/distancematrix/json?%s", strings.TrimRight(c.baseURL, "/"), query.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build distance request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute distance request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "distance request failed")
	}

	var apiResp struct {
		Status string `json:"status"`
		Rows   []struct {
			Elements []struct {
				Status   string `json:"status"`
				Distance struct {
					Meters int64 `json:"value"`
				} `json:"distance"`
				Duration struct {
					Seconds int64 `json:"value"`
				} `json:"duration"`
			} `json:"elements"`
		} `json:"rows"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode distance response")
	}

	if apiResp.Status != "OK" {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("distance matrix status %s", apiResp.Status), "distance request rejected")
	}
	if len(apiResp.Rows) == 0 || len(apiResp.Rows[0].Elements) == 0 {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("empty distance matrix"), "no route returned")
	}

	element := apiResp.Rows[0].Elements[0]
	if element.Status != "OK" {
		// NOT_FOUND / ZERO_RESULTS mean the address or route could not be
		// resolved, as opposed to a transport failure.
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("route status %s", element.Status), "route could not be resolved")
	}

	return &DistanceResult{
		DistanceKm:      float64(element.Distance.Meters) / 1000.0,
		DurationMinutes: float64(element.Duration.Seconds) / 60.0,
	}, nil
}
