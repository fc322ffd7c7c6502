// Package api is an HTTP client for the ou-toggle server.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kamikazebr/ou-toggle/pkg/models"
	"github.com/kamikazebr/ou-toggle/pkg/version"
)

var (
	// ErrUnauthorized is returned when the server rejects the API key.
	ErrUnauthorized = errors.New("unauthorized: check the API key")
	// ErrLimitReached is returned when today's switches are used up.
	ErrLimitReached = errors.New("switch limit reached")
	// ErrUnavailable is returned when the server could not reach Google.
	ErrUnavailable = errors.New("service unavailable")
)

// headerAPIKey matches the server's api.APIKeyHeader.
const headerAPIKey = "x-api-key"

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			// The toggle calls the directory and scheduler APIs in sequence.
			Timeout: 60 * time.Second,
		},
	}
}

func (c *Client) newRequest(method, path string) (*http.Request, error) {
	req, err := http.NewRequest(method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent(version.ClientName))
	return req, nil
}

// HealthCheck checks if the server is reachable
func (c *Client) HealthCheck() error {
	req, err := c.newRequest(http.MethodGet, "/health")
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return nil
}

// Toggle calls GET /toggle-access. The decoded response is returned
// alongside ErrLimitReached and ErrUnavailable so callers can show the
// server's message.
func (c *Client) Toggle() (*models.ToggleResponse, error) {
	req, err := c.newRequest(http.MethodGet, "/toggle-access")
	if err != nil {
		return nil, err
	}
	req.Header.Set(headerAPIKey, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var result models.ToggleResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return &result, nil
	case http.StatusUnauthorized:
		return &result, ErrUnauthorized
	case http.StatusForbidden:
		return &result, ErrLimitReached
	case http.StatusServiceUnavailable:
		return &result, ErrUnavailable
	default:
		return &result, fmt.Errorf("server returned status %d: %s", resp.StatusCode, result.Error)
	}
}
