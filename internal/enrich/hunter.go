// Package enrich resolves outreach emails through the Hunter email-finder
// API. Enrichment is strictly best-effort: callers treat every error here as
// a miss, never as a failure.
package enrich

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
)

const defaultBaseURL = "https://api.hunter.io/v2/email-finder"

// ErrNotFound means the lookup succeeded but no email is known for the pair.
var ErrNotFound = errors.New("no email found")

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithBaseURL is used by tests to point the client at a stub server.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = baseURL
	return c
}

type finderResponse struct {
	Data struct {
		Email string `json:"email"`
		Score int    `json:"score"`
	} `json:"data"`
	Errors []struct {
		Details string `json:"details"`
	} `json:"errors,omitempty"`
}

// Lookup resolves an email for a full name + company pair.
func (c *Client) Lookup(ctx context.Context, fullName, company string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotFound
	}

	params := url.Values{}
	params.Set("full_name", strings.TrimSpace(fullName))
	params.Set("company", strings.TrimSpace(company))
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create http request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("hunter API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var finderResp finderResponse
	if err := json.Unmarshal(bodyBytes, &finderResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(finderResp.Errors) > 0 {
		return "", fmt.Errorf("API error: %s", finderResp.Errors[0].Details)
	}
	if finderResp.Data.Email == "" {
		return "", ErrNotFound
	}

	return finderResp.Data.Email, nil
}
