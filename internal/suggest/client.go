// Package suggest calls the external categorization service for category
// suggestions. Suggestions are advisory only; any failure degrades to "no
// suggestion" so it can never block transaction creation or import.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"moneta/internal/logger"
)

const requestTimeout = 3 * time.Second

// Suggestion is a suggested category name with the service's confidence.
type Suggestion struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

type categorizeRequest struct {
	Description string   `json:"description"`
	Amount      *float64 `json:"amount,omitempty"`
}

type categorizeResponse struct {
	Success    bool        `json:"success"`
	Suggestion *Suggestion `json:"suggestion"`
}

// Client talks to the categorization service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the service at baseURL. An empty baseURL
// disables the client; Categorize then always returns no suggestion.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// Categorize asks the service for a category suggestion. amount is in minor
// units; the service contract takes major units. A nil result means no
// suggestion, which is never an error.
func (c *Client) Categorize(ctx context.Context, description string, amount *int64) *Suggestion {
	if c == nil || c.baseURL == "" || description == "" {
		return nil
	}

	req := categorizeRequest{Description: description}
	if amount != nil {
		major := float64(*amount) / 100
		req.Amount = &major
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/categorize", bytes.NewReader(body))
	if err != nil {
		return nil
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		logger.Get().Warnw("categorization service unreachable", "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Get().Warnw("categorization service returned non-OK status", "status", resp.StatusCode)
		return nil
	}

	var out categorizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		logger.Get().Warnw("failed to decode categorization response", "error", err)
		return nil
	}
	if !out.Success || out.Suggestion == nil || out.Suggestion.Category == "" {
		return nil
	}
	return out.Suggestion
}
