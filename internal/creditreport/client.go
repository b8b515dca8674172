package creditreport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// FallbackError is shown when the scoring service reports failure without
// a usable error string.
const FallbackError = "Failed to generate credit report"

// APIError is a failure reported by the scoring service itself
// (success=false), as opposed to a transport failure.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client calls the remote credit scoring endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a scoring endpoint client. A nil httpClient gets a
// default with a 30 second timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		trimmed = "https://loanmate-creditreport.onrender.com"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		baseURL:    trimmed,
		httpClient: httpClient,
	}
}

// Generate submits a validated request and returns the full report. The
// report is all-or-nothing: any failure returns an error and no partial
// response. There is no retry; the caller re-submits on user action.
func (c *Client) Generate(ctx context.Context, reportReq Request) (*Response, error) {
	body, err := json.Marshal(reportReq)
	if err != nil {
		return nil, fmt.Errorf("failed to encode credit report request: %w", err)
	}

	endpoint := c.baseURL + "/api/generate-credit-report"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create credit report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request credit report: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// The scoring service signals failure in the body, not the status
	// line, so decode first and fall back to the status code only when
	// the body is not parseable.
	var payload Response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("scoring API returned status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to decode credit report response: %w", err)
	}

	if !payload.Success {
		msg := payload.Error
		if msg == "" {
			msg = FallbackError
		}
		return nil, &APIError{Message: msg}
	}

	return &payload, nil
}
