// Package chat relays assistant conversations to the remote CRM chat
// endpoint. The server owns the conversation history format; the client
// holds it opaquely and sends it back verbatim with each message.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// APIError is a failure reported by the chat service itself.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// History is the server-owned conversation state. Entries are opaque;
// only the server interprets them.
type History []json.RawMessage

// Client calls the CRM chat endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a chat client. A nil httpClient gets a default with a
// 30 second timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		trimmed = "https://crmloanmate-chatbot.onrender.com"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		baseURL:    trimmed,
		httpClient: httpClient,
	}
}

type chatRequest struct {
	Message             string  `json:"message"`
	ConversationHistory History `json:"conversationHistory"`
}

type chatResponse struct {
	Success             bool    `json:"success"`
	Reply               string  `json:"reply"`
	ConversationHistory History `json:"conversationHistory"`
	Error               string  `json:"error,omitempty"`
}

// Send relays one user message with the held history and returns the reply
// plus the replacement history. On any failure the caller keeps its current
// history unchanged.
func (c *Client) Send(ctx context.Context, message string, history History) (string, History, error) {
	body, err := json.Marshal(chatRequest{
		Message:             message,
		ConversationHistory: history,
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	endpoint := c.baseURL + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("failed to request chat endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", nil, fmt.Errorf("chat API returned status %d", resp.StatusCode)
		}
		return "", nil, fmt.Errorf("failed to decode chat response: %w", err)
	}

	if !payload.Success {
		msg := payload.Error
		if msg == "" {
			msg = fmt.Sprintf("chat API returned status %d", resp.StatusCode)
		}
		return "", nil, &APIError{Message: msg}
	}

	return payload.Reply, payload.ConversationHistory, nil
}
