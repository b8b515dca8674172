// Package identity is a client for the identity provider's REST surface:
// email/password sign-up and sign-in, Google credential sign-in, profile
// updates, account lookup, and token refresh.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// AuthError is an error reported by the identity provider, carrying its
// error code string (e.g. EMAIL_EXISTS, INVALID_PASSWORD). The code is
// shown to the user the way the provider spells it.
type AuthError struct {
	Code string
}

func (e *AuthError) Error() string {
	return e.Code
}

// Account is an authenticated identity snapshot with fresh tokens.
type Account struct {
	UID          string
	Email        string
	DisplayName  string
	PhotoURL     string
	IDToken      string
	RefreshToken string
	ExpiresIn    time.Duration
}

// Client talks to the identity provider.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates an identity client. A nil httpClient gets a default
// with a 15 second timeout.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		trimmed = "https://identitytoolkit.googleapis.com"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	return &Client{
		baseURL:    trimmed,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

type accountResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	PhotoURL     string `json:"photoUrl"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SignUp registers a new email/password account and then sets the display
// name on the fresh account, mirroring the two-step flow of the app.
func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*Account, error) {
	acct, err := c.post(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, err
	}

	if displayName != "" {
		updated, err := c.UpdateProfile(ctx, acct.IDToken, displayName, "")
		if err != nil {
			return nil, err
		}
		updated.Email = acct.Email
		updated.UID = acct.UID
		updated.RefreshToken = acct.RefreshToken
		return updated, nil
	}

	return acct, nil
}

// SignInWithPassword authenticates an existing email/password account.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Account, error) {
	return c.post(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
}

// SignInWithGoogle exchanges a Google ID token for a provider session.
func (c *Client) SignInWithGoogle(ctx context.Context, googleIDToken string) (*Account, error) {
	return c.post(ctx, "accounts:signInWithIdp", map[string]any{
		"postBody":            "id_token=" + url.QueryEscape(googleIDToken) + "&providerId=google.com",
		"requestUri":          "http://localhost",
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	})
}

// UpdateProfile sets the display name and/or photo URL on the account
// the ID token belongs to. Empty fields are left untouched.
func (c *Client) UpdateProfile(ctx context.Context, idToken, displayName, photoURL string) (*Account, error) {
	body := map[string]any{
		"idToken":           idToken,
		"returnSecureToken": true,
	}
	if displayName != "" {
		body["displayName"] = displayName
	}
	if photoURL != "" {
		body["photoUrl"] = photoURL
	}
	return c.post(ctx, "accounts:update", body)
}

// Lookup fetches the account profile behind an ID token.
func (c *Client) Lookup(ctx context.Context, idToken string) (*Account, error) {
	endpoint := fmt.Sprintf("%s/v1/accounts:lookup?key=%s", c.baseURL, url.QueryEscape(c.apiKey))

	payload, err := json.Marshal(map[string]any{"idToken": idToken})
	if err != nil {
		return nil, fmt.Errorf("failed to encode lookup request: %w", err)
	}

	var result struct {
		Users []accountResponse `json:"users"`
	}
	if err := c.doJSON(ctx, endpoint, "application/json", bytes.NewReader(payload), &result); err != nil {
		return nil, err
	}
	if len(result.Users) == 0 {
		return nil, &AuthError{Code: "USER_NOT_FOUND"}
	}

	acct := toAccount(result.Users[0])
	acct.IDToken = idToken
	return acct, nil
}

type refreshResponse struct {
	UserID       string `json:"user_id"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
}

// RefreshToken exchanges a refresh token for a fresh ID token.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*Account, error) {
	endpoint := fmt.Sprintf("%s/v1/token?key=%s", c.baseURL, url.QueryEscape(c.apiKey))

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	var payload refreshResponse
	err := c.doJSON(ctx, endpoint, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()), &payload)
	if err != nil {
		return nil, err
	}

	return &Account{
		UID:          payload.UserID,
		IDToken:      payload.IDToken,
		RefreshToken: payload.RefreshToken,
		ExpiresIn:    parseExpiresIn(payload.ExpiresIn),
	}, nil
}

// post calls one of the accounts:* endpoints with a JSON body.
func (c *Client) post(ctx context.Context, action string, body map[string]any) (*Account, error) {
	endpoint := fmt.Sprintf("%s/v1/%s?key=%s", c.baseURL, action, url.QueryEscape(c.apiKey))

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", action, err)
	}

	var result accountResponse
	if err := c.doJSON(ctx, endpoint, "application/json", bytes.NewReader(payload), &result); err != nil {
		return nil, err
	}
	return toAccount(result), nil
}

// doJSON performs a POST and decodes either the expected payload or the
// provider's error envelope.
func (c *Client) doJSON(ctx context.Context, endpoint, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create identity request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to request identity provider: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var errPayload errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errPayload); err == nil && errPayload.Error.Message != "" {
			return &AuthError{Code: errPayload.Error.Message}
		}
		return fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode identity response: %w", err)
	}
	return nil
}

func toAccount(r accountResponse) *Account {
	return &Account{
		UID:          r.LocalID,
		Email:        r.Email,
		DisplayName:  r.DisplayName,
		PhotoURL:     r.PhotoURL,
		IDToken:      r.IDToken,
		RefreshToken: r.RefreshToken,
		ExpiresIn:    parseExpiresIn(r.ExpiresIn),
	}
}

func parseExpiresIn(s string) time.Duration {
	secs, err := strconv.Atoi(s)
	if err != nil || secs <= 0 {
		secs = 3600
	}
	return time.Duration(secs) * time.Second
}
