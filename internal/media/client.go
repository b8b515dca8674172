package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// UploadRequest is one unsigned upload: the file bytes plus the form
// fields the media host indexes by.
type UploadRequest struct {
	Data     []byte
	FileName string
	MimeType string

	Preset   string
	Folder   string
	PublicID string
	// Context is the pipe-delimited metadata string
	// (user_email=...|user_id=...|document_type=...|uploaded_at=...).
	Context string
	Tags    []string
}

// UploadResult is the media host's reply for a stored asset.
type UploadResult struct {
	SecureURL    string `json:"secure_url"`
	PublicID     string `json:"public_id"`
	AssetID      string `json:"asset_id"`
	Format       string `json:"format"`
	ResourceType string `json:"resource_type"`
	Bytes        int64  `json:"bytes"`
	CreatedAt    string `json:"created_at"`
}

type uploadError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client posts unsigned uploads to the media host.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a media upload client. A nil httpClient gets a default
// with a 60 second timeout; uploads carry multi-megabyte bodies.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		endpoint:   cfg.Endpoint(),
		httpClient: httpClient,
	}
}

// Upload sends one file as multipart/form-data and returns the stored
// asset. A response without a secure URL is treated as a failed upload.
func (c *Client) Upload(ctx context.Context, upReq UploadRequest) (*UploadResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := map[string]string{
		"upload_preset": upReq.Preset,
		"folder":        upReq.Folder,
		"public_id":     upReq.PublicID,
		"context":       upReq.Context,
		"tags":          strings.Join(upReq.Tags, ","),
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to write upload field %s: %w", name, err)
		}
	}

	part, err := writer.CreateFormFile("file", upReq.FileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file part: %w", err)
	}
	if _, err := part.Write(upReq.Data); err != nil {
		return nil, fmt.Errorf("failed to write upload file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to upload to media host: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errPayload uploadError
		if err := json.Unmarshal(raw, &errPayload); err == nil && errPayload.Error.Message != "" {
			return nil, fmt.Errorf("media host rejected upload: %s", errPayload.Error.Message)
		}
		return nil, fmt.Errorf("media host returned status %d", resp.StatusCode)
	}

	var result UploadResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	if result.SecureURL == "" {
		return nil, fmt.Errorf("upload failed: no URL returned")
	}

	return &result, nil
}
