// Package extractor talks to the cobalt extraction service, resolving a
// source page URL into a direct, downloadable media locator.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/iconidentify/vidrelay/internal/config"
	"github.com/iconidentify/vidrelay/internal/domain"
)

// Client resolves source URLs through the extraction service.
type Client interface {
	// Resolve asks the service for a downloadable locator. Failures are
	// reported in the result's status, never as a Go error.
	Resolve(ctx context.Context, url string) domain.ExtractionResult
}

// HTTPClient implements Client against the cobalt HTTP API.
type HTTPClient struct {
	baseURL      string
	apiKey       string
	videoQuality string
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewClient creates a new extraction service client.
func NewClient(cfg config.CobaltConfig, quality string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		videoQuality: quality,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// extractRequest is the request body for the cobalt API.
type extractRequest struct {
	URL           string `json:"url"`
	VideoQuality  string `json:"videoQuality"`
	AudioFormat   string `json:"audioFormat"`
	FilenameStyle string `json:"filenameStyle"`
	AlwaysProxy   bool   `json:"alwaysProxy"`
}

// extractResponse is the response body from the cobalt API.
type extractResponse struct {
	Status   string `json:"status"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	// The service has shipped the preview under both names.
	Thumbnail string `json:"thumbnail"`
	Thumb     string `json:"thumb"`
	Error     struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Resolve sends one extraction request and maps the response status.
//
// Quality, audio format, filename style and the proxy-bypass flag are fixed:
// the service tunnels everything, so the bot always receives a fetchable URL.
func (c *HTTPClient) Resolve(ctx context.Context, url string) domain.ExtractionResult {
	body, err := json.Marshal(extractRequest{
		URL:           url,
		VideoQuality:  c.videoQuality,
		AudioFormat:   "mp3",
		FilenameStyle: "basic",
		AlwaysProxy:   true,
	})
	if err != nil {
		c.logger.Error("failed to encode extraction request", "error", err)
		return domain.ExtractionResult{Status: domain.ExtractionError}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		c.logger.Error("failed to build extraction request", "error", err)
		return domain.ExtractionResult{Status: domain.ExtractionError}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Api-Key "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("extraction request failed", "url", url, "error", err)
		return domain.ExtractionResult{Status: domain.ExtractionError}
	}
	defer resp.Body.Close()

	var parsed extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.logger.Error("failed to decode extraction response", "url", url, "error", err)
		return domain.ExtractionResult{Status: domain.ExtractionError}
	}

	switch parsed.Status {
	case "error":
		c.logger.Error("extraction service reported error",
			"url", url,
			"code", parsed.Error.Code,
			"message", parsed.Error.Message,
		)
		return domain.ExtractionResult{Status: domain.ExtractionError}

	case "tunnel", "redirect":
		thumb := parsed.Thumbnail
		if thumb == "" {
			thumb = parsed.Thumb
		}
		return domain.ExtractionResult{
			Status:       domain.ExtractionOK,
			MediaURL:     parsed.URL,
			Filename:     domain.NormalizeFilename(parsed.Filename),
			ThumbnailURL: thumb,
		}

	default:
		c.logger.Error("unexpected extraction status", "url", url, "status", parsed.Status)
		return domain.ExtractionResult{Status: domain.ExtractionError}
	}
}
