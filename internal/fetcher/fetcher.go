// Package fetcher streams resolved media into a request workspace.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/iconidentify/vidrelay/internal/domain"
)

// Fetcher downloads media files from direct locators.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

// New creates a fetcher. The underlying client has no overall timeout: media
// downloads can legitimately run for minutes, so only the response headers
// are bounded.
func New(logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: 30 * time.Second,
			},
		},
		logger: logger,
	}
}

// Fetch streams the media behind locator into dir/filename and returns the
// resulting file. A non-success HTTP status yields ErrFetchFailed; a fully
// written but empty body yields ErrEmptyFile. The caller owns the workspace
// lifecycle on either outcome.
func (f *Fetcher) Fetch(ctx context.Context, locator, dir, filename string) (domain.FetchedMedia, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return domain.FetchedMedia{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Error("media request failed", "locator", locator, "error", err)
		return domain.FetchedMedia{}, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Error("media request returned non-success status",
			"locator", locator,
			"status", resp.StatusCode,
		)
		return domain.FetchedMedia{}, fmt.Errorf("%w: status %d", domain.ErrFetchFailed, resp.StatusCode)
	}

	// The filename is remote-supplied; strip any path components so it
	// cannot escape the workspace.
	filename = filepath.Base(filename)
	path := filepath.Join(dir, filename)
	out, err := os.Create(path)
	if err != nil {
		return domain.FetchedMedia{}, fmt.Errorf("create file: %w", err)
	}

	written, copyErr := io.Copy(out, resp.Body)
	closeErr := out.Close()

	if copyErr != nil {
		f.logger.Error("media stream interrupted", "locator", locator, "written", written, "error", copyErr)
		return domain.FetchedMedia{}, fmt.Errorf("%w: %v", domain.ErrFetchFailed, copyErr)
	}
	if closeErr != nil {
		return domain.FetchedMedia{}, fmt.Errorf("close file: %w", closeErr)
	}

	if written == 0 {
		f.logger.Error("downloaded file is empty", "locator", locator, "path", path)
		return domain.FetchedMedia{}, domain.ErrEmptyFile
	}

	media := domain.FetchedMedia{
		Path:     path,
		Filename: filename,
		Size:     written,
	}
	f.logger.Info("downloaded media",
		"path", path,
		"size_mb", fmt.Sprintf("%.2f", media.SizeMB()),
	)
	return media, nil
}
