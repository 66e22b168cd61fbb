package extractor

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iconidentify/vidrelay/internal/config"
	"github.com/iconidentify/vidrelay/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(serverURL, apiKey string) *HTTPClient {
	return NewClient(config.CobaltConfig{
		BaseURL: serverURL,
		APIKey:  apiKey,
		Timeout: 5 * time.Second,
	}, "480", testLogger())
}

func TestResolve_Tunnel(t *testing.T) {
	var gotBody map[string]any
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "tunnel",
			"url":       "https://cdn.example.com/stream/abc",
			"filename":  "clip.webm",
			"thumbnail": "https://cdn.example.com/thumb/abc.jpg",
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, "secret-key")
	result := client.Resolve(context.Background(), "https://youtube.com/watch?v=abc")

	if !result.OK() {
		t.Fatalf("result not OK: %+v", result)
	}
	if result.MediaURL != "https://cdn.example.com/stream/abc" {
		t.Errorf("MediaURL = %q", result.MediaURL)
	}
	if result.Filename != "clip.mp4" {
		t.Errorf("filename not normalized, got %q", result.Filename)
	}
	if result.ThumbnailURL != "https://cdn.example.com/thumb/abc.jpg" {
		t.Errorf("ThumbnailURL = %q", result.ThumbnailURL)
	}

	if gotAuth != "Api-Key secret-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody["videoQuality"] != "480" {
		t.Errorf("videoQuality = %v", gotBody["videoQuality"])
	}
	if gotBody["audioFormat"] != "mp3" {
		t.Errorf("audioFormat = %v", gotBody["audioFormat"])
	}
	if gotBody["filenameStyle"] != "basic" {
		t.Errorf("filenameStyle = %v", gotBody["filenameStyle"])
	}
	if gotBody["alwaysProxy"] != true {
		t.Errorf("alwaysProxy = %v", gotBody["alwaysProxy"])
	}
}

func TestResolve_Redirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status":   "redirect",
			"url":      "https://cdn.example.com/direct.mp4",
			"filename": "direct.mp4",
			"thumb":    "https://cdn.example.com/thumb.jpg",
		})
	}))
	defer srv.Close()

	result := newTestClient(srv.URL, "").Resolve(context.Background(), "https://vimeo.com/123")

	if !result.OK() {
		t.Fatalf("result not OK: %+v", result)
	}
	if result.ThumbnailURL != "https://cdn.example.com/thumb.jpg" {
		t.Errorf("legacy thumb field not read, got %q", result.ThumbnailURL)
	}
}

func TestResolve_NoAuthHeaderWithoutKey(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{"status": "tunnel", "url": "https://x/y", "filename": "a.mp4"})
	}))
	defer srv.Close()

	newTestClient(srv.URL, "").Resolve(context.Background(), "https://tiktok.com/@u/video/1")

	if gotAuth != "" {
		t.Errorf("Authorization should be absent, got %q", gotAuth)
	}
}

func TestResolve_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status": "error",
			"error":  map[string]string{"code": "error.api.content.video.unavailable", "message": "video unavailable"},
		})
	}))
	defer srv.Close()

	result := newTestClient(srv.URL, "").Resolve(context.Background(), "https://youtube.com/watch?v=gone")

	if result.Status != domain.ExtractionError {
		t.Errorf("status = %q, want error", result.Status)
	}
	if result.OK() {
		t.Error("error result must never be OK")
	}
}

func TestResolve_UnknownStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "picker"})
	}))
	defer srv.Close()

	result := newTestClient(srv.URL, "").Resolve(context.Background(), "https://instagram.com/p/abc")

	if result.Status != domain.ExtractionError {
		t.Errorf("status = %q, want error for unknown remote status", result.Status)
	}
}

func TestResolve_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	result := newTestClient(srv.URL, "").Resolve(context.Background(), "https://youtube.com/watch?v=abc")

	if result.Status != domain.ExtractionError {
		t.Errorf("status = %q, want error on transport failure", result.Status)
	}
}

func TestResolve_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	result := newTestClient(srv.URL, "").Resolve(context.Background(), "https://youtube.com/watch?v=abc")

	if result.Status != domain.ExtractionError {
		t.Errorf("status = %q, want error on malformed response", result.Status)
	}
}
