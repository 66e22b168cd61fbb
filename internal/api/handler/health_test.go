package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/iconidentify/vidrelay/internal/domain"
	"github.com/iconidentify/vidrelay/internal/history"
)

func newTestStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLive(t *testing.T) {
	h := NewHealthHandler(newTestStore(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Live(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status field = %q, want ok", resp.Status)
	}
}

func TestReady(t *testing.T) {
	h := NewHealthHandler(newTestStore(t))

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	h.Ready(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestReady_ClosedStore(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	store.Close()

	h := NewHealthHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	h.Ready(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	err := store.Record(context.Background(), domain.DeliveryRecord{
		URL:       "https://youtube.com/watch?v=abc",
		ChatID:    42,
		Route:     domain.RouteSingle,
		Status:    domain.DeliveryDelivered,
		SizeBytes: 1024,
		Parts:     1,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	h := NewHealthHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	h.Stats(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp StatsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if resp.Deliveries == nil || resp.Deliveries.Total != 1 {
		t.Errorf("deliveries = %+v, want total 1", resp.Deliveries)
	}
	if resp.NumGoroutines <= 0 {
		t.Errorf("num_goroutines = %d, want > 0", resp.NumGoroutines)
	}
}
