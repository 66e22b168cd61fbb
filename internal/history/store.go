// Package history persists delivery outcomes in a local SQLite database.
// It backs the ops /stats and /ready endpoints.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/iconidentify/vidrelay/internal/domain"
)

// Store is a SQLite-backed delivery history.
type Store struct {
	db *sql.DB
}

// Stats aggregates delivery counters.
type Stats struct {
	Total      int   `json:"total"`
	Delivered  int   `json:"delivered"`
	Failed     int   `json:"failed"`
	Segmented  int   `json:"segmented"`
	TotalBytes int64 `json:"total_bytes"`
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS deliveries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			url TEXT NOT NULL,
			chat_id INTEGER NOT NULL,
			route TEXT NOT NULL,
			status TEXT NOT NULL,
			size_bytes INTEGER NOT NULL,
			parts INTEGER NOT NULL,
			error TEXT,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_deliveries_created_at ON deliveries(created_at);
		CREATE INDEX IF NOT EXISTS idx_deliveries_status ON deliveries(status);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &Store{db: db}, nil
}

// Record inserts one delivery outcome.
func (s *Store) Record(ctx context.Context, rec domain.DeliveryRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deliveries (url, chat_id, route, status, size_bytes, parts, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.URL, rec.ChatID, string(rec.Route), string(rec.Status),
		rec.SizeBytes, rec.Parts, rec.Error, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

// Recent returns the most recent deliveries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.DeliveryRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, chat_id, route, status, size_bytes, parts, COALESCE(error, ''), created_at
		FROM deliveries ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	var records []domain.DeliveryRecord
	for rows.Next() {
		var rec domain.DeliveryRecord
		var route, status string
		if err := rows.Scan(&rec.ID, &rec.URL, &rec.ChatID, &route, &status,
			&rec.SizeBytes, &rec.Parts, &rec.Error, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		rec.Route = domain.DeliveryRoute(route)
		rec.Status = domain.DeliveryStatus(status)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Stats aggregates counters over the full history.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'delivered' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN route = 'segmented' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(size_bytes), 0)
		FROM deliveries`)

	stats := &Stats{}
	if err := row.Scan(&stats.Total, &stats.Delivered, &stats.Failed, &stats.Segmented, &stats.TotalBytes); err != nil {
		return nil, fmt.Errorf("scan stats: %w", err)
	}
	return stats, nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
