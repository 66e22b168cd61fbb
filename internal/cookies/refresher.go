package cookies

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrShutdownTimeout is returned when the refresher doesn't stop within timeout.
var ErrShutdownTimeout = errors.New("cookie refresher shutdown timed out")

// Refresher rewrites the cookie file on a fixed interval. It is started once
// at boot and stopped cooperatively on shutdown.
type Refresher struct {
	gen      *Generator
	interval time.Duration
	logger   *slog.Logger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewRefresher creates a refresher around gen.
func NewRefresher(gen *Generator, interval time.Duration, logger *slog.Logger) *Refresher {
	if interval <= 0 {
		interval = 12 * time.Hour
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Refresher{
		gen:      gen,
		interval: interval,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start writes an initial cookie file if none exists and launches the
// refresh loop.
func (r *Refresher) Start() {
	if !r.gen.FileExists() {
		if err := r.gen.WriteFile(); err != nil {
			r.logger.Error("initial cookie write failed", "error", err)
		}
	}

	r.logger.Info("starting cookie refresher", "interval", r.interval, "path", r.gen.Path())

	r.wg.Add(1)
	go r.loop()
}

// Stop cancels the refresh loop and waits for it, bounded by timeout.
func (r *Refresher) Stop(timeout time.Duration) error {
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("cookie refresher stopped")
		return nil
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}

func (r *Refresher) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			if err := r.gen.WriteFile(); err != nil {
				r.logger.Error("cookie refresh failed", "error", err)
			}
		}
	}
}
