// Package workspace manages per-request isolated temporary directories.
//
// Every request gets a uniquely named directory under a fixed base path.
// The directory owns all files created while servicing the request and is
// removed as a whole on every exit path.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Manager allocates and destroys request workspaces.
type Manager struct {
	basePath string
	logger   *slog.Logger
}

// NewManager creates a workspace manager rooted at basePath.
// The base directory is created if it does not exist.
func NewManager(basePath string, logger *slog.Logger) (*Manager, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}
	return &Manager{
		basePath: basePath,
		logger:   logger,
	}, nil
}

// BasePath returns the workspace root directory.
func (m *Manager) BasePath() string {
	return m.basePath
}

// Allocate creates a fresh, collision-resistant workspace directory and
// returns its path.
func (m *Manager) Allocate() (string, error) {
	name := "video_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	dir := filepath.Join(m.basePath, name)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}

	m.logger.Info("created workspace", "path", dir)
	return dir, nil
}

// Release recursively removes a workspace and everything in it.
// It is idempotent and never fails the caller: removal errors are logged only.
func (m *Manager) Release(dir string) {
	if dir == "" {
		return
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		m.logger.Info("workspace already removed", "path", dir)
		return
	}

	if err := os.RemoveAll(dir); err != nil {
		m.logger.Error("failed to remove workspace", "path", dir, "error", err)
		return
	}

	m.logger.Info("removed workspace", "path", dir)
}

// Sweep empties the workspace root, clearing directories leaked by an
// earlier abrupt shutdown. Called once at boot.
func (m *Manager) Sweep() {
	entries, err := os.ReadDir(m.basePath)
	if err != nil {
		m.logger.Error("failed to read workspace root", "path", m.basePath, "error", err)
		return
	}

	removed := 0
	for _, entry := range entries {
		path := filepath.Join(m.basePath, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			m.logger.Error("failed to remove leftover entry", "path", path, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		m.logger.Info("cleaned workspace root", "removed", removed)
	}
}
