// Package cookies fabricates plausible-looking but non-functional cookie
// material for several social platforms and keeps a JSON file of it fresh on
// a timer. The extraction service reads the file; nothing in it is a real
// session token.
package cookies

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
)

const (
	alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	hexDigits    = "0123456789abcdef"
)

// Set is the cookie document grouped by platform.
type Set map[string][]string

// Generator produces synthetic cookie sets and writes them to an explicit
// path supplied at construction.
type Generator struct {
	path   string
	logger *slog.Logger
}

// NewGenerator creates a generator writing to path.
func NewGenerator(path string, logger *slog.Logger) *Generator {
	return &Generator{
		path:   path,
		logger: logger,
	}
}

// Path returns the file the generator writes to.
func (g *Generator) Path() string {
	return g.path
}

// Generate fabricates one full cookie set for all platforms.
func (g *Generator) Generate() Set {
	return Set{
		"instagram":        []string{instagramCookies()},
		"instagram_bearer": instagramBearerTokens(),
		"reddit":           []string{redditCookies()},
		"twitter":          []string{twitterCookies()},
		"youtube":          []string{youtubeCookies()},
	}
}

// WriteFile generates a fresh set and writes it as indented JSON.
func (g *Generator) WriteFile() error {
	data, err := json.MarshalIndent(g.Generate(), "", "    ")
	if err != nil {
		return fmt.Errorf("encode cookies: %w", err)
	}

	if dir := filepath.Dir(g.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create cookies directory: %w", err)
		}
	}

	if err := os.WriteFile(g.path, data, 0644); err != nil {
		return fmt.Errorf("write cookies: %w", err)
	}

	g.logger.Info("refreshed cookie file", "path", g.path)
	return nil
}

// FileExists reports whether a cookie file is already present.
func (g *Generator) FileExists() bool {
	_, err := os.Stat(g.path)
	return err == nil
}

func randomString(length int) string {
	return randomFrom(alphanumeric, length)
}

func randomHex(length int) string {
	return randomFrom(hexDigits, length)
}

func randomFrom(charset string, length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}

func instagramCookies() string {
	return fmt.Sprintf("mid=%s; ig_did=%s; csrftoken=%s; ds_user_id=%d; sessionid=%s",
		randomString(24),
		randomHex(32),
		randomString(32),
		100000000+rand.Intn(900000000),
		randomString(32),
	)
}

func instagramBearerTokens() []string {
	return []string{
		"token=" + randomString(40),
		"token=IGT:2:" + randomString(32),
	}
}

func redditCookies() string {
	return fmt.Sprintf("client_id=%s; client_secret=%s; refresh_token=%s",
		randomString(22),
		randomString(27),
		randomString(43),
	)
}

func twitterCookies() string {
	return fmt.Sprintf("auth_token=%s; ct0=%s", randomString(32), randomString(32))
}

func youtubeCookies() string {
	return fmt.Sprintf("cookie=%s; b=%s", randomString(40), randomString(20))
}
