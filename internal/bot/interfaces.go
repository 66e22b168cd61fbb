package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iconidentify/vidrelay/internal/domain"
)

// Fetcher streams a resolved media locator into a workspace.
type Fetcher interface {
	Fetch(ctx context.Context, locator, dir, filename string) (domain.FetchedMedia, error)
}

// Deliverer routes fetched media to the requesting chat.
type Deliverer interface {
	Deliver(ctx context.Context, req domain.Request, media domain.FetchedMedia, dir string) error
}

// WorkspaceManager owns per-request temporary directories.
type WorkspaceManager interface {
	// Allocate creates a fresh workspace directory and returns its path.
	Allocate() (string, error)

	// Release recursively removes a workspace. Never fails the caller.
	Release(dir string)
}

// apiRequester is the slice of the Telegram client used for raw API calls
// that carry no media payload (inline-query answers).
type apiRequester interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}
