// Package bot runs the Telegram intake loop: it validates inbound messages
// and inline queries, and drives the media pipeline for each accepted URL.
package bot

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/iconidentify/vidrelay/internal/delivery"
	"github.com/iconidentify/vidrelay/internal/domain"
	"github.com/iconidentify/vidrelay/internal/extractor"
)

// User-facing intake messages.
const (
	msgWelcome        = "👋 Hi! Send me a link to a video from a supported platform and I'll download it for you."
	msgProcessing     = "⏳ Processing your video download request..."
	msgDownloadFailed = "❌ Couldn't download the video. Please check the link and try again."

	inlineThumbPlaceholder = "https://via.placeholder.com/320x180?text=Video"
)

// Bot is the Telegram-facing intake layer.
type Bot struct {
	api          *tgbotapi.BotAPI
	requester    apiRequester
	messenger    delivery.Messenger
	extractor    extractor.Client
	fetcher      Fetcher
	orchestrator Deliverer
	workspaces   WorkspaceManager

	blockedThreads map[int]struct{}
	pollTimeout    time.Duration
	logger         *slog.Logger

	// wg tracks in-flight request handlers for graceful shutdown.
	wg sync.WaitGroup
}

// Config holds intake behavior settings.
type Config struct {
	BlockedThreads []int
	PollTimeout    time.Duration
}

// New creates the intake layer around an authorized API client and the
// pipeline collaborators.
func New(
	api *tgbotapi.BotAPI,
	cfg Config,
	ext extractor.Client,
	f Fetcher,
	orch Deliverer,
	ws WorkspaceManager,
	logger *slog.Logger,
) *Bot {
	blocked := make(map[int]struct{}, len(cfg.BlockedThreads))
	for _, id := range cfg.BlockedThreads {
		blocked[id] = struct{}{}
	}

	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 30 * time.Second
	}

	return &Bot{
		api:            api,
		requester:      api,
		messenger:      NewTelegramMessenger(api, logger),
		extractor:      ext,
		fetcher:        f,
		orchestrator:   orch,
		workspaces:     ws,
		blockedThreads: blocked,
		pollTimeout:    cfg.PollTimeout,
		logger:         logger,
	}
}

// Run long-polls for updates until ctx is cancelled, then waits for
// in-flight handlers to finish.
func (b *Bot) Run(ctx context.Context) {
	b.logger.Info("starting update loop", "bot", b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(b.pollTimeout.Seconds())
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			b.logger.Info("update loop stopped")
			return

		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return
			}
			b.dispatch(ctx, update)
		}
	}
}

// dispatch hands one update to its handler. Each accepted request runs in
// its own goroutine so a long download never blocks other chats.
func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.InlineQuery != nil:
		query := update.InlineQuery
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.handleInlineQuery(ctx, query)
		}()

	case update.Message != nil && update.Message.Text != "":
		msg := update.Message
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.handleMessage(ctx, msg)
		}()
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			if _, err := b.messenger.SendMessage(msg.Chat.ID, messageThreadID(msg), msgWelcome); err != nil {
				b.logger.Error("failed to send welcome", "error", err)
			}
		}
		return
	}

	threadID := messageThreadID(msg)
	if _, blocked := b.blockedThreads[threadID]; blocked {
		return
	}

	// Plain text without a supported domain is silently ignored. The gate
	// runs on the URL that will actually be resolved.
	url := requestURL(msg.Text)
	if !matchesSupportedDomain(url) {
		return
	}

	req := domain.Request{
		URL:       url,
		ChatID:    msg.Chat.ID,
		ThreadID:  threadID,
		Mention:   userMention(msg.From),
		Text:      url,
		MessageID: msg.MessageID,
		CreatedAt: time.Now(),
	}

	logger := b.logger.With("url", url, "chat_id", req.ChatID)
	logger.Info("handling download request")

	placeholder, phErr := b.messenger.SendMessage(req.ChatID, req.ThreadID, msgProcessing)
	defer func() {
		// The placeholder is superseded whichever way handling went.
		if phErr == nil {
			if err := b.messenger.DeleteMessage(placeholder); err != nil {
				logger.Error("failed to delete processing placeholder", "error", err)
			}
		}
	}()

	dir, err := b.workspaces.Allocate()
	if err != nil {
		logger.Error("failed to allocate workspace", "error", err)
		b.sendText(req, msgDownloadFailed)
		return
	}
	defer b.workspaces.Release(dir)

	result := b.extractor.Resolve(ctx, req.URL)
	if !result.OK() {
		logger.Error("request failed",
			"error", domain.NewRequestError(req.URL, "resolve", domain.ErrExtractionFailed))
		b.sendText(req, msgDownloadFailed)
		return
	}

	media, err := b.fetcher.Fetch(ctx, result.MediaURL, dir, result.Filename)
	if err != nil {
		logger.Error("request failed", "error", domain.NewRequestError(req.URL, "fetch", err))
		b.sendText(req, msgDownloadFailed)
		return
	}

	if err := b.orchestrator.Deliver(ctx, req, media, dir); err != nil {
		// Delivery reports its own user-facing messages.
		logger.Error("request failed", "error", domain.NewRequestError(req.URL, "deliver", err))
		return
	}

	// The original request message is superseded by the delivered media.
	if err := b.messenger.DeleteMessage(delivery.MessageRef{ChatID: req.ChatID, MessageID: req.MessageID}); err != nil {
		logger.Info("could not delete request message", "error", err)
	}
}

func (b *Bot) handleInlineQuery(ctx context.Context, query *tgbotapi.InlineQuery) {
	text := strings.TrimSpace(query.Query)

	// The allow-list gate runs on the URL that will actually be resolved,
	// not on the surrounding query text.
	url := requestURL(text)
	if url == "" || !matchesSupportedDomain(url) {
		b.answerInline(query.ID, nil)
		return
	}

	result := b.extractor.Resolve(ctx, url)
	if !result.OK() {
		// Non-resolvable queries yield an empty result set, never an error entry.
		b.answerInline(query.ID, nil)
		return
	}

	thumb := result.ThumbnailURL
	if thumb == "" {
		thumb = inlineThumbPlaceholder
	}

	video := tgbotapi.NewInlineQueryResultVideo(uuid.NewString(), result.MediaURL)
	video.MimeType = "video/mp4"
	video.ThumbURL = thumb
	video.Title = "Video"

	b.answerInline(query.ID, []interface{}{video})
}

func (b *Bot) answerInline(queryID string, results []interface{}) {
	answer := tgbotapi.InlineConfig{
		InlineQueryID: queryID,
		Results:       results,
		IsPersonal:    true,
		CacheTime:     1,
	}
	if _, err := b.requester.Request(answer); err != nil {
		b.logger.Error("failed to answer inline query", "error", err)
	}
}

func (b *Bot) sendText(req domain.Request, text string) {
	if _, err := b.messenger.SendMessage(req.ChatID, req.ThreadID, text); err != nil {
		b.logger.Error("failed to send message", "chat_id", req.ChatID, "error", err)
	}
}

// messageThreadID derives the forum-topic discriminator for a message.
// Topic messages arrive as replies to the topic's thread root, so the reply
// target's ID identifies the thread; plain chat messages yield 0.
func messageThreadID(msg *tgbotapi.Message) int {
	if msg.ReplyToMessage != nil {
		return msg.ReplyToMessage.MessageID
	}
	return 0
}

// userMention renders the requester's handle for captions: @username when
// set, the display name otherwise.
func userMention(from *tgbotapi.User) string {
	if from == nil {
		return ""
	}
	if from.UserName != "" {
		return "@" + from.UserName
	}
	name := from.FirstName
	if from.LastName != "" {
		name += " " + from.LastName
	}
	return name
}
