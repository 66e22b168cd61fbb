// Package delivery routes fetched media to the requester, segmenting
// oversized files and falling back to document uploads when a video send is
// rejected.
package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/iconidentify/vidrelay/internal/domain"
)

// User-facing delivery messages.
const (
	msgTooLarge       = "⚠️ File is too large (%.2fMB) and exceeds the %.0fMB limit. Cannot send."
	msgPreparingParts = "File is too large (%.2fMB). Preparing video parts..."
	msgPartProgress   = "%d/%d..."
	msgAllPartsSent   = "✅ All video parts sent!"
	msgSplittingError = "❌ Error splitting the video. Please try another link."
	fallbackNote      = " (sent as a file due to an error)"
)

// MediaProcessor is the segmentation and thumbnailing surface the
// orchestrator needs from the media package.
type MediaProcessor interface {
	Split(ctx context.Context, mediaPath, dir string) (domain.PartSet, error)
	Thumbnail(ctx context.Context, mediaPath, dir, discriminator string) (string, bool)
}

// Recorder persists delivery outcomes.
type Recorder interface {
	Record(ctx context.Context, rec domain.DeliveryRecord) error
}

// Orchestrator decides single-file vs multi-part delivery and drives the
// segmenter, thumbnailer and messenger accordingly.
type Orchestrator struct {
	messenger Messenger
	media     MediaProcessor
	recorder  Recorder
	limits    domain.SizeLimits
	logger    *slog.Logger
}

// NewOrchestrator creates a delivery orchestrator.
func NewOrchestrator(
	messenger Messenger,
	media MediaProcessor,
	recorder Recorder,
	limits domain.SizeLimits,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		messenger: messenger,
		media:     media,
		recorder:  recorder,
		limits:    limits,
		logger:    logger,
	}
}

// Deliver sends fetched media to the requesting chat. dir is the request
// workspace the media lives in; segments and thumbnails are produced there.
// User-facing failure messages for the delivery stage are sent here; the
// caller only needs the returned error for its own reporting.
func (o *Orchestrator) Deliver(ctx context.Context, req domain.Request, media domain.FetchedMedia, dir string) error {
	route := domain.ClassifyDeliverySize(media.Size, o.limits)
	logger := o.logger.With("url", req.URL, "chat_id", req.ChatID, "route", string(route))
	logger.Info("delivering media", "size_mb", fmt.Sprintf("%.2f", media.SizeMB()))

	var parts int
	var err error
	switch route {
	case domain.RouteSingle:
		err = o.deliverSingle(ctx, req, media, dir)

	case domain.RouteSegmented:
		parts, err = o.deliverSegmented(ctx, req, media, dir)

	case domain.RouteTooLarge:
		o.sendText(req, fmt.Sprintf(msgTooLarge, media.SizeMB(), float64(o.limits.TotalLimit)/(1024*1024)))
		err = fmt.Errorf("%w: %.2fMB", domain.ErrTooLarge, media.SizeMB())
	}

	o.record(ctx, req, media, route, parts, err)
	return err
}

func (o *Orchestrator) deliverSingle(ctx context.Context, req domain.Request, media domain.FetchedMedia, dir string) error {
	thumbPath, _ := o.media.Thumbnail(ctx, media.Path, dir, "")
	caption := fmt.Sprintf("%s\n%s\n%s", media.Filename, req.Mention, req.Text)

	return o.sendPlayable(req, media.Path, caption, thumbPath)
}

func (o *Orchestrator) deliverSegmented(ctx context.Context, req domain.Request, media domain.FetchedMedia, dir string) (int, error) {
	placeholder, phErr := o.messenger.SendMessage(req.ChatID, req.ThreadID,
		fmt.Sprintf(msgPreparingParts, media.SizeMB()))

	parts, err := o.media.Split(ctx, media.Path, dir)

	// The placeholder is superseded whichever way splitting went.
	if phErr == nil {
		if delErr := o.messenger.DeleteMessage(placeholder); delErr != nil {
			o.logger.Error("failed to delete splitting placeholder", "error", delErr)
		}
	}

	if err != nil {
		o.sendText(req, msgSplittingError)
		return 0, err
	}

	for _, part := range parts {
		thumbPath, _ := o.media.Thumbnail(ctx, part.Path, dir, strconv.Itoa(part.Index))
		caption := partCaption(part, req)

		o.logger.Info("sending part",
			"index", part.Index,
			"total", part.Total,
			"size_mb", fmt.Sprintf("%.2f", float64(part.Size)/(1024*1024)),
		)

		if err := o.sendPlayable(req, part.Path, caption, thumbPath); err != nil {
			// Partial delivery is accepted; later parts are still attempted.
			o.logger.Error("part delivery failed",
				"index", part.Index,
				"total", part.Total,
				"error", err,
			)
		}
	}

	return len(parts), nil
}

// sendPlayable uploads a file as a video and, if the messenger rejects it,
// retries exactly once as a generic document with a fallback annotation.
func (o *Orchestrator) sendPlayable(req domain.Request, path, caption, thumbPath string) error {
	err := o.messenger.SendVideo(req.ChatID, req.ThreadID, path, caption, thumbPath)
	if err == nil {
		return nil
	}

	o.logger.Error("video send rejected, retrying as document", "path", path, "error", err)

	if docErr := o.messenger.SendDocument(req.ChatID, req.ThreadID, path, caption+fallbackNote); docErr != nil {
		o.logger.Error("document fallback failed", "path", path, "error", docErr)
		return fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, docErr)
	}
	return nil
}

// partCaption builds the position marker for a part: attribution on the
// first part, a terminal marker on the last, a bare position in between.
func partCaption(part domain.Part, req domain.Request) string {
	switch {
	case part.Index == 1:
		return fmt.Sprintf(msgPartProgress, part.Index, part.Total) +
			"\n" + req.Mention + "\n" + req.URL
	case part.Index == part.Total:
		return msgAllPartsSent
	default:
		return fmt.Sprintf(msgPartProgress, part.Index, part.Total)
	}
}

func (o *Orchestrator) sendText(req domain.Request, text string) {
	if _, err := o.messenger.SendMessage(req.ChatID, req.ThreadID, text); err != nil {
		o.logger.Error("failed to send status message", "chat_id", req.ChatID, "error", err)
	}
}

func (o *Orchestrator) record(ctx context.Context, req domain.Request, media domain.FetchedMedia, route domain.DeliveryRoute, parts int, err error) {
	if o.recorder == nil {
		return
	}

	rec := domain.DeliveryRecord{
		URL:       req.URL,
		ChatID:    req.ChatID,
		Route:     route,
		Status:    domain.DeliveryDelivered,
		SizeBytes: media.Size,
		Parts:     parts,
		CreatedAt: time.Now(),
	}
	if err != nil {
		rec.Status = domain.DeliveryFailed
		rec.Error = err.Error()
	}

	if recErr := o.recorder.Record(ctx, rec); recErr != nil {
		o.logger.Error("failed to record delivery", "error", recErr)
	}
}
