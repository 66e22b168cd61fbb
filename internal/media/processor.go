// Package media wraps ffmpeg and ffprobe for probing, stream-copy
// segmentation and thumbnail extraction.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/iconidentify/vidrelay/internal/domain"
)

// minSegmentSeconds protects against pathologically short segments when the
// computed part count is large relative to the clip duration.
const minSegmentSeconds = 30

// thumbnailOffset is where the preview frame is taken from.
const thumbnailOffset = "00:00:03"

// Processor runs media tooling inside request workspaces.
type Processor struct {
	ffmpegPath  string
	ffprobePath string
	runner      Runner
	// partSizeLimit is the single-delivery threshold driving the part count.
	partSizeLimit int64
	logger        *slog.Logger
}

// NewProcessor creates a processor, locating ffmpeg and ffprobe in PATH.
func NewProcessor(partSizeLimit int64, logger *slog.Logger) (*Processor, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}

	return &Processor{
		ffmpegPath:    ffmpegPath,
		ffprobePath:   ffprobePath,
		runner:        execRunner{},
		partSizeLimit: partSizeLimit,
		logger:        logger,
	}, nil
}

// Duration probes the total duration of a media file in seconds.
func (p *Processor) Duration(ctx context.Context, mediaPath string) (float64, error) {
	out, err := p.runner.Run(ctx, p.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		mediaPath,
	)
	if err != nil {
		return 0, fmt.Errorf("probe duration: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(string(out)), err)
	}
	return duration, nil
}

// SegmentDuration derives the per-part duration for a file of the given size
// and total duration, floored at minSegmentSeconds.
func (p *Processor) SegmentDuration(totalDuration float64, fileSize int64) (numParts int, segmentSeconds int) {
	limitMB := float64(p.partSizeLimit) / (1024 * 1024)
	sizeMB := float64(fileSize) / (1024 * 1024)

	numParts = int(math.Ceil(sizeMB / limitMB))
	if numParts < 1 {
		numParts = 1
	}

	segmentSeconds = int(math.Floor(totalDuration / float64(numParts)))
	if segmentSeconds < minSegmentSeconds {
		segmentSeconds = minSegmentSeconds
	}
	return numParts, segmentSeconds
}

// Split slices an oversized media file into independently playable parts
// using stream-copy segmentation. The returned set contains only non-empty
// parts, renumbered contiguously from 1. Probe failure, a segmentation tool
// failure or zero valid parts all yield ErrSplitFailed.
func (p *Processor) Split(ctx context.Context, mediaPath, dir string) (domain.PartSet, error) {
	totalDuration, err := p.Duration(ctx, mediaPath)
	if err != nil {
		p.logger.Error("failed to probe media duration", "path", mediaPath, "error", err)
		return nil, domain.ErrSplitFailed
	}

	stat, err := os.Stat(mediaPath)
	if err != nil {
		return nil, fmt.Errorf("stat media: %w", err)
	}

	numParts, segmentSeconds := p.SegmentDuration(totalDuration, stat.Size())
	p.logger.Info("splitting media",
		"path", mediaPath,
		"duration_s", totalDuration,
		"parts", numParts,
		"segment_s", segmentSeconds,
	)

	outputPattern := filepath.Join(dir, "part_%03d.mp4")
	_, err = p.runner.Run(ctx, p.ffmpegPath,
		"-i", mediaPath,
		"-c", "copy",
		"-map", "0",
		"-f", "segment",
		"-segment_time", strconv.Itoa(segmentSeconds),
		"-reset_timestamps", "1",
		"-segment_format", "mp4",
		outputPattern,
	)
	if err != nil {
		p.logger.Error("segmentation failed", "path", mediaPath, "error", err)
		return nil, domain.ErrSplitFailed
	}

	parts, err := p.collectParts(dir)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		p.logger.Error("segmentation produced no usable parts", "path", mediaPath)
		return nil, domain.ErrSplitFailed
	}
	return parts, nil
}

// collectParts enumerates produced part files in sequence order, dropping
// zero-byte parts and renumbering the survivors.
func (p *Processor) collectParts(dir string) (domain.PartSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read workspace: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, "part_") && strings.HasSuffix(name, ".mp4") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var parts domain.PartSet
	for _, name := range names {
		path := filepath.Join(dir, name)
		stat, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat part: %w", err)
		}
		if stat.Size() == 0 {
			p.logger.Error("dropping empty part file", "path", path)
			continue
		}
		parts = append(parts, domain.Part{
			Path: path,
			Size: stat.Size(),
		})
	}

	for i := range parts {
		parts[i].Index = i + 1
		parts[i].Total = len(parts)
	}
	return parts, nil
}

// Thumbnail extracts a single still frame for use as a delivery preview.
// The discriminator keeps filenames unique across parts processed in
// sequence; pass an empty string for a single file. Absence is not an error:
// on any failure the second return is false and delivery proceeds bare.
func (p *Processor) Thumbnail(ctx context.Context, mediaPath, dir, discriminator string) (string, bool) {
	name := "thumbnail.jpg"
	if discriminator != "" {
		name = "thumbnail_" + discriminator + ".jpg"
	}
	thumbPath := filepath.Join(dir, name)

	_, err := p.runner.Run(ctx, p.ffmpegPath,
		"-i", mediaPath,
		"-ss", thumbnailOffset,
		"-frames:v", "1",
		"-q:v", "2",
		"-f", "image2",
		thumbPath,
	)
	if err != nil {
		p.logger.Error("thumbnail extraction failed", "path", mediaPath, "error", err)
		return "", false
	}

	stat, err := os.Stat(thumbPath)
	if err != nil || stat.Size() == 0 {
		p.logger.Error("thumbnail file missing or empty", "path", thumbPath)
		return "", false
	}

	p.logger.Info("created thumbnail", "path", thumbPath)
	return thumbPath, true
}
