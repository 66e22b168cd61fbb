package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Request describes one inbound delivery request, immutable after validation.
type Request struct {
	URL      string
	ChatID   int64
	ThreadID int
	// Mention is the requester's display handle used in captions. May be empty.
	Mention string
	// Text is the original message text the URL was found in.
	Text      string
	MessageID int
	CreatedAt time.Time
}

// ExtractionStatus is the outcome category of an extraction call.
type ExtractionStatus string

const (
	ExtractionOK          ExtractionStatus = "ok"
	ExtractionError       ExtractionStatus = "error"
	ExtractionUnsupported ExtractionStatus = "unsupported"
)

// ExtractionResult is what the extraction service resolved a source URL into.
type ExtractionResult struct {
	Status ExtractionStatus
	// MediaURL is the direct, downloadable locator.
	MediaURL string
	// Filename is the suggested filename, normalized to an .mp4 extension.
	Filename string
	// ThumbnailURL is an optional preview image locator.
	ThumbnailURL string
}

// OK reports whether the extraction produced a usable media locator.
func (r ExtractionResult) OK() bool {
	return r.Status == ExtractionOK && r.MediaURL != ""
}

// FetchedMedia is a media file downloaded into a workspace.
type FetchedMedia struct {
	Path     string
	Filename string
	Size     int64
}

// SizeMB returns the file size in megabytes.
func (m FetchedMedia) SizeMB() float64 {
	return float64(m.Size) / (1024 * 1024)
}

// Part is one bounded-size slice of an oversized media file.
type Part struct {
	Path  string
	Size  int64
	Index int // 1-based
	Total int
}

// PartSet is an ordered, contiguously numbered sequence of non-empty parts.
type PartSet []Part

// DeliveryRoute classifies how a fetched file is delivered.
type DeliveryRoute string

const (
	RouteSingle    DeliveryRoute = "single"
	RouteSegmented DeliveryRoute = "segmented"
	RouteTooLarge  DeliveryRoute = "too_large"
)

// SizeLimits holds the two delivery size thresholds in bytes.
// TotalLimit is always greater than SingleLimit.
type SizeLimits struct {
	SingleLimit int64
	TotalLimit  int64
}

// SingleLimitMB returns the single-delivery threshold in megabytes.
func (l SizeLimits) SingleLimitMB() float64 {
	return float64(l.SingleLimit) / (1024 * 1024)
}

// ClassifyDeliverySize maps a file size onto a delivery route.
func ClassifyDeliverySize(size int64, limits SizeLimits) DeliveryRoute {
	switch {
	case size <= limits.SingleLimit:
		return RouteSingle
	case size <= limits.TotalLimit:
		return RouteSegmented
	default:
		return RouteTooLarge
	}
}

// NormalizeFilename rewrites a filename to carry an .mp4 extension,
// preserving the base name before the last dot if one exists.
func NormalizeFilename(name string) string {
	if name == "" {
		return "video.mp4"
	}
	if strings.EqualFold(filepath.Ext(name), ".mp4") {
		return name
	}
	if ext := filepath.Ext(name); ext != "" {
		return strings.TrimSuffix(name, ext) + ".mp4"
	}
	return name + ".mp4"
}
