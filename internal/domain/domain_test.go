package domain

import "testing"

func TestNormalizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already mp4", "clip.mp4", "clip.mp4"},
		{"uppercase mp4 kept", "CLIP.MP4", "CLIP.MP4"},
		{"other extension replaced", "clip.webm", "clip.mp4"},
		{"no extension appended", "clip", "clip.mp4"},
		{"multiple dots", "my.cool.clip.mov", "my.cool.clip.mp4"},
		{"trailing dot", "clip.", "clip.mp4"},
		{"empty defaults", "", "video.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeFilename(tt.in); got != tt.want {
				t.Errorf("NormalizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClassifyDeliverySize(t *testing.T) {
	limits := SizeLimits{
		SingleLimit: 45 * 1024 * 1024,
		TotalLimit:  500 * 1024 * 1024,
	}

	tests := []struct {
		name string
		size int64
		want DeliveryRoute
	}{
		{"tiny file", 1, RouteSingle},
		{"exactly single limit", limits.SingleLimit, RouteSingle},
		{"one over single limit", limits.SingleLimit + 1, RouteSegmented},
		{"exactly total limit", limits.TotalLimit, RouteSegmented},
		{"one over total limit", limits.TotalLimit + 1, RouteTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyDeliverySize(tt.size, limits); got != tt.want {
				t.Errorf("ClassifyDeliverySize(%d) = %q, want %q", tt.size, got, tt.want)
			}
		})
	}
}

func TestExtractionResultOK(t *testing.T) {
	ok := ExtractionResult{Status: ExtractionOK, MediaURL: "https://example.com/v.mp4"}
	if !ok.OK() {
		t.Error("result with ok status and locator should be OK")
	}

	noURL := ExtractionResult{Status: ExtractionOK}
	if noURL.OK() {
		t.Error("result without locator should not be OK")
	}

	failed := ExtractionResult{Status: ExtractionError, MediaURL: "https://example.com/v.mp4"}
	if failed.OK() {
		t.Error("error result should not be OK")
	}
}

func TestRequestError(t *testing.T) {
	err := NewRequestError("https://example.com/watch", "fetch", ErrFetchFailed)

	want := "fetch [https://example.com/watch]: media fetch failed"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if err.Unwrap() != ErrFetchFailed {
		t.Error("Unwrap should return the underlying error")
	}
}
