package domain

import "errors"

// Domain errors.
var (
	// ErrExtractionFailed is returned when the extraction service reports an error.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrFetchFailed is returned when the media download fails at the transport level.
	ErrFetchFailed = errors.New("media fetch failed")

	// ErrEmptyFile is returned when a fetched file contains zero bytes.
	ErrEmptyFile = errors.New("fetched file is empty")

	// ErrTooLarge is returned when a file exceeds the total delivery limit.
	ErrTooLarge = errors.New("file too large to send")

	// ErrSplitFailed is returned when probing or segmentation produced no usable parts.
	ErrSplitFailed = errors.New("video splitting failed")

	// ErrDeliveryFailed is returned when the messaging client rejects a payload
	// and the document fallback also fails.
	ErrDeliveryFailed = errors.New("delivery failed")
)

// RequestError wraps an error with request context.
type RequestError struct {
	URL string
	Op  string
	Err error
}

func (e *RequestError) Error() string {
	if e.URL != "" {
		return e.Op + " [" + e.URL + "]: " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewRequestError creates a new RequestError.
func NewRequestError(url, op string, err error) *RequestError {
	return &RequestError{
		URL: url,
		Op:  op,
		Err: err,
	}
}
