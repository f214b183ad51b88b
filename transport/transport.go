package transport

import (
	"context"
	"fmt"
	"time"
	"upstack/config"
	"upstack/file_io"
)

type StatusCategory int

const (
	STATUS_RATE_LIMITED StatusCategory = iota
	STATUS_CLIENT_ERROR
	STATUS_SERVER_ERROR
)

func (c StatusCategory) String() string {
	switch c {
	case STATUS_RATE_LIMITED:
		return "RATE_LIMITED"
	case STATUS_CLIENT_ERROR:
		return "CLIENT_ERROR"
	case STATUS_SERVER_ERROR:
		return "SERVER_ERROR"
	default:
		return "UNKNOWN"
	}
}

// TransportError is a structured upload failure. RetryAfter is only set for
// STATUS_RATE_LIMITED responses.
type TransportError struct {
	Category   StatusCategory
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *TransportError) Error() string {
	if e.Category == STATUS_RATE_LIMITED {
		return fmt.Sprintf("transport: rate limited (status %d, retry after %s)", e.StatusCode, e.RetryAfter)
	}
	return fmt.Sprintf("transport: %s (status %d): %s", e.Category, e.StatusCode, e.Message)
}

// Metadata carries the upload call contract fields alongside the payload.
type Metadata struct {
	EntityType config.EntityType
	EntityId   string
	Category   config.Category
	FileType   string
}

type Result struct {
	Url string
	Key string
}

// ProgressFunc receives a monotonically increasing value between 0 and 100.
type ProgressFunc func(percent int)

// Uploader performs one upload call. Cancellation is requested through ctx;
// the implementation is expected to honor it promptly.
type Uploader interface {
	Upload(ctx context.Context, src *file_io.Source, meta Metadata, onProgress ProgressFunc) (*Result, error)
}
