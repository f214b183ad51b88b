package compress

import (
	"context"
	"errors"
	"fmt"
	"upstack/file_io"
)

// Compressor shrinks a source payload before upload. Compression is a
// best-effort optimization: callers fall back to the original source when a
// CompressionError is returned.
type Compressor interface {
	Compress(ctx context.Context, src *file_io.Source) (*file_io.Source, error)
}

var ErrNotSmaller = errors.New("compressed output is not smaller than input")

type CompressionError struct {
	Name string
	Err  error
}

func (e *CompressionError) Error() string {
	return fmt.Sprintf("compress: %s: %v", e.Name, e.Err)
}

func (e *CompressionError) Unwrap() error {
	return e.Err
}
