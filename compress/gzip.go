package compress

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"upstack/file_io"
	L "upstack/logger"
)

type GzipCompressor struct {
	level int
}

func NewGzipCompressor(level int) (*GzipCompressor, error) {
	if level != gzip.DefaultCompression && (level < gzip.NoCompression || level > gzip.BestCompression) {
		return nil, fmt.Errorf("gzip: invalid compression level: %d", level)
	}
	return &GzipCompressor{level: level}, nil
}

func (g *GzipCompressor) Compress(ctx context.Context, src *file_io.Source) (*file_io.Source, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, g.level)
	if err != nil {
		return nil, &CompressionError{Name: src.Name, Err: err}
	}
	w.Name = src.Name
	_, err = w.Write(src.Data)
	if err != nil {
		return nil, &CompressionError{Name: src.Name, Err: err}
	}
	err = w.Close()
	if err != nil {
		return nil, &CompressionError{Name: src.Name, Err: err}
	}

	if int64(buf.Len()) >= src.Size() {
		return nil, &CompressionError{Name: src.Name, Err: ErrNotSmaller}
	}

	L.Debug(fmt.Sprintf("gzip: %s %s -> %s",
		src.Name,
		L.HumanReadableBytes(uint64(src.Size()), 1),
		L.HumanReadableBytes(uint64(buf.Len()), 1)))

	return &file_io.Source{
		Name:     src.Name + ".gz",
		MimeType: "application/gzip",
		Data:     buf.Bytes(),
	}, nil
}
