package file_io

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
)

// Source is one file payload queued for upload: raw bytes plus descriptive
// metadata. A Source belongs to exactly one upload entry at a time.
type Source struct {
	Name     string
	MimeType string
	Data     []byte
}

func NewSource(name string, mimeType string, data []byte) *Source {
	if mimeType == "" {
		mimeType = DetectMimeType(name, data)
	}
	return &Source{Name: name, MimeType: mimeType, Data: data}
}

func (s *Source) Size() int64 {
	return int64(len(s.Data))
}

func (s *Source) Open() io.ReadSeeker {
	return bytes.NewReader(s.Data)
}

// reads a file from disk into a Source, sniffing the mime type from the
// extension first and the content as a fallback.
func ReadSource(path string) (*Source, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("could not get abs path for %s: %w", path, err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("could not read file %s: %w", absPath, err)
	}
	name := filepath.Base(absPath)
	return NewSource(name, "", data), nil
}

func DetectMimeType(name string, data []byte) string {
	byExt := mime.TypeByExtension(filepath.Ext(name))
	if byExt != "" {
		return byExt
	}
	return http.DetectContentType(data)
}

type ProgressReader struct {
	R          io.Reader
	Sent       int64
	Total      int64
	OnProgress func(sent int64, total int64)
}

func (pr *ProgressReader) Read(p []byte) (n int, err error) {
	n, err = pr.R.Read(p)
	sent := atomic.AddInt64(&pr.Sent, int64(n))
	pr.OnProgress(sent, pr.Total)
	return n, err
}

func Exists(inputFilePath string) (bool, error) {
	info, err := os.Stat(inputFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, fmt.Errorf("%s is a directory", inputFilePath)
	}
	return true, nil
}

type WriteMode uint8

const (
	WRITE_APPEND WriteMode = iota
	WRITE_OVERWRITE
)

func WriteToFile(filePath string, data []byte, mode WriteMode) (int, error) {
	var flags int
	switch mode {
	case WRITE_APPEND:
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	case WRITE_OVERWRITE:
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	parent := filepath.Dir(filePath)
	err := os.MkdirAll(parent, os.ModePerm)
	if err != nil {
		return 0, err
	}
	file, err := os.OpenFile(filePath, flags, 0644)
	if err != nil {
		return 0, err
	}
	defer file.Close()
	return file.Write(data)
}
