package upload

import (
	"fmt"
	"time"
	"upstack/file_io"
	L "upstack/logger"
	"upstack/transport"

	"github.com/google/uuid"
)

type EntryStatus string

const (
	STATUS_PENDING     EntryStatus = "PENDING"
	STATUS_COMPRESSING EntryStatus = "COMPRESSING"
	STATUS_UPLOADING   EntryStatus = "UPLOADING"
	STATUS_SUCCESS     EntryStatus = "SUCCESS"
	STATUS_ERROR       EntryStatus = "ERROR"
)

// Entry tracks one file through the upload lifecycle. All fields are owned
// by the scheduler once the entry is submitted; read them through Snapshot.
type Entry struct {
	Id           string
	Source       *file_io.Source
	Meta         transport.Metadata
	Name         string
	Size         int64
	MimeType     string
	Status       EntryStatus
	Progress     int
	ContentHash  string
	UploadedUrl  string
	UploadedKey  string
	ErrorMessage string
	RetryCount   int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func newEntry(src *file_io.Source, meta transport.Metadata, contentHash string) *Entry {
	now := time.Now()
	return &Entry{
		Id:          uuid.NewString(),
		Source:      src,
		Meta:        meta,
		Name:        src.Name,
		Size:        src.Size(),
		MimeType:    src.MimeType,
		Status:      STATUS_PENDING,
		ContentHash: contentHash,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (e *Entry) IsTerminal() bool {
	return e.Status == STATUS_SUCCESS || e.Status == STATUS_ERROR
}

func (e *Entry) IsActive() bool {
	return e.Status == STATUS_COMPRESSING || e.Status == STATUS_UPLOADING
}

func (e *Entry) String() string {
	return fmt.Sprintf("[Entry]\n  Id: %s\n  Name: %s\n  Size: %s\n  Status: %s\n  Progress: %d%%\n  RetryCount: %d\n",
		e.Id,
		e.Name,
		L.HumanReadableBytes(uint64(e.Size), 2),
		e.Status,
		e.Progress,
		e.RetryCount)
}

// CompletedFile is the caller-friendly shape of a successful entry.
type CompletedFile struct {
	Id       string
	Name     string
	Url      string
	Key      string
	Size     int64
	MimeType string
}

type Counts struct {
	Pending int
	Active  int
	Success int
	Error   int
}
