package upload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"upstack/compress"
	"upstack/dedup"
	"upstack/file_io"
	L "upstack/logger"
	"upstack/transport"
)

const (
	DEFAULT_MAX_CONCURRENT         = 3
	DEFAULT_MAX_RATE_LIMIT_RETRIES = 5
)

var ErrEntryNotFound = errors.New("no entry exists with the given id")
var ErrSchedulerClosed = errors.New("scheduler is closed")

type Options struct {
	// concurrency ceiling over COMPRESSING+UPLOADING entries.
	MaxConcurrent int
	// sources above this size go through the compressor first. zero disables
	// compression entirely.
	CompressThresholdBytes int64
	// how many rate-limit requeues a single entry survives before it is
	// marked as failed.
	MaxRateLimitRetries int

	// per-entry notifications, invoked outside the scheduler lock with a
	// copy of the entry. completion order is unconstrained.
	OnSuccess  func(Entry)
	OnError    func(Entry)
	OnProgress func(Entry)
}

// Scheduler drains a FIFO queue of upload entries through the compressor and
// the transport with bounded concurrency. Slots are virtual: each active
// entry runs in its own goroutine and a completion frees its slot for the
// next pending entry. All shared state is owned by a single mutex.
type Scheduler struct {
	transport  transport.Uploader
	compressor compress.Compressor
	opts       Options
	limiter    *RateLimiter

	mu      sync.Mutex
	entries []*Entry
	cancels map[string]context.CancelFunc
	removed map[string]bool
	active  int
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(uploader transport.Uploader, compressor compress.Compressor, opts Options) *Scheduler {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DEFAULT_MAX_CONCURRENT
	}
	if opts.MaxRateLimitRetries <= 0 {
		opts.MaxRateLimitRetries = DEFAULT_MAX_RATE_LIMIT_RETRIES
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		transport:  uploader,
		compressor: compressor,
		opts:       opts,
		cancels:    make(map[string]context.CancelFunc),
		removed:    make(map[string]bool),
		ctx:        ctx,
		cancel:     cancel,
	}
	s.limiter = NewRateLimiter(s.schedule)
	return s
}

// Submit hashes each source, appends a PENDING entry per source and kicks
// the drain loop. Returns the created entry ids in submission order.
func (s *Scheduler) Submit(meta transport.Metadata, sources []*file_io.Source) ([]string, error) {
	built := make([]*Entry, 0, len(sources))
	for _, src := range sources {
		digest, err := dedup.Digest(src)
		if err != nil {
			return nil, err
		}
		built = append(built, newEntry(src, meta, digest))
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSchedulerClosed
	}
	ids := make([]string, 0, len(built))
	for _, e := range built {
		s.entries = append(s.entries, e)
		ids = append(ids, e.Id)
	}
	s.scheduleLocked()
	s.mu.Unlock()
	return ids, nil
}

// Remove deletes an entry. A PENDING, ERROR or SUCCESS entry is removed
// synchronously; an in-flight entry has its upload cancelled and disappears
// from the queue immediately, freeing its slot once the transport returns.
func (s *Scheduler) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return ErrEntryNotFound
	}
	e := s.entries[idx]
	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)

	if e.IsActive() {
		s.removed[e.Id] = true
		if cancel, ok := s.cancels[e.Id]; ok {
			cancel()
		}
		return nil
	}
	s.scheduleLocked()
	return nil
}

// Retry requeues an ERROR entry. Valid on no other state.
func (s *Scheduler) Retry(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return ErrEntryNotFound
	}
	e := s.entries[idx]
	if e.Status != STATUS_ERROR {
		return fmt.Errorf("can only retry a failed entry, %s is %s", e.Id, e.Status)
	}
	e.Status = STATUS_PENDING
	e.ErrorMessage = ""
	e.Progress = 0
	e.RetryCount = 0
	e.UpdatedAt = time.Now()
	s.scheduleLocked()
	return nil
}

func (s *Scheduler) ClearCompleted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.Status != STATUS_SUCCESS {
			kept = append(kept, e)
		}
	}
	s.entries = kept
}

// Snapshot returns value copies of all entries for observation.
func (s *Scheduler) Snapshot() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		snapshot = append(snapshot, *e)
	}
	return snapshot
}

func (s *Scheduler) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	var counts Counts
	for _, e := range s.entries {
		switch e.Status {
		case STATUS_PENDING:
			counts.Pending++
		case STATUS_COMPRESSING, STATUS_UPLOADING:
			counts.Active++
		case STATUS_SUCCESS:
			counts.Success++
		case STATUS_ERROR:
			counts.Error++
		}
	}
	return counts
}

func (s *Scheduler) CompletedFiles() []CompletedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	completed := make([]CompletedFile, 0)
	for _, e := range s.entries {
		if e.Status != STATUS_SUCCESS {
			continue
		}
		completed = append(completed, CompletedFile{
			Id:       e.Id,
			Name:     e.Name,
			Url:      e.UploadedUrl,
			Key:      e.UploadedKey,
			Size:     e.Size,
			MimeType: e.MimeType,
		})
	}
	return completed
}

// PauseState reports whether the pipeline is paused by a rate limit, the
// reason, and the resume deadline.
func (s *Scheduler) PauseState() (paused bool, reason string, until time.Time) {
	return s.limiter.State()
}

// Close cancels all in-flight uploads and waits for their goroutines.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
	s.limiter.Stop()
}

func (s *Scheduler) indexLocked(id string) int {
	for i, e := range s.entries {
		if e.Id == id {
			return i
		}
	}
	return -1
}

func (s *Scheduler) schedule() {
	s.mu.Lock()
	s.scheduleLocked()
	s.mu.Unlock()
}

// starts pending entries until the ceiling is reached, the queue is drained
// or the pipeline is paused. callers hold s.mu.
func (s *Scheduler) scheduleLocked() {
	if s.closed || s.limiter.IsPaused() {
		return
	}
	for s.active < s.opts.MaxConcurrent {
		e := s.nextPendingLocked()
		if e == nil {
			return
		}
		s.active++
		if s.shouldCompress(e) {
			e.Status = STATUS_COMPRESSING
		} else {
			e.Status = STATUS_UPLOADING
		}
		e.UpdatedAt = time.Now()

		ctx, cancel := context.WithCancel(s.ctx)
		s.cancels[e.Id] = cancel
		s.wg.Add(1)
		go s.process(ctx, cancel, e)
	}
}

func (s *Scheduler) nextPendingLocked() *Entry {
	for _, e := range s.entries {
		if e.Status == STATUS_PENDING {
			return e
		}
	}
	return nil
}

func (s *Scheduler) shouldCompress(e *Entry) bool {
	return s.compressor != nil &&
		s.opts.CompressThresholdBytes > 0 &&
		e.Size > s.opts.CompressThresholdBytes
}

// runs one entry through compression and upload, then frees its slot and
// re-evaluates the queue. runs in its own goroutine.
func (s *Scheduler) process(ctx context.Context, cancel context.CancelFunc, e *Entry) {
	defer s.wg.Done()
	defer cancel()

	src := e.Source
	compressing := func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return e.Status == STATUS_COMPRESSING
	}()

	if compressing {
		compressed, err := s.compressor.Compress(ctx, src)
		if err == nil {
			src = compressed
		} else if ctx.Err() == nil {
			// best effort: upload the original payload unmodified
			L.Debug(fmt.Sprintf("compression failed for %s, uploading original: %v", e.Name, err))
		}
		live := func() bool {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.removed[e.Id] || ctx.Err() != nil {
				return false
			}
			e.Status = STATUS_UPLOADING
			e.UpdatedAt = time.Now()
			return true
		}()
		if !live {
			s.finish(e)
			return
		}
	}

	result, err := s.transport.Upload(ctx, src, e.Meta, func(percent int) {
		s.updateProgress(e, percent)
	})

	s.complete(e, result, err, ctx.Err() != nil)
	s.finish(e)
}

func (s *Scheduler) updateProgress(e *Entry, percent int) {
	s.mu.Lock()
	if s.removed[e.Id] || e.Status != STATUS_UPLOADING || percent <= e.Progress {
		s.mu.Unlock()
		return
	}
	e.Progress = percent
	e.UpdatedAt = time.Now()
	snapshot := *e
	s.mu.Unlock()

	if s.opts.OnProgress != nil {
		s.opts.OnProgress(snapshot)
	}
}

// applies the terminal (or requeue) transition for one finished transport
// call and fires the matching notification.
func (s *Scheduler) complete(e *Entry, result *transport.Result, err error, cancelled bool) {
	s.mu.Lock()
	if s.removed[e.Id] {
		// the caller removed the entry while it was in flight; cancellation
		// is not a failure, nothing to report
		s.mu.Unlock()
		return
	}
	if cancelled && err != nil {
		// scheduler shutdown; leave the entry PENDING for a future drain
		e.Status = STATUS_PENDING
		e.Progress = 0
		e.UpdatedAt = time.Now()
		s.mu.Unlock()
		return
	}

	if err == nil {
		e.Status = STATUS_SUCCESS
		e.Progress = 100
		e.UploadedUrl = result.Url
		e.UploadedKey = result.Key
		e.UpdatedAt = time.Now()
		snapshot := *e
		s.mu.Unlock()
		if s.opts.OnSuccess != nil {
			s.opts.OnSuccess(snapshot)
		}
		return
	}

	var transportErr *transport.TransportError
	if errors.As(err, &transportErr) && transportErr.Category == transport.STATUS_RATE_LIMITED {
		e.RetryCount++
		if e.RetryCount <= s.opts.MaxRateLimitRetries {
			e.Status = STATUS_PENDING
			e.Progress = 0
			e.UpdatedAt = time.Now()
			reason := fmt.Sprintf("rate limited, resuming in %s", L.HumanReadableTime(transportErr.RetryAfter.Milliseconds()))
			// the pause must be armed before the requeued entry becomes
			// visible, or a concurrently freed slot restarts it right away
			s.limiter.Pause(transportErr.RetryAfter, reason)
			s.mu.Unlock()
			L.Warn(fmt.Sprintf("%s: requeued %s (attempt %d)", reason, e.Name, e.RetryCount))
			return
		}
		e.ErrorMessage = fmt.Sprintf("rate limited too many times (%d attempts)", e.RetryCount)
	} else {
		e.ErrorMessage = err.Error()
	}

	e.Status = STATUS_ERROR
	e.Progress = 0
	e.UpdatedAt = time.Now()
	snapshot := *e
	s.mu.Unlock()
	if s.opts.OnError != nil {
		s.opts.OnError(snapshot)
	}
}

// frees the slot and re-evaluates the queue.
func (s *Scheduler) finish(e *Entry) {
	s.mu.Lock()
	s.active--
	delete(s.cancels, e.Id)
	delete(s.removed, e.Id)
	s.scheduleLocked()
	s.mu.Unlock()
}
