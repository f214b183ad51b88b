package upload

import (
	"sync"
	"time"
)

// RateLimiter tracks a single system-wide pause deadline. Pause extends the
// deadline but never shortens it, so near-simultaneous rate-limit signals
// from several in-flight uploads cannot cut an existing pause short. When
// the deadline passes, onResume is invoked once from a timer goroutine.
type RateLimiter struct {
	mu         sync.Mutex
	pauseUntil time.Time
	reason     string
	timer      *time.Timer
	onResume   func()
}

func NewRateLimiter(onResume func()) *RateLimiter {
	return &RateLimiter{onResume: onResume}
}

func (rl *RateLimiter) Pause(d time.Duration, reason string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	deadline := time.Now().Add(d)
	if deadline.Before(rl.pauseUntil) {
		// a longer pause is already armed
		return
	}
	rl.pauseUntil = deadline
	rl.reason = reason

	if rl.timer != nil {
		rl.timer.Stop()
	}
	rl.timer = time.AfterFunc(time.Until(deadline), rl.expire)
}

func (rl *RateLimiter) expire() {
	rl.mu.Lock()
	if rl.pauseUntil.IsZero() {
		rl.mu.Unlock()
		return
	}
	if time.Now().Before(rl.pauseUntil) {
		// the deadline moved while this timer was in flight, re-arm
		rl.timer = time.AfterFunc(time.Until(rl.pauseUntil), rl.expire)
		rl.mu.Unlock()
		return
	}
	rl.pauseUntil = time.Time{}
	rl.reason = ""
	onResume := rl.onResume
	rl.mu.Unlock()

	if onResume != nil {
		onResume()
	}
}

func (rl *RateLimiter) IsPaused() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return time.Now().Before(rl.pauseUntil)
}

// State returns whether the pipeline is paused, why, and until when.
func (rl *RateLimiter) State() (paused bool, reason string, until time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if !time.Now().Before(rl.pauseUntil) {
		return false, "", time.Time{}
	}
	return true, rl.reason, rl.pauseUntil
}

func (rl *RateLimiter) Stop() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.timer != nil {
		rl.timer.Stop()
		rl.timer = nil
	}
	rl.pauseUntil = time.Time{}
	rl.reason = ""
}
