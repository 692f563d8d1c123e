package application

import "time"

// maxBackoffDelay caps a single backoff pause. Delays stay non-decreasing
// within a run; they simply stop growing once the cap is reached.
const maxBackoffDelay = 2 * time.Minute

// BackoffState counts remote failures across one verification run and derives
// the pause before the next retry as base * 2^failures. It is owned by a single
// run at a time and is not safe for concurrent use.
type BackoffState struct {
	base     time.Duration
	failures int
}

// NewBackoffState creates a BackoffState with the given base delay.
func NewBackoffState(base time.Duration) *BackoffState {
	return &BackoffState{base: base}
}

// Reset clears the failure count. Called once at the start of every run.
func (b *BackoffState) Reset() {
	b.failures = 0
}

// RecordFailure counts one failed remote call and returns the delay to wait
// before retrying.
func (b *BackoffState) RecordFailure() time.Duration {
	b.failures++
	return b.CurrentDelay()
}

// CurrentDelay returns base * 2^failures, capped at maxBackoffDelay.
func (b *BackoffState) CurrentDelay() time.Duration {
	delay := b.base
	for i := 0; i < b.failures; i++ {
		if delay >= maxBackoffDelay/2 {
			return maxBackoffDelay
		}
		delay *= 2
	}
	return min(delay, maxBackoffDelay)
}

// Failures returns the number of failures recorded since the last Reset.
func (b *BackoffState) Failures() int {
	return b.failures
}
