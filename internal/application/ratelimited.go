package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/raverify/internal/domain/model"
	"github.com/ericfisherdev/raverify/internal/domain/port/driven"
)

// DefaultMaxAttempts bounds the number of tries of a single remote call.
const DefaultMaxAttempts = 5

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Compile-time interface satisfaction check.
var _ driven.AchievementClient = (*RateLimitedClient)(nil)

// RateLimitedClient decorates an AchievementClient with retries and
// exponential backoff. The failure counter is shared by every call until
// ResetBackoff, so a run that keeps failing slows down as a whole.
//
// When the remote asks for a longer pause (driven.RemoteError.RetryAfter)
// the next attempt waits that long instead, up to the backoff cap.
//
// After maxAttempts failures the last result and error are returned as-is;
// callers degrade the affected item instead of aborting the run.
type RateLimitedClient struct {
	next        driven.AchievementClient
	backoff     *BackoffState
	maxAttempts int
	sleep       Sleeper
}

// NewRateLimitedClient wraps next. A nil sleep uses a context-aware timer.
func NewRateLimitedClient(next driven.AchievementClient, backoff *BackoffState, maxAttempts int, sleep Sleeper) *RateLimitedClient {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	if sleep == nil {
		sleep = sleepContext
	}
	return &RateLimitedClient{
		next:        next,
		backoff:     backoff,
		maxAttempts: maxAttempts,
		sleep:       sleep,
	}
}

// ResetBackoff clears the shared failure counter.
func (c *RateLimitedClient) ResetBackoff() {
	c.backoff.Reset()
}

// FetchGameProgress calls the wrapped client with retries.
func (c *RateLimitedClient) FetchGameProgress(ctx context.Context, auth model.Credential, username, gameID string, includeAward bool) (*model.GameProgress, error) {
	return withRetry(ctx, c, "fetch game progress", func(ctx context.Context) (*model.GameProgress, error) {
		return c.next.FetchGameProgress(ctx, auth, username, gameID, includeAward)
	})
}

// FetchAchievementUnlocks calls the wrapped client with retries.
func (c *RateLimitedClient) FetchAchievementUnlocks(ctx context.Context, auth model.Credential, achievementID string, count int) (*model.AchievementUnlocks, error) {
	return withRetry(ctx, c, "fetch achievement unlocks", func(ctx context.Context) (*model.AchievementUnlocks, error) {
		return c.next.FetchAchievementUnlocks(ctx, auth, achievementID, count)
	})
}

func withRetry[T any](ctx context.Context, c *RateLimitedClient, operation string, call func(context.Context) (T, error)) (T, error) {
	for attempt := 1; ; attempt++ {
		result, err := call(ctx)
		if err == nil {
			return result, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}

		delay := retryDelay(c.backoff.RecordFailure(), err)
		slog.Warn("remote call failed",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", c.maxAttempts,
			"failures", c.backoff.Failures(),
			"retry_in", delay,
			"error", err,
		)

		if attempt >= c.maxAttempts {
			return result, fmt.Errorf("%s: giving up after %d attempts: %w", operation, attempt, err)
		}

		if err := c.sleep(ctx, delay); err != nil {
			return result, err
		}
	}
}

// retryDelay returns the longer of the backoff delay and the Retry-After
// carried by err, capped at maxBackoffDelay.
func retryDelay(backoff time.Duration, err error) time.Duration {
	var remoteErr *driven.RemoteError
	if !errors.As(err, &remoteErr) || remoteErr.RetryAfter <= backoff {
		return backoff
	}
	return min(remoteErr.RetryAfter, maxBackoffDelay)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
