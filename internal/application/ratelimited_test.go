package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/raverify/internal/domain/model"
	"github.com/ericfisherdev/raverify/internal/domain/port/driven"
)

func newTestRateLimitedClient(next *mockAchievementClient, sleeper *recordingSleeper) *RateLimitedClient {
	return NewRateLimitedClient(next, NewBackoffState(200*time.Millisecond), DefaultMaxAttempts, sleeper.sleep)
}

func TestRateLimitedClient_GivesUpAfterMaxAttempts(t *testing.T) {
	next := newMockAchievementClient()
	next.failProgress = 100
	sleeper := &recordingSleeper{}
	c := newTestRateLimitedClient(next, sleeper)

	progress, err := c.FetchGameProgress(context.Background(), testAuth, "alice", "1", true)

	require.Error(t, err)
	assert.ErrorIs(t, err, errRemote)
	assert.Nil(t, progress)
	assert.Len(t, next.progressCalls, 5)
	assert.Equal(t, []time.Duration{
		400 * time.Millisecond,
		800 * time.Millisecond,
		1600 * time.Millisecond,
		3200 * time.Millisecond,
	}, sleeper.delays, "no pause after the final attempt")
	assert.Equal(t, 5, c.backoff.Failures())
}

func TestRateLimitedClient_RecoversAfterFailures(t *testing.T) {
	next := newMockAchievementClient()
	next.failProgress = 2
	next.withProgress("alice", &model.GameProgress{GameID: "1", Title: "Sonic"})
	sleeper := &recordingSleeper{}
	c := newTestRateLimitedClient(next, sleeper)

	progress, err := c.FetchGameProgress(context.Background(), testAuth, "alice", "1", true)

	require.NoError(t, err)
	assert.Equal(t, "Sonic", progress.Title)
	assert.Len(t, next.progressCalls, 3)
	assert.Equal(t, []time.Duration{400 * time.Millisecond, 800 * time.Millisecond}, sleeper.delays)
}

func TestRateLimitedClient_FailuresAccumulateAcrossCalls(t *testing.T) {
	next := newMockAchievementClient()
	next.unlocks["9"] = &model.AchievementUnlocks{AchievementID: "9", GameID: "1"}
	sleeper := &recordingSleeper{}
	c := newTestRateLimitedClient(next, sleeper)

	next.failUnlocks = 2
	_, err := c.FetchAchievementUnlocks(context.Background(), testAuth, "9", 1)
	require.NoError(t, err)

	next.failProgress = 1
	_, err = c.FetchGameProgress(context.Background(), testAuth, "alice", "1", false)
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{
		400 * time.Millisecond,
		800 * time.Millisecond,
		1600 * time.Millisecond,
	}, sleeper.delays)
}

func TestRateLimitedClient_ResetBackoff(t *testing.T) {
	next := newMockAchievementClient()
	sleeper := &recordingSleeper{}
	c := newTestRateLimitedClient(next, sleeper)

	next.failProgress = 3
	_, err := c.FetchGameProgress(context.Background(), testAuth, "alice", "1", true)
	require.NoError(t, err)

	c.ResetBackoff()
	sleeper.delays = nil
	next.failProgress = 1
	_, err = c.FetchGameProgress(context.Background(), testAuth, "alice", "1", true)
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{400 * time.Millisecond}, sleeper.delays)
}

func TestRateLimitedClient_CancelledDuringBackoff(t *testing.T) {
	next := newMockAchievementClient()
	next.failProgress = 100
	sleeper := &recordingSleeper{err: context.Canceled}
	c := newTestRateLimitedClient(next, sleeper)

	_, err := c.FetchGameProgress(context.Background(), testAuth, "alice", "1", true)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, next.progressCalls, 1)
}

func TestRateLimitedClient_CancelledContextDoesNotCountFailure(t *testing.T) {
	next := newMockAchievementClient()
	next.failProgress = 100
	sleeper := &recordingSleeper{}
	c := newTestRateLimitedClient(next, sleeper)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchGameProgress(ctx, testAuth, "alice", "1", true)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, c.backoff.Failures())
	assert.Empty(t, sleeper.delays)
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}

func TestRateLimitedClient_HonorsRetryAfter(t *testing.T) {
	tests := []struct {
		name       string
		retryAfter time.Duration
		want       time.Duration
	}{
		{name: "longer than backoff", retryAfter: 3 * time.Second, want: 3 * time.Second},
		{name: "shorter than backoff", retryAfter: 100 * time.Millisecond, want: 400 * time.Millisecond},
		{name: "absent", want: 400 * time.Millisecond},
		{name: "capped", retryAfter: time.Hour, want: maxBackoffDelay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := newMockAchievementClient()
			next.unlocks["9"] = &model.AchievementUnlocks{AchievementID: "9", GameID: "1"}
			next.failUnlocks = 1
			next.failErr = &driven.RemoteError{Endpoint: "unlocks", StatusCode: 429, RetryAfter: tt.retryAfter}
			sleeper := &recordingSleeper{}
			c := newTestRateLimitedClient(next, sleeper)

			_, err := c.FetchAchievementUnlocks(context.Background(), testAuth, "9", 1)

			require.NoError(t, err)
			assert.Equal(t, []time.Duration{tt.want}, sleeper.delays)
		})
	}
}
