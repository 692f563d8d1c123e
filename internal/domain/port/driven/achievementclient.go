package driven

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/raverify/internal/domain/model"
)

// ErrMalformedResponse is returned when the remote answered successfully but
// the payload could not be decoded or lacks required identifiers.
var ErrMalformedResponse = errors.New("malformed remote response")

// RemoteError reports a non-success HTTP response from the remote API.
// RetryAfter is the wait the remote asked for (429/503 Retry-After), or zero.
type RemoteError struct {
	Endpoint   string
	StatusCode int
	RetryAfter time.Duration
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: remote returned status %d", e.Endpoint, e.StatusCode)
}

// AchievementClient defines the driven port for the remote achievement API.
// Every call is authenticated with the caller's web API credential.
type AchievementClient interface {
	// FetchGameProgress returns the progress record of username for gameID.
	// includeAward requests the highest award kind and date.
	FetchGameProgress(ctx context.Context, auth model.Credential, username, gameID string, includeAward bool) (*model.GameProgress, error)

	// FetchAchievementUnlocks returns the head of the unlock list of an
	// achievement, identifying its game and title. count limits the number of
	// unlock entries the remote includes.
	FetchAchievementUnlocks(ctx context.Context, auth model.Credential, achievementID string, count int) (*model.AchievementUnlocks, error)
}
