package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ericfisherdev/raverify/internal/domain/model"
	"github.com/ericfisherdev/raverify/internal/domain/port/driven"
)

// Identity names the account a submission is verified against, plus an
// optional alternate account consulted when the primary fails.
type Identity struct {
	Primary string
	Alt     string
}

func (id Identity) hasAlt() bool {
	return id.Alt != "" && !strings.EqualFold(id.Alt, id.Primary)
}

// Verifier decides whether a game or achievement satisfies a submission.
// Remote failures never escape: the affected item degrades to a failed
// placeholder result and the caller moves on.
type Verifier struct {
	client driven.AchievementClient
}

// NewVerifier creates a Verifier backed by client, normally a RateLimitedClient.
func NewVerifier(client driven.AchievementClient) *Verifier {
	return &Verifier{client: client}
}

// CheckGame verifies that the identity holds a mastery or hardcore beaten award
// for gameID, earned inside window.
func (v *Verifier) CheckGame(ctx context.Context, auth model.Credential, id Identity, gameID string, window model.DateWindow, format model.DateFormat) model.VerificationResult {
	return withAltFallback(id, func(username string) model.VerificationResult {
		return v.checkGameAs(ctx, auth, username, gameID, window, format)
	})
}

// CheckAchievement verifies that the identity unlocked achievementID in
// hardcore mode inside window.
func (v *Verifier) CheckAchievement(ctx context.Context, auth model.Credential, id Identity, achievementID string, window model.DateWindow, format model.DateFormat) model.VerificationResult {
	info, err := v.client.FetchAchievementUnlocks(ctx, auth, achievementID, 1)
	if err != nil || info == nil {
		slog.Warn("achievement lookup failed", "achievement_id", achievementID, "error", err)
		return placeholderResult(achievementID)
	}

	return withAltFallback(id, func(username string) model.VerificationResult {
		return v.checkAchievementAs(ctx, auth, username, info, window, format)
	})
}

// withAltFallback runs check for the primary account and, only when that
// fails, once more for the alternate. An alternate success is tagged Alt; an
// alternate failure yields the primary result.
func withAltFallback(id Identity, check func(username string) model.VerificationResult) model.VerificationResult {
	primary := check(id.Primary)
	if primary.Status.Success || !id.hasAlt() {
		return primary
	}

	alt := check(id.Alt)
	if !alt.Status.Success {
		return primary
	}
	alt.Status.Alt = true
	return alt
}

func (v *Verifier) checkGameAs(ctx context.Context, auth model.Credential, username, gameID string, window model.DateWindow, format model.DateFormat) model.VerificationResult {
	progress, err := v.client.FetchGameProgress(ctx, auth, username, gameID, true)
	if err != nil || progress == nil {
		slog.Warn("game progress lookup failed", "game_id", gameID, "username", username, "error", err)
		return placeholderResult(gameID)
	}

	result := model.VerificationResult{
		Title:     progress.Title,
		IconPath:  progress.ImageIcon,
		Timestamp: model.TimestampUnavailable,
	}

	switch progress.HighestAwardKind {
	case model.AwardKindMastered:
		result.Status = model.Status{Success: true, Mastered: true}
	case model.AwardKindBeatenHardcore:
		result.Status = model.Status{Success: true}
	}

	awarded := progress.HighestAwardDate
	if !awarded.IsZero() {
		result.Timestamp = format.Format(awarded)
	}
	if result.Status.Success && !inWindow(window, awarded) {
		result.Status = model.Status{}
	}
	return result
}

func (v *Verifier) checkAchievementAs(ctx context.Context, auth model.Credential, username string, info *model.AchievementUnlocks, window model.DateWindow, format model.DateFormat) model.VerificationResult {
	result := model.VerificationResult{
		Title:     info.AchievementTitle,
		Timestamp: model.TimestampUnavailable,
	}
	if result.Title == "" {
		result.Title = info.AchievementID
	}

	progress, err := v.client.FetchGameProgress(ctx, auth, username, info.GameID, false)
	if err != nil || progress == nil {
		slog.Warn("game progress lookup failed", "game_id", info.GameID, "achievement_id", info.AchievementID, "username", username, "error", err)
		return result
	}

	achievement, ok := progress.Achievements[info.AchievementID]
	if !ok {
		slog.Warn("achievement missing from game progress", "game_id", info.GameID, "achievement_id", info.AchievementID)
		return result
	}

	if info.AchievementTitle == "" && achievement.Title != "" {
		result.Title = achievement.Title
	}
	result.IconPath = achievement.BadgePath()

	unlocked := achievement.DateEarnedHardcore
	if unlocked.IsZero() {
		return result
	}
	result.Timestamp = format.Format(unlocked)
	if window.Contains(unlocked) {
		result.Status = model.Status{Success: true}
	}
	return result
}

// inWindow reports whether an award dated t qualifies. An award without a date
// only qualifies when the window is unbounded.
func inWindow(window model.DateWindow, t time.Time) bool {
	if t.IsZero() {
		return !window.Bounded()
	}
	return window.Contains(t)
}

// placeholderResult is rendered when the remote could not be reached for an item.
func placeholderResult(itemID string) model.VerificationResult {
	return model.VerificationResult{
		Title:     itemID,
		Timestamp: model.TimestampUnavailable,
	}
}
