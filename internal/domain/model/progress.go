package model

import "time"

// AwardKind is the highest completion tier the remote reports for a user and game.
type AwardKind string

const (
	AwardKindNone           AwardKind = ""
	AwardKindMastered       AwardKind = "mastered"
	AwardKindBeatenHardcore AwardKind = "beaten-hardcore"
	AwardKindCompleted      AwardKind = "completed"
	AwardKindBeatenSoftcore AwardKind = "beaten-softcore"
)

// GameProgress is one user's progress record for one game.
type GameProgress struct {
	GameID           string
	Title            string
	ImageIcon        string
	HighestAwardKind AwardKind
	HighestAwardDate time.Time // Zero when the user holds no award.
	Achievements     map[string]AchievementProgress
}

// AchievementProgress is one achievement of a game as seen by one user.
type AchievementProgress struct {
	ID                 string
	Title              string
	BadgeName          string
	DateEarnedHardcore time.Time // Zero when not unlocked in hardcore mode.
}

// BadgePath returns the media-host-relative badge icon path.
func (a AchievementProgress) BadgePath() string {
	if a.BadgeName == "" {
		return ""
	}
	return "/Badge/" + a.BadgeName + ".png"
}

// AchievementUnlocks is the metadata head of an achievement's unlock list:
// enough to identify the owning game and the achievement title.
type AchievementUnlocks struct {
	AchievementID    string
	AchievementTitle string
	GameID           string
	GameTitle        string
	UnlocksCount     int
}
