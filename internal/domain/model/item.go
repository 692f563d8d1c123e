package model

import (
	"regexp"
	"strings"
)

// ItemKind distinguishes the two kinds of verifiable submission entries.
type ItemKind string

const (
	ItemKindGame        ItemKind = "game"
	ItemKindAchievement ItemKind = "achievement"
)

// siteURL is the canonical public host for item links.
const siteURL = "https://retroachievements.org"

var itemPattern = regexp.MustCompile(`https://(?:www\.)?retroachievements\.org/(game|achievement)/([0-9]+)`)

// VerificationItem is one game or achievement reference extracted from a submission.
type VerificationItem struct {
	Kind ItemKind `validate:"oneof=game achievement"`
	ID   string   `validate:"required,numeric,max=12"`
}

// URL returns the public page of the item.
func (i VerificationItem) URL() string {
	return siteURL + "/" + string(i.Kind) + "/" + i.ID
}

// ParseItems extracts all game and achievement links from free-form submission
// text, preserving their order of appearance. Duplicates are kept.
func ParseItems(text string) []VerificationItem {
	matches := itemPattern.FindAllStringSubmatch(text, -1)
	items := make([]VerificationItem, 0, len(matches))
	for _, m := range matches {
		items = append(items, VerificationItem{Kind: ItemKind(strings.ToLower(m[1])), ID: m[2]})
	}
	return items
}

// RunOrder returns items in processing order: all games first, then all
// achievements, each group keeping its source order.
func RunOrder(items []VerificationItem) []VerificationItem {
	ordered := make([]VerificationItem, 0, len(items))
	for _, kind := range []ItemKind{ItemKindGame, ItemKindAchievement} {
		for _, it := range items {
			if it.Kind == kind {
				ordered = append(ordered, it)
			}
		}
	}
	return ordered
}
