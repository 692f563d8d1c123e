package retroachievements

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// remoteTimeLayouts covers the two timestamp styles the API mixes: RFC 3339
// for award metadata and a bare UTC datetime for achievement unlocks.
var remoteTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// flexID accepts identifiers encoded either as JSON numbers or strings.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("identifier %s: %w", data, err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("identifier %s: %w", data, err)
	}
	*f = flexID(n.String())
	return nil
}

// achievementMap decodes the per-game achievement object. The API encodes an
// empty set as a JSON array rather than an object.
type achievementMap map[string]achievementJSON

func (m *achievementMap) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("[]")) {
		*m = achievementMap{}
		return nil
	}
	var raw map[string]achievementJSON
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	*m = raw
	return nil
}

type achievementJSON struct {
	ID                 flexID `json:"ID"`
	Title              string `json:"Title"`
	BadgeName          string `json:"BadgeName"`
	DateEarnedHardcore string `json:"DateEarnedHardcore"`
}

type gameProgressJSON struct {
	ID               flexID         `json:"ID"`
	Title            string         `json:"Title"`
	ImageIcon        string         `json:"ImageIcon"`
	HighestAwardKind *string        `json:"HighestAwardKind"`
	HighestAwardDate *string        `json:"HighestAwardDate"`
	Achievements     achievementMap `json:"Achievements"`
}

type achievementUnlocksJSON struct {
	Achievement struct {
		ID    flexID `json:"ID"`
		Title string `json:"Title"`
	} `json:"Achievement"`
	Game struct {
		ID    flexID `json:"ID"`
		Title string `json:"Title"`
	} `json:"Game"`
	UnlocksCount int `json:"UnlocksCount"`
}

// parseRemoteTime parses an API timestamp as UTC. An empty string yields the zero time.
func parseRemoteTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range remoteTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
