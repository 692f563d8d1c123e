// Package retroachievements implements the AchievementClient port against the
// RetroAchievements web API.
package retroachievements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/raverify/internal/domain/model"
	"github.com/ericfisherdev/raverify/internal/domain/port/driven"
)

const (
	endpointGameProgress       = "API_GetGameInfoAndUserProgress.php"
	endpointAchievementUnlocks = "API_GetAchievementUnlocks.php"

	// maxBodyBytes caps how much of a response body is decoded.
	maxBodyBytes = 8 << 20
)

// Compile-time interface satisfaction check.
var _ driven.AchievementClient = (*Client)(nil)

// Client implements driven.AchievementClient over HTTP.
type Client struct {
	progress *http.Client // user progress; never cached
	metadata *http.Client // achievement metadata; memory-cached
	baseURL  *url.URL
}

// NewClient creates a Client with two transport stacks sharing a
// per-request timeout:
//  1. metadata: httpcache over net/http, honoring the remote's cache headers
//  2. progress: plain net/http, never cached
//
// Throttling responses are not retried here. Their Retry-After value is
// reported through driven.RemoteError so the retrying caller can wait.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	metadata := &http.Client{
		Transport: httpcache.NewMemoryCacheTransport(),
		Timeout:   timeout,
	}
	progress := &http.Client{Timeout: timeout}

	return &Client{
		progress: progress,
		metadata: metadata,
		baseURL:  u,
	}, nil
}

// NewClientWithHTTPClient creates a Client that sends every request through
// httpClient. Intended for tests, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	u, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{progress: httpClient, metadata: httpClient, baseURL: u}, nil
}

// FetchGameProgress retrieves the game record and the user's progress in it.
func (c *Client) FetchGameProgress(ctx context.Context, auth model.Credential, username, gameID string, includeAward bool) (*model.GameProgress, error) {
	params := url.Values{}
	params.Set("u", username)
	params.Set("g", gameID)
	params.Set("a", "0")
	if includeAward {
		params.Set("a", "1")
	}

	var payload gameProgressJSON
	if err := c.get(ctx, c.progress, endpointGameProgress, auth, params, &payload); err != nil {
		return nil, fmt.Errorf("fetching progress of %s for game %s: %w", username, gameID, err)
	}

	progress, err := mapGameProgress(payload)
	if err != nil {
		return nil, fmt.Errorf("fetching progress of %s for game %s: %w", username, gameID, err)
	}
	return progress, nil
}

// FetchAchievementUnlocks retrieves the achievement metadata and the first
// count entries of its unlock list.
func (c *Client) FetchAchievementUnlocks(ctx context.Context, auth model.Credential, achievementID string, count int) (*model.AchievementUnlocks, error) {
	params := url.Values{}
	params.Set("a", achievementID)
	params.Set("c", strconv.Itoa(count))

	var payload achievementUnlocksJSON
	if err := c.get(ctx, c.metadata, endpointAchievementUnlocks, auth, params, &payload); err != nil {
		return nil, fmt.Errorf("fetching unlocks for achievement %s: %w", achievementID, err)
	}

	if payload.Achievement.ID == "" || payload.Game.ID == "" {
		return nil, fmt.Errorf("fetching unlocks for achievement %s: %w: missing achievement or game id", achievementID, driven.ErrMalformedResponse)
	}

	return &model.AchievementUnlocks{
		AchievementID:    string(payload.Achievement.ID),
		AchievementTitle: payload.Achievement.Title,
		GameID:           string(payload.Game.ID),
		GameTitle:        payload.Game.Title,
		UnlocksCount:     payload.UnlocksCount,
	}, nil
}

// get performs an authenticated GET and decodes the JSON body into out.
// Errors never carry the request URL, which embeds the web API key.
func (c *Client) get(ctx context.Context, hc *http.Client, endpoint string, auth model.Credential, params url.Values, out any) error {
	params.Set("z", auth.Username)
	params.Set("y", auth.WebAPIKey)

	u := c.baseURL.ResolveReference(&url.URL{Path: endpoint})
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("building %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", endpoint, redactURL(err, endpoint))
	}
	defer resp.Body.Close()

	slog.Debug("retroachievements api call",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return &driven.RemoteError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	}

	body := io.LimitReader(resp.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w: %w", endpoint, driven.ErrMalformedResponse, err)
	}
	// httpcache stores a response only once its body reached EOF.
	_, _ = io.Copy(io.Discard, body)
	return nil
}

// mapGameProgress converts the wire payload into the domain progress record.
func mapGameProgress(p gameProgressJSON) (*model.GameProgress, error) {
	if p.ID == "" {
		return nil, fmt.Errorf("%w: missing game id", driven.ErrMalformedResponse)
	}

	progress := &model.GameProgress{
		GameID:       string(p.ID),
		Title:        p.Title,
		ImageIcon:    p.ImageIcon,
		Achievements: make(map[string]model.AchievementProgress, len(p.Achievements)),
	}

	if p.HighestAwardKind != nil {
		progress.HighestAwardKind = model.AwardKind(*p.HighestAwardKind)
	}
	if p.HighestAwardDate != nil {
		awarded, err := parseRemoteTime(*p.HighestAwardDate)
		if err != nil {
			return nil, fmt.Errorf("%w: highest award date: %w", driven.ErrMalformedResponse, err)
		}
		progress.HighestAwardDate = awarded
	}

	for key, a := range p.Achievements {
		earned, err := parseRemoteTime(a.DateEarnedHardcore)
		if err != nil {
			return nil, fmt.Errorf("%w: achievement %s unlock date: %w", driven.ErrMalformedResponse, key, err)
		}
		id := string(a.ID)
		if id == "" {
			id = key
		}
		progress.Achievements[id] = model.AchievementProgress{
			ID:                 id,
			Title:              a.Title,
			BadgeName:          a.BadgeName,
			DateEarnedHardcore: earned,
		}
	}

	return progress, nil
}

// parseRetryAfter reads a Retry-After header given either as delay seconds
// or as an HTTP date. Missing, malformed or past values yield zero.
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	at, err := http.ParseTime(v)
	if err != nil {
		return 0
	}
	if d := at.Sub(now); d > 0 {
		return d
	}
	return 0
}

// redactURL strips the query string from a *url.Error so the web API key
// cannot leak through error messages or logs.
func redactURL(err error, endpoint string) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		uerr.URL = endpoint
	}
	return err
}

func parseBaseURL(baseURL string) (*url.URL, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parsing base URL %q: scheme and host are required", baseURL)
	}
	if u.Path == "" || u.Path[len(u.Path)-1] != '/' {
		u.Path += "/"
	}
	return u, nil
}
