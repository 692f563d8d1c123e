package application

import (
	"context"
	"errors"
	"time"

	"github.com/ericfisherdev/raverify/internal/domain/model"
)

var errRemote = errors.New("remote unavailable")

// --- Mock implementations shared by the application tests ---

type progressCall struct {
	Username     string
	GameID       string
	IncludeAward bool
}

type mockAchievementClient struct {
	progress     map[string]map[string]*model.GameProgress // username -> gameID -> progress
	unlocks      map[string]*model.AchievementUnlocks
	progressErr  map[string]error // username -> error
	failProgress int              // fail this many progress calls before answering
	failUnlocks  int
	failErr      error // returned for the failures above; errRemote when nil

	progressCalls []progressCall
	unlockCalls   []string
}

func newMockAchievementClient() *mockAchievementClient {
	return &mockAchievementClient{
		progress:    make(map[string]map[string]*model.GameProgress),
		unlocks:     make(map[string]*model.AchievementUnlocks),
		progressErr: make(map[string]error),
	}
}

func (m *mockAchievementClient) withProgress(username string, p *model.GameProgress) *mockAchievementClient {
	if m.progress[username] == nil {
		m.progress[username] = make(map[string]*model.GameProgress)
	}
	m.progress[username][p.GameID] = p
	return m
}

func (m *mockAchievementClient) FetchGameProgress(_ context.Context, _ model.Credential, username, gameID string, includeAward bool) (*model.GameProgress, error) {
	m.progressCalls = append(m.progressCalls, progressCall{Username: username, GameID: gameID, IncludeAward: includeAward})
	if m.failProgress > 0 {
		m.failProgress--
		return nil, m.failure()
	}
	if err := m.progressErr[username]; err != nil {
		return nil, err
	}
	p, ok := m.progress[username][gameID]
	if !ok {
		return &model.GameProgress{GameID: gameID, Title: "Game " + gameID}, nil
	}
	return p, nil
}

func (m *mockAchievementClient) FetchAchievementUnlocks(_ context.Context, _ model.Credential, achievementID string, _ int) (*model.AchievementUnlocks, error) {
	m.unlockCalls = append(m.unlockCalls, achievementID)
	if m.failUnlocks > 0 {
		m.failUnlocks--
		return nil, m.failure()
	}
	u, ok := m.unlocks[achievementID]
	if !ok {
		return nil, errRemote
	}
	return u, nil
}

func (m *mockAchievementClient) failure() error {
	if m.failErr != nil {
		return m.failErr
	}
	return errRemote
}

type mockCredentialStore struct {
	cred      *model.Credential
	getErr    error
	setErr    error
	setCalls  int
	deleted   bool
	deleteErr error
}

func (m *mockCredentialStore) Get(_ context.Context) (*model.Credential, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.cred, nil
}

func (m *mockCredentialStore) Set(_ context.Context, cred model.Credential) error {
	m.setCalls++
	if m.setErr != nil {
		return m.setErr
	}
	m.cred = &cred
	return nil
}

func (m *mockCredentialStore) Delete(_ context.Context) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = true
	m.cred = nil
	return nil
}

type mockPreferenceStore struct {
	prefs    *model.Preferences
	setCalls int
}

func (m *mockPreferenceStore) Get(_ context.Context) (*model.Preferences, error) {
	return m.prefs, nil
}

func (m *mockPreferenceStore) Set(_ context.Context, prefs model.Preferences) error {
	m.setCalls++
	m.prefs = &prefs
	return nil
}

// recordingSleeper captures requested backoff delays without sleeping.
type recordingSleeper struct {
	delays []time.Duration
	err    error
}

func (s *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return s.err
}

// --- Helper functions ---

var testAuth = model.Credential{Username: "checker", WebAPIKey: "secret-key"}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
