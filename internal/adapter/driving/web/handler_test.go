package web_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/raverify/internal/adapter/driving/web"
	"github.com/ericfisherdev/raverify/internal/application"
	"github.com/ericfisherdev/raverify/internal/domain/model"
)

// --- Mock implementations ---

type mockAchievementClient struct {
	progress map[string]*model.GameProgress
	calls    int
}

func (m *mockAchievementClient) FetchGameProgress(_ context.Context, _ model.Credential, _, gameID string, _ bool) (*model.GameProgress, error) {
	m.calls++
	if p, ok := m.progress[gameID]; ok {
		return p, nil
	}
	return nil, errors.New("not found")
}

func (m *mockAchievementClient) FetchAchievementUnlocks(_ context.Context, _ model.Credential, _ string, _ int) (*model.AchievementUnlocks, error) {
	return nil, errors.New("not found")
}

type mockCredentialStore struct {
	cred    *model.Credential
	saved   int
	deleted bool
}

func (m *mockCredentialStore) Get(_ context.Context) (*model.Credential, error) { return m.cred, nil }
func (m *mockCredentialStore) Set(_ context.Context, cred model.Credential) error {
	m.saved++
	m.cred = &cred
	return nil
}
func (m *mockCredentialStore) Delete(_ context.Context) error {
	m.deleted = true
	m.cred = nil
	return nil
}

type mockPreferenceStore struct {
	prefs *model.Preferences
}

func (m *mockPreferenceStore) Get(_ context.Context) (*model.Preferences, error) { return m.prefs, nil }
func (m *mockPreferenceStore) Set(_ context.Context, prefs model.Preferences) error {
	m.prefs = &prefs
	return nil
}

// --- Test helpers ---

const testToken = "test-csrf-token"

type testDeps struct {
	client *mockAchievementClient
	creds  *mockCredentialStore
	prefs  *mockPreferenceStore
}

func newTestDeps() *testDeps {
	return &testDeps{
		client: &mockAchievementClient{progress: map[string]*model.GameProgress{
			"1": {
				GameID:           "1",
				Title:            "Sonic the Hedgehog",
				ImageIcon:        "/Images/085573.png",
				HighestAwardKind: model.AwardKindMastered,
				HighestAwardDate: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
			},
		}},
		creds: &mockCredentialStore{cred: &model.Credential{Username: "checker", WebAPIKey: "secret-key"}},
		prefs: &mockPreferenceStore{},
	}
}

func (d *testDeps) mux() *http.ServeMux {
	rl := application.NewRateLimitedClient(d.client, application.NewBackoffState(0), 1, nil)
	runner := application.NewRunner(rl, 0)
	credSvc := application.NewCredentialService(d.creds, d.prefs)
	h := web.NewHandler(runner, credSvc, "https://verify.example.org/", "https://media.example.org", true, slog.Default())

	mux := http.NewServeMux()
	web.RegisterRoutes(mux, h)
	return mux
}

func postForm(mux http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	form.Set("csrf_token", testToken)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: testToken})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func submissionForm() url.Values {
	return url.Values{
		"username":   {"alice"},
		"check_date": {"on"},
		"start_date": {"2024-01-01"},
		"end_date":   {"2024-01-31"},
		"submission": {"January: https://retroachievements.org/game/1\nhttps://retroachievements.org/game/2"},
	}
}

// --- Tests ---

func TestIndex_RendersDefaultForm(t *testing.T) {
	deps := newTestDeps()
	deps.creds.cred = nil
	rec := httptest.NewRecorder()

	deps.mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<form id="submission" method="post" action="/verify"`)
	assert.Contains(t, body, `name="check_date" checked`)
	assert.Contains(t, body, `class="credential-modal"`)
	assert.Contains(t, body, `Remember on this server`)
	assert.NotContains(t, body, "Forget stored API key")
	assert.NotEmpty(t, rec.Result().Cookies(), "csrf cookie is set")
}

func TestIndex_StoredCredentialHidesModal(t *testing.T) {
	rec := httptest.NewRecorder()

	newTestDeps().mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body := rec.Body.String()
	assert.NotContains(t, body, `class="credential-modal"`)
	assert.Contains(t, body, "Forget stored API key")
	assert.NotContains(t, body, "secret-key")
}

func TestIndex_PrefillsFromShareLink(t *testing.T) {
	q, err := application.ExportSubmission(model.SubmissionSnapshot{
		Username:       "bob",
		AltUsername:    "bob2",
		StartDate:      time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC),
		SubmissionText: "<b>https://retroachievements.org/game/1</b>",
		CheckDate:      true,
	})
	require.NoError(t, err)
	rec := httptest.NewRecorder()

	newTestDeps().mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?"+q.Encode(), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `name="username" required value="bob"`)
	assert.Contains(t, body, `name="alt" value="bob2"`)
	assert.Contains(t, body, `name="start_date" value="2023-05-01"`)
	assert.Contains(t, body, "&lt;b&gt;https://retroachievements.org/game/1&lt;/b&gt;")
}

func TestIndex_CorruptShareLink(t *testing.T) {
	rec := httptest.NewRecorder()

	newTestDeps().mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?data=garbage!!&v=1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `class="banner error"`)
	assert.Contains(t, body, `name="username" required value=""`)
}

func TestPost_RequiresCSRF(t *testing.T) {
	mux := newTestDeps().mux()

	for _, path := range []string{"/verify", "/share", "/options", "/auth/clear"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(submissionForm().Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := httptest.NewRecorder()

			mux.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusForbidden, rec.Code)
		})
	}
}

func TestVerify_StreamsResults(t *testing.T) {
	deps := newTestDeps()

	rec := postForm(deps.mux(), "/verify", submissionForm())

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<li class="result success mastered" data-index="0" data-kind="game">`)
	assert.Contains(t, body, `src="https://media.example.org/Images/085573.png"`)
	assert.Contains(t, body, "Sonic the Hedgehog")
	assert.Contains(t, body, `<span class="timestamp">2024-01-15</span>`)
	assert.Contains(t, body, `<li class="result failure" data-index="1" data-kind="game">`)
	assert.Contains(t, body, "1 of 2 verified")
	assert.Contains(t, body, "From 2024-01-01 to 2024-01-31")
	assert.Contains(t, body, `class="line-game"`)
	assert.True(t, strings.HasSuffix(body, "</html>"))
}

func TestVerify_AsksForCredential(t *testing.T) {
	deps := newTestDeps()
	deps.creds.cred = nil

	rec := postForm(deps.mux(), "/verify", submissionForm())

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<details class="credential-modal" open>`)
	assert.Contains(t, body, "web API key to verify")
	assert.Contains(t, body, `name="username" required value="alice"`)
	assert.Equal(t, 0, deps.client.calls)
}

func TestVerify_CredentialFromModal(t *testing.T) {
	deps := newTestDeps()
	deps.creds.cred = nil
	form := submissionForm()
	form.Set("ra_username", "checker")
	form.Set("ra_key", "typed-key")
	form.Set("ra_save", "on")

	rec := postForm(deps.mux(), "/verify", form)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, deps.creds.saved)
	assert.NotContains(t, rec.Body.String(), "typed-key")
}

func TestVerify_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(url.Values)
		wantMsg string
	}{
		{name: "no links", mutate: func(f url.Values) { f.Set("submission", "nothing here") }, wantMsg: "no game or achievement links"},
		{name: "missing start date", mutate: func(f url.Values) { f.Del("start_date") }, wantMsg: "Pick a start date"},
		{name: "bad date", mutate: func(f url.Values) { f.Set("end_date", "31.01.2024") }, wantMsg: "invalid date"},
		{name: "bad username", mutate: func(f url.Values) { f.Set("username", "a&b") }, wantMsg: "invalid verification request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps()
			form := submissionForm()
			tt.mutate(form)

			rec := postForm(deps.mux(), "/verify", form)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantMsg)
			assert.Equal(t, 0, deps.client.calls)
		})
	}
}

func TestShare_RendersLinkAndPreview(t *testing.T) {
	form := submissionForm()
	form.Set("submission", "**January** https://retroachievements.org/game/1")

	rec := postForm(newTestDeps().mux(), "/share", form)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `value="https://verify.example.org/?data=`)
	assert.Contains(t, body, "v=1")
	assert.Contains(t, body, "<strong>January</strong>")
	assert.NotContains(t, body, "secret-key")
}

func TestShare_EscapesUserInput(t *testing.T) {
	form := submissionForm()
	form.Set("username", `"><script>alert(1)</script>`)
	form.Set("alt", `x" onmouseover="alert(2)`)
	form.Set("submission", "</textarea><script>alert(3)</script> https://retroachievements.org/game/1")

	rec := postForm(newTestDeps().mux(), "/share", form)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "<script>")
	assert.NotContains(t, body, `" onmouseover="`)
	assert.Contains(t, body, "&lt;/textarea&gt;&lt;script&gt;alert(3)")
}

func TestOptions(t *testing.T) {
	deps := newTestDeps()

	rec := postForm(deps.mux(), "/options", url.Values{"date_format": {"4"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	require.NotNil(t, deps.prefs.prefs)
	assert.Equal(t, model.DateFormatEUDash, deps.prefs.prefs.DateFormat)

	rec = postForm(deps.mux(), "/options", url.Values{"date_format": {"7"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClearAuth(t *testing.T) {
	deps := newTestDeps()

	rec := postForm(deps.mux(), "/auth/clear", url.Values{})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, deps.creds.deleted)
}

func TestStaticAssets(t *testing.T) {
	rec := httptest.NewRecorder()

	newTestDeps().mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".result.success")
}
