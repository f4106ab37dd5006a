package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"creatorjoy/pkg/config"
	errs "creatorjoy/pkg/errors"
	"creatorjoy/pkg/logger"
	"creatorjoy/pkg/models"
	"creatorjoy/pkg/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	valid      bool
	refreshErr error
	refreshes  int
}

func (f *fakeSessions) Valid() bool { return f.valid }

func (f *fakeSessions) Status(now time.Time) session.Status {
	return session.Status{Valid: f.valid, Path: "session_data.json", Cookies: []string{"sessionid"}}
}

func (f *fakeSessions) Refresh(ctx context.Context, trigger string) (*session.Credentials, error) {
	f.refreshes++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return session.NewCredentials(map[string]string{"sessionid": "s"}, time.Now().Add(time.Hour)), nil
}

type scrapeCall struct {
	handle         string
	days, maxReels int
	runID          string
}

type fakeReels struct {
	result *models.ReelResult
	err    error
	calls  []scrapeCall
}

func (f *fakeReels) Scrape(ctx context.Context, handle string, days, maxReels int) (*models.ReelResult, error) {
	id, _ := logger.RequestIDFromContext(ctx)
	f.calls = append(f.calls, scrapeCall{handle, days, maxReels, id})
	return f.result, f.err
}

type crawlCall struct {
	handle          string
	maxVideos, days int
}

type fakeChannels struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls []crawlCall
}

func (f *fakeChannels) CrawlHandle(ctx context.Context, handle string, maxVideos, days int) (*models.ChannelResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, crawlCall{handle, maxVideos, days})
	f.mu.Unlock()
	if f.fail[handle] {
		return nil, errors.New("yt-dlp failed")
	}
	return &models.ChannelResult{Handle: handle, ChannelName: "Name " + handle, Videos: []models.Video{}}, nil
}

type fixture struct {
	sessions *fakeSessions
	reels    *fakeReels
	channels *fakeChannels
	handler  http.Handler
	log      *logger.TestLogger
}

func newFixture() *fixture {
	f := &fixture{
		sessions: &fakeSessions{valid: true},
		reels:    &fakeReels{},
		channels: &fakeChannels{fail: map[string]bool{}},
		log:      logger.NewTestLogger(),
	}
	cfg := config.DefaultConfig()
	cfg.Server.MaxBodyBytes = 1024
	f.handler = New(cfg, f.sessions, f.reels, f.channels, f.log).Handler()
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealthEndpoints(t *testing.T) {
	f := newFixture()

	tests := []struct {
		path    string
		service string
	}{
		{"/health", "social-scraper"},
		{"/instagram/health", "instagram-scraper"},
		{"/youtube/health", "youtube-scraper"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := f.do(http.MethodGet, tt.path, "")
			assert.Equal(t, http.StatusOK, rec.Code)

			var body map[string]interface{}
			decode(t, rec, &body)
			assert.Equal(t, "ok", body["status"])
			assert.Equal(t, tt.service, body["service"])
		})
	}

	f.sessions.valid = false
	var body map[string]interface{}
	decode(t, f.do(http.MethodGet, "/instagram/health", ""), &body)
	assert.Equal(t, false, body["session_valid"])
}

func TestSessionStatus(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodGet, "/instagram/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"session_valid":true`)
	assert.NotContains(t, rec.Body.String(), `"s"`)
}

func TestRefreshSession(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodPost, "/instagram/refresh-session", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Session refreshed successfully"}`, rec.Body.String())

	f.sessions.refreshErr = errs.NewConfigurationError("browser automation backend not configured")
	rec = f.do(http.MethodPost, "/instagram/refresh-session", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Failed to refresh session (SELENIUM_REMOTE_URL not configured)"}`, rec.Body.String())

	f.sessions.refreshErr = errs.NewSessionError("refresh returned no session cookie", nil)
	rec = f.do(http.MethodPost, "/instagram/refresh-session", "")
	assert.JSONEq(t, `{"success":false,"error":"Failed to refresh session"}`, rec.Body.String())
}

func TestInstagramScrape(t *testing.T) {
	f := newFixture()
	f.reels.result = &models.ReelResult{Success: true, Count: 1, TargetUsername: "someone", Reels: []models.Reel{{ID: "1"}}}

	rec := f.do(http.MethodPost, "/instagram/scrape", `{"target_username":"someone","days":"30","max_reels":10}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, f.reels.calls, 1)
	call := f.reels.calls[0]
	assert.Equal(t, "someone", call.handle)
	assert.Equal(t, 30, call.days)
	assert.Equal(t, 10, call.maxReels)
	assert.NotEmpty(t, call.runID)
	assert.Equal(t, call.runID, rec.Header().Get(RequestIDHeader))

	var body models.ReelResult
	decode(t, rec, &body)
	assert.True(t, body.Success)
	assert.Equal(t, 1, body.Count)
}

func TestInstagramScrapeDefaults(t *testing.T) {
	f := newFixture()
	f.reels.result = &models.ReelResult{Success: true, Reels: []models.Reel{}, Message: "No reels found"}

	rec := f.do(http.MethodPost, "/instagram/scrape", `{"target_username":"someone"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 90, f.reels.calls[0].days)
	assert.Equal(t, 50, f.reels.calls[0].maxReels)
	assert.Contains(t, rec.Body.String(), `"reels":[]`)
}

func TestInstagramScrapeErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantErr  string
		code     string
	}{
		{name: "missing username", body: `{"days":5}`, wantCode: 400, wantErr: "target_username is required", code: CodeInvalidInput},
		{name: "invalid json", body: `{"target_username":`, wantCode: 400, code: CodeInvalidInput},
		{name: "not an object", body: `[1]`, wantCode: 400, code: CodeInvalidInput},
		{name: "bad days", body: `{"target_username":"x","days":"soon"}`, wantCode: 400, wantErr: "days must be an integer", code: CodeInvalidInput},
		{name: "session", body: `{"target_username":"x"}`, err: errs.NewSessionError("no cookie", nil), wantCode: 401, wantErr: "Could not obtain valid Instagram session", code: CodeSessionUnavailable},
		{name: "resolution", body: `{"target_username":"x"}`, err: errs.NewResolutionError("x", nil), wantCode: 400, wantErr: "failed to resolve user ID for x", code: CodeResolutionFailed},
		{name: "internal", body: `{"target_username":"x"}`, err: errors.New("boom"), wantCode: 500, wantErr: "boom", code: CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.reels.err = tt.err

			rec := f.do(http.MethodPost, "/instagram/scrape", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)

			var body map[string]interface{}
			decode(t, rec, &body)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.code, body["code"])
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, body["error"])
			}
		})
	}
}

func TestYouTubeScrapeBatch(t *testing.T) {
	f := newFixture()
	f.channels.fail["broken"] = true

	body := `[
		{"handle":"one"},
		{"handle":"two","max_reels":"5","days":"7"},
		"not-an-object",
		{"handle":"three","days":"x"},
		{"max_reels":3},
		{"handle":"broken"}
	]`
	rec := f.do(http.MethodPost, "/youtube/scrape", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var out []map[string]interface{}
	decode(t, rec, &out)
	require.Len(t, out, 6)

	assert.Equal(t, "one", out[0]["handle"])
	assert.Equal(t, "Name one", out[0]["channel_name"])
	assert.Equal(t, "two", out[1]["handle"])
	assert.Equal(t, "Each array item must be an object", out[2]["error"])
	assert.Equal(t, "not-an-object", out[2]["raw"])
	assert.Equal(t, "max_reels and days must be integers", out[3]["error"])
	assert.Equal(t, "Missing handle", out[4]["error"])
	assert.Equal(t, "Failed to fetch channel data", out[5]["error"])
	assert.Equal(t, "https://www.youtube.com/@broken/videos", out[5]["channel_url"])

	assert.Equal(t, []crawlCall{
		{"one", 30, 90},
		{"two", 5, 7},
		{"broken", 30, 90},
	}, f.channels.calls)
}

func TestYouTubeScrapeBadBodies(t *testing.T) {
	tests := []struct {
		name, body, wantErr string
	}{
		{"invalid json", `[{"handle":`, "Invalid JSON"},
		{"missing body", ``, "Missing JSON body"},
		{"object", `{"handle":"x"}`, "Body must be a JSON array"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newFixture().do(http.MethodPost, "/youtube/scrape", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]interface{}
			decode(t, rec, &body)
			assert.Equal(t, tt.wantErr, body["error"])
		})
	}
}

func TestBodyLimit(t *testing.T) {
	f := newFixture()
	big := `[{"handle":"` + strings.Repeat("a", 2048) + `"}]`
	rec := f.do(http.MethodPost, "/youtube/scrape", big)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.channels.calls)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodOptions, "/instagram/scrape", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")

	rec = f.do(http.MethodGet, "/health", "")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDPropagated(t *testing.T) {
	f := newFixture()
	f.reels.result = &models.ReelResult{Success: true}

	req := httptest.NewRequest(http.MethodPost, "/instagram/scrape", strings.NewReader(`{"target_username":"x"}`))
	req.Header.Set(RequestIDHeader, "run-42")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, "run-42", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "run-42", f.reels.calls[0].runID)
}

func TestRequestLoggingAndNotFound(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodGet, "/instagram/scrape", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	assert.Len(t, f.log.GetMessagesByLevel("WARN"), 2)
	msgs := f.log.GetMessagesByLevel("WARN")
	assert.Equal(t, "HTTP request client error", msgs[0].Message)
	assert.Equal(t, 404, msgs[0].Fields["status_code"])
}

func TestRecoverer(t *testing.T) {
	f := newFixture()
	srv := New(config.DefaultConfig(), f.sessions, panicky{}, f.channels, f.log)

	req := httptest.NewRequest(http.MethodPost, "/instagram/scrape", strings.NewReader(`{"target_username":"x"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal Server Error")
	assert.True(t, f.log.HasMessage("Handler panicked"))
}

type panicky struct{}

func (panicky) Scrape(ctx context.Context, handle string, days, maxReels int) (*models.ReelResult, error) {
	panic("scraper exploded")
}

func TestListenAndServeShutdown(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = time.Second

	srv := New(cfg, &fakeSessions{}, &fakeReels{}, &fakeChannels{}, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
