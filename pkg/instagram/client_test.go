package instagram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"creatorjoy/pkg/config"
	errs "creatorjoy/pkg/errors"
	"creatorjoy/pkg/logger"
	"creatorjoy/pkg/retry"
	"creatorjoy/pkg/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) config.InstagramConfig {
	return config.InstagramConfig{
		BaseURL:        baseURL,
		UserAgent:      "test-agent",
		AppID:          "936619743392459",
		ASBDID:         "129477",
		ProfileTimeout: time.Second,
		FeedTimeout:    time.Second,
		PageSize:       12,
	}
}

func fastRetry() *retry.Config {
	cfg := retry.DefaultConfig()
	cfg.Backoff = &retry.ConstantBackoff{Delay: time.Millisecond}
	cfg.RateLimitBackoff = &retry.ConstantBackoff{Delay: time.Millisecond}
	return cfg
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *logger.TestLogger) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logger.NewTestLogger()
	creds := session.NewCredentials(map[string]string{
		"sessionid": "sid",
		"csrftoken": "csrf",
	}, time.Now().Add(24*time.Hour))

	return NewClient(testConfig(server.URL), nil, fastRetry(), log).WithCredentials(creds), log
}

func TestRequestCarriesHeadersAndCookies(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "936619743392459", r.Header.Get("X-IG-App-ID"))
		assert.Equal(t, "129477", r.Header.Get("X-ASBD-ID"))
		assert.Equal(t, "csrf", r.Header.Get("X-CSRFToken"))
		assert.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))

		sid, err := r.Cookie("sessionid")
		require.NoError(t, err)
		assert.Equal(t, "sid", sid.Value)

		w.Write([]byte(`{"data":{"user":{"id":"1"}}}`))
	})

	_, err := client.ResolveUserID(context.Background(), "someone")
	require.NoError(t, err)
}

func TestWithCredentialsDoesNotMutateParent(t *testing.T) {
	base := NewClient(testConfig(BaseURL), nil, nil, logger.NewNopLogger())
	bound := base.WithCredentials(session.NewCredentials(map[string]string{"sessionid": "a", "csrftoken": "b"}, time.Now()))

	assert.Empty(t, base.headers["X-CSRFToken"])
	assert.Empty(t, base.cookies)
	assert.Equal(t, "b", bound.headers["X-CSRFToken"])
	assert.Len(t, bound.cookies, 2)
}

func TestResolveUserID(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{name: "pk preferred", status: 200, body: `{"data":{"user":{"pk":"123","id":"456"}}}`, want: "123"},
		{name: "numeric pk", status: 200, body: `{"data":{"user":{"pk":7890123}}}`, want: "7890123"},
		{name: "id fallback", status: 200, body: `{"data":{"user":{"id":"456"}}}`, want: "456"},
		{name: "no user", status: 200, body: `{"data":{"user":null}}`, wantErr: true},
		{name: "not found", status: 404, body: ``, wantErr: true},
		{name: "login required", status: 200, body: `{"requires_to_login":true}`, wantErr: true},
		{name: "bad json", status: 200, body: `<html>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, ProfileEndpoint, r.URL.Path)
				assert.Equal(t, "someone", r.URL.Query().Get("username"))
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			id, err := client.ResolveUserID(context.Background(), "someone")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errs.IsType(err, errs.ErrorTypeResolution))
				assert.Contains(t, err.Error(), "failed to resolve user ID for someone")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestFetchFeedPage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/feed/user/123/", r.URL.Path)
		assert.Equal(t, "12", r.URL.Query().Get("count"))
		assert.Equal(t, "cursor-1", r.URL.Query().Get("max_id"))
		w.Write([]byte(`{
			"items": [{
				"id": "111_123", "code": "ABC", "media_type": 2, "taken_at": 1700000000,
				"caption": {"text": "hello #go"}, "user": {"username": "someone", "full_name": "Some One"},
				"video_versions": [{"url": "https://v/1.mp4"}],
				"image_versions2": {"candidates": [{"url": "https://i/1.jpg"}]},
				"like_count": 5, "comment_count": 2, "view_count": 99, "video_duration": 12.5
			}],
			"more_available": true,
			"next_max_id": "cursor-2"
		}`))
	})

	page, err := client.FetchFeedPage(context.Background(), "123", "cursor-1")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	item := page.Items[0]
	assert.Equal(t, FlexID("111_123"), item.ID)
	assert.True(t, item.IsVideo())
	assert.Equal(t, "hello #go", item.CaptionText())
	assert.Equal(t, int64(99), item.Plays())
	assert.Equal(t, "https://v/1.mp4", item.VideoURL())
	assert.Equal(t, "https://i/1.jpg", item.ThumbnailURL())
	assert.True(t, page.MoreAvailable)
	assert.Equal(t, "cursor-2", page.NextMaxID.String())
}

func TestFirstPageOmitsCursor(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.URL.Query()["max_id"]
		assert.False(t, ok)
		w.Write([]byte(`{"items":[]}`))
	})

	page, err := client.FetchFeedPage(context.Background(), "123", "")
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestRetriesTransientStatus(t *testing.T) {
	var calls int32
	client, log := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"items":[]}`))
	})

	_, err := client.FetchFeedPage(context.Background(), "123", "")
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.True(t, log.HasMessage("rate limit exceeded"))
}

func TestDoesNotRetryAuthFailure(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.FetchFeedPage(context.Background(), "123", "")
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeAuth))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAttemptTimeoutIsRetried(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
			return
		}
		w.Write([]byte(`{"items":[]}`))
	})
	client.feedTimeout = 50 * time.Millisecond

	_, err := client.FetchFeedPage(context.Background(), "123", "")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCancelledContextStopsRetries(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchFeedPage(ctx, "123", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEndpoints(t *testing.T) {
	assert.Equal(t, "https://www.instagram.com/api/v1/users/web_profile_info/?username=some.one",
		GetProfileURL(BaseURL, "some.one"))
	assert.Equal(t, "https://www.instagram.com/api/v1/feed/user/42/?count=12",
		GetFeedURL(BaseURL+"/", "42", "", 0))
	assert.Equal(t, "https://www.instagram.com/api/v1/feed/user/42/?count=12&max_id=abc",
		GetFeedURL(BaseURL, "42", "abc", 12))
	assert.Equal(t, "https://www.instagram.com/reel/XYZ/", GetReelURL("XYZ"))

	assert.Equal(t, "someone", SanitizeUsername(" @someone/ "))
}
