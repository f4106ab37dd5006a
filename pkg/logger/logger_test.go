package logger

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"creatorjoy/pkg/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "info console", cfg: &config.LoggingConfig{Level: "info"}},
		{name: "debug json", cfg: &config.LoggingConfig{Level: "debug", Format: "json"}},
		{name: "invalid level", cfg: &config.LoggingConfig{Level: "invalid"}, wantErr: true},
		{name: "file output", cfg: &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "app.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func newBufferLogger(t *testing.T) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "debug")
	require.NoError(t, err)
	return l, &buf
}

func TestWithFieldsChaining(t *testing.T) {
	l, buf := newBufferLogger(t)

	l.WithField("handle", "someone").
		WithFields(map[string]interface{}{"page": 2, "accepted": int64(7)}).
		Info("page fetched")

	out := buf.String()
	assert.Contains(t, out, "page fetched")
	assert.Contains(t, out, `"handle":"someone"`)
	assert.Contains(t, out, `"page":2`)
	assert.Contains(t, out, `"accepted":7`)
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	l, buf := newBufferLogger(t)

	_ = l.WithField("child", true)
	l.Info("parent")

	assert.NotContains(t, buf.String(), "child")
}

func TestWithError(t *testing.T) {
	l, buf := newBufferLogger(t)

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("feed timeout")).Error("crawl stopped")
	assert.Contains(t, buf.String(), "feed timeout")
}

func TestWithContextRequestID(t *testing.T) {
	l, buf := newBufferLogger(t)

	ctx := ContextWithRequestID(context.Background(), "run-123")
	l.WithContext(ctx).Info("scoped")

	assert.Contains(t, buf.String(), `"request_id":"run-123"`)

	_, ok := RequestIDFromContext(context.Background())
	assert.False(t, ok)
}

func TestFieldTypes(t *testing.T) {
	l, buf := newBufferLogger(t)

	l.InfoWithFields("typed", map[string]interface{}{
		"time":     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"duration": 5 * time.Second,
		"strings":  []string{"a", "b"},
		"cause":    errors.New("boom"),
		"custom":   struct{ Name string }{Name: "x"},
	})

	out := buf.String()
	assert.Contains(t, out, `"strings":["a","b"]`)
	assert.Contains(t, out, `"cause":"boom"`)
	assert.Contains(t, out, `"Name":"x"`)
}

func TestHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogRequest(tl, "POST", "/instagram/scrape", 200, time.Millisecond)
	LogRequest(tl, "POST", "/instagram/scrape", 400, time.Millisecond)
	LogRequest(tl, "POST", "/instagram/scrape", 500, time.Millisecond)
	LogCrawl(tl, "instagram", "someone", 3, time.Second, nil)
	LogCrawl(tl, "instagram", "someone", 0, time.Second, errors.New("resolve failed"))
	LogSessionRefresh(tl, "keeper", time.Now(), nil)
	LogEnrichment(tl, "abc", nil, errors.New("exit status 1"))

	assert.Len(t, tl.GetMessagesByLevel("INFO"), 3)
	assert.Len(t, tl.GetMessagesByLevel("WARN"), 2)
	assert.Len(t, tl.GetMessagesByLevel("ERROR"), 2)
	assert.True(t, tl.HasMessage("Crawl failed"))
}

func TestTestLoggerSharesSink(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("component", "enricher").WithError(errors.New("x"))
	child.Warn("derived")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "enricher", msgs[0].Fields["component"])
	assert.EqualError(t, msgs[0].Error, "x")
	assert.Contains(t, tl.String(), "[WARN] derived")

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestGlobalLogger(t *testing.T) {
	require.NoError(t, Initialize(&config.LoggingConfig{Level: "debug"}))
	assert.NotNil(t, GetLogger())

	tl := NewTestLogger()
	SetLogger(tl)
	GetLogger().Info("through global")
	assert.True(t, tl.HasMessage("through global"))
}
