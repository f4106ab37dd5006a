package scraper

import (
	"context"
	"testing"
	"time"

	errs "creatorjoy/pkg/errors"
	"creatorjoy/pkg/instagram"
	"creatorjoy/pkg/logger"
	"creatorjoy/pkg/models"
	"creatorjoy/pkg/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSessions struct {
	creds *session.Credentials
	err   error
}

func (s staticSessions) Credentials(ctx context.Context) (*session.Credentials, error) {
	return s.creds, s.err
}

func newService(sessions SessionSource, feed *fakeFeed, bound **session.Credentials) *Service {
	return NewServiceWithFactory(sessions, func(c *session.Credentials) FeedClient {
		if bound != nil {
			*bound = c
		}
		return feed
	}, logger.NewNopLogger(), WithClock(func() time.Time { return testNow }))
}

func TestServiceScrape(t *testing.T) {
	creds := session.NewCredentials(map[string]string{"sessionid": "s"}, testNow.Add(30*day))
	v1, v2, v3, v4 := video("1", day), video("2", day), video("3", day), video("4", day)
	v1.PlayCount, v2.PlayCount, v3.PlayCount, v4.PlayCount = 10, 20, 30, 1000
	feed := &fakeFeed{userID: "42", pages: map[string]*instagram.FeedPage{
		"": page("", false, v1, v2, v3, v4),
	}}

	var bound *session.Credentials
	ctx := logger.ContextWithRequestID(context.Background(), "run-1")
	result, err := newService(staticSessions{creds: creds}, feed, &bound).Scrape(ctx, "@Creator ", 90, 50)
	require.NoError(t, err)

	assert.Same(t, creds, bound)
	assert.True(t, result.Success)
	assert.Equal(t, 4, result.Count)
	assert.Equal(t, "Creator", result.TargetUsername)
	assert.Equal(t, 90, result.DaysLimit)
	assert.Equal(t, 50, result.MaxReelsLimit)
	assert.Equal(t, "run-1", result.RunID)
	assert.Empty(t, result.Message)

	require.NotNil(t, result.Stats)
	assert.Equal(t, int64(1060), result.Stats.TotalViews)
	assert.Equal(t, int64(30), result.Stats.MedianViews)
	assert.Equal(t, int64(265), result.Stats.AvgViews)
	assert.Equal(t, int64(60), result.Stats.OutlierThreshold)
	assert.Equal(t, 1, result.Stats.OutliersCount)
}

func TestServiceScrapeEmpty(t *testing.T) {
	creds := session.NewCredentials(map[string]string{"sessionid": "s"}, testNow.Add(30*day))

	tests := []struct {
		name     string
		feed     *fakeFeed
		maxReels int
	}{
		{name: "no videos", feed: &fakeFeed{userID: "42", pages: map[string]*instagram.FeedPage{"": page("", false, photo("p"))}}, maxReels: 50},
		{name: "max reels zero", feed: &fakeFeed{userID: "42"}, maxReels: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := newService(staticSessions{creds: creds}, tt.feed, nil).Scrape(context.Background(), "creator", 90, tt.maxReels)
			require.NoError(t, err)

			assert.True(t, result.Success)
			assert.Zero(t, result.Count)
			assert.Equal(t, []models.Reel{}, result.Reels)
			assert.Equal(t, NoReelsMessage, result.Message)
			assert.Nil(t, result.Stats)
			assert.NotEmpty(t, result.RunID)
		})
	}
}

func TestServiceScrapeErrors(t *testing.T) {
	creds := session.NewCredentials(map[string]string{"sessionid": "s"}, testNow.Add(30*day))

	sessionErr := errs.NewSessionError("could not obtain valid Instagram session", nil)
	_, err := newService(staticSessions{err: sessionErr}, &fakeFeed{}, nil).Scrape(context.Background(), "creator", 90, 50)
	assert.True(t, errs.IsType(err, errs.ErrorTypeSession))

	feed := &fakeFeed{resolveErr: errs.New(errs.ErrorTypeNotFound, 404, "no such user")}
	_, err = newService(staticSessions{creds: creds}, feed, nil).Scrape(context.Background(), "ghost", 90, 50)
	assert.True(t, errs.IsType(err, errs.ErrorTypeResolution))
}
