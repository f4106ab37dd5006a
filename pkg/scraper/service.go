package scraper

import (
	"context"
	"time"

	"creatorjoy/pkg/config"
	"creatorjoy/pkg/instagram"
	"creatorjoy/pkg/logger"
	"creatorjoy/pkg/models"
	"creatorjoy/pkg/session"
	"creatorjoy/pkg/stats"

	"github.com/google/uuid"
)

// NoReelsMessage is set on a successful result without reels.
const NoReelsMessage = "No reels found"

// Service runs a full Instagram crawl: it obtains credentials, binds a
// client to them, crawls and summarizes.
type Service struct {
	sessions SessionSource
	clients  ClientFactory
	opts     []Option
	logger   logger.Logger
}

// NewService creates a service whose clients are copies of base bound to
// each credential snapshot.
func NewService(sessions SessionSource, base *instagram.Client, cfg config.InstagramConfig, log logger.Logger) *Service {
	return NewServiceWithFactory(sessions, func(c *session.Credentials) FeedClient {
		return base.WithCredentials(c)
	}, log, WithMaxPages(cfg.MaxPages))
}

// NewServiceWithFactory creates a service with a custom client factory.
// opts are applied to every crawler it creates.
func NewServiceWithFactory(sessions SessionSource, clients ClientFactory, log logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Service{
		sessions: sessions,
		clients:  clients,
		opts:     opts,
		logger:   log,
	}
}

// Scrape crawls handle and returns the response document. Session and
// resolution failures are returned as typed errors; an empty crawl is a
// success carrying NoReelsMessage.
func (s *Service) Scrape(ctx context.Context, handle string, days, maxReels int) (*models.ReelResult, error) {
	start := time.Now()
	username := instagram.SanitizeUsername(handle)

	runID, ok := logger.RequestIDFromContext(ctx)
	if !ok {
		runID = uuid.NewString()
		ctx = logger.ContextWithRequestID(ctx, runID)
	}
	log := s.logger.WithContext(ctx)

	creds, err := s.sessions.Credentials(ctx)
	if err != nil {
		logger.LogCrawl(log, "instagram", username, 0, time.Since(start), err)
		return nil, err
	}

	opts := append([]Option{WithLogger(log)}, s.opts...)
	crawler := NewReelCrawler(s.clients(creds), opts...)

	reels, err := crawler.Crawl(ctx, username, days, maxReels)
	if err != nil {
		logger.LogCrawl(log, "instagram", username, 0, time.Since(start), err)
		return nil, err
	}
	logger.LogCrawl(log, "instagram", username, len(reels), time.Since(start), nil)

	if len(reels) == 0 {
		return &models.ReelResult{
			Success:        true,
			TargetUsername: username,
			Reels:          []models.Reel{},
			Message:        NoReelsMessage,
			RunID:          runID,
		}, nil
	}

	st := stats.FromReels(reels)
	return &models.ReelResult{
		Success:        true,
		Count:          len(reels),
		TargetUsername: username,
		DaysLimit:      days,
		MaxReelsLimit:  maxReels,
		Reels:          reels,
		Stats:          &st,
		RunID:          runID,
	}, nil
}
