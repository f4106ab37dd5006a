package scraper

import (
	"context"
	"time"

	"creatorjoy/pkg/config"
	errs "creatorjoy/pkg/errors"
	"creatorjoy/pkg/instagram"
	"creatorjoy/pkg/logger"
	"creatorjoy/pkg/models"
)

const (
	// cutoffExemption is the number of accepted reels before the age cutoff
	// may end a crawl.
	cutoffExemption = 3

	// DefaultMaxPages bounds a crawl whose cursors never repeat.
	DefaultMaxPages = 200
)

// Stop reasons reported in Report.StopReason.
const (
	StopDateCutoff  = "date_cutoff"
	StopMaxItems    = "max_items"
	StopEmptyPage   = "empty_page"
	StopFetchFailed = "fetch_failed"
	StopEndOfFeed   = "end_of_feed"
	StopPageCeiling = "page_ceiling"
	StopNotStarted  = "max_items_zero"
)

// Report describes a finished crawl.
type Report struct {
	UserID     string
	Reels      []models.Reel
	Pages      int
	StopReason string
}

// ReelCrawler walks one user's feed.
type ReelCrawler struct {
	client   FeedClient
	maxPages int
	now      func() time.Time
	logger   logger.Logger
}

// Option configures a ReelCrawler.
type Option func(*ReelCrawler)

// WithMaxPages sets the page ceiling. Non-positive values use
// DefaultMaxPages.
func WithMaxPages(n int) Option {
	return func(c *ReelCrawler) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// WithClock replaces time.Now for the age cutoff.
func WithClock(now func() time.Time) Option {
	return func(c *ReelCrawler) { c.now = now }
}

// WithLogger sets the crawler logger.
func WithLogger(l logger.Logger) Option {
	return func(c *ReelCrawler) { c.logger = l }
}

// NewReelCrawler creates a crawler over client.
func NewReelCrawler(client FeedClient, opts ...Option) *ReelCrawler {
	c := &ReelCrawler{
		client:   client,
		maxPages: DefaultMaxPages,
		now:      time.Now,
		logger:   logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithField("component", "reel_crawler")
	return c
}

// FromConfig creates a crawler with the page ceiling from cfg.
func FromConfig(client FeedClient, cfg config.InstagramConfig, log logger.Logger) *ReelCrawler {
	return NewReelCrawler(client, WithMaxPages(cfg.MaxPages), WithLogger(log))
}

// Crawl returns up to maxItems reels of handle posted within maxAgeDays, in
// feed order. It fails only when the handle cannot be resolved or ctx ends.
func (c *ReelCrawler) Crawl(ctx context.Context, handle string, maxAgeDays, maxItems int) ([]models.Reel, error) {
	report, err := c.CrawlWithReport(ctx, handle, maxAgeDays, maxItems)
	if err != nil {
		return nil, err
	}
	return report.Reels, nil
}

// CrawlWithReport is Crawl with pagination details. On cancellation the
// reels gathered so far are returned along with ctx's error.
func (c *ReelCrawler) CrawlWithReport(ctx context.Context, handle string, maxAgeDays, maxItems int) (*Report, error) {
	username := instagram.SanitizeUsername(handle)
	log := c.logger.WithField("username", username)

	userID, err := c.client.ResolveUserID(ctx, username)
	if err != nil {
		if errs.IsType(err, errs.ErrorTypeResolution) {
			return nil, err
		}
		return nil, errs.NewResolutionError(username, err)
	}

	report := &Report{UserID: userID, Reels: []models.Reel{}}
	if maxItems <= 0 {
		report.StopReason = StopNotStarted
		return report, nil
	}

	cutoff := models.AgeCutoff(c.now(), maxAgeDays).Unix()
	seen := make(map[string]struct{})
	cursor := ""

	log.InfoWithFields("Starting reel crawl", map[string]interface{}{
		"user_id":   userID,
		"days":      maxAgeDays,
		"max_reels": maxItems,
	})

	for report.StopReason == "" {
		if report.Pages >= c.maxPages {
			report.StopReason = StopPageCeiling
			break
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		page, err := c.client.FetchFeedPage(ctx, userID, cursor)
		report.Pages++
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			log.WithError(err).WithField("page", report.Pages).Warn("Feed page failed, stopping crawl")
			report.StopReason = StopFetchFailed
			break
		}
		if len(page.Items) == 0 {
			report.StopReason = StopEmptyPage
			break
		}

		report.StopReason = c.acceptPage(report, page.Items, seen, username, cutoff, maxItems)
		if report.StopReason != "" {
			break
		}

		next := page.NextMaxID.String()
		if !page.MoreAvailable || next == "" || next == cursor {
			report.StopReason = StopEndOfFeed
			break
		}
		cursor = next
	}

	log.InfoWithFields("Reel crawl stopped", map[string]interface{}{
		"reason": report.StopReason,
		"pages":  report.Pages,
		"reels":  len(report.Reels),
	})
	return report, nil
}

// acceptPage applies the per-item rules in feed order and returns a stop
// reason, or "" to continue with the next page.
func (c *ReelCrawler) acceptPage(report *Report, items []instagram.FeedItem, seen map[string]struct{}, username string, cutoff int64, maxItems int) string {
	for _, item := range items {
		if !item.IsVideo() {
			continue
		}
		if len(report.Reels) >= cutoffExemption && item.TakenAt < cutoff {
			return StopDateCutoff
		}

		id := item.ID.String()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		report.Reels = append(report.Reels, Normalize(item, username))

		if len(report.Reels) >= maxItems {
			return StopMaxItems
		}
	}
	return ""
}
