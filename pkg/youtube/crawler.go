package youtube

import (
	"context"
	"time"

	"creatorjoy/pkg/logger"
	"creatorjoy/pkg/models"
	"creatorjoy/pkg/stats"
)

// Crawler runs the scan and enrichment phases for one handle.
type Crawler struct {
	scanner  *ChannelScanner
	enricher *MetadataEnricher
	workers  int
	logger   logger.Logger
}

// NewCrawler creates a crawler using extractor for both phases.
func NewCrawler(extractor Extractor, workers int, log logger.Logger) *Crawler {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Crawler{
		scanner:  NewChannelScanner(extractor, log),
		enricher: NewMetadataEnricher(extractor, log),
		workers:  workers,
		logger:   log,
	}
}

// CrawlHandle scans the uploads page of handle, enriches the listing with a
// cutoff of days and attaches the statistics block.
func (c *Crawler) CrawlHandle(ctx context.Context, handle string, maxVideos, days int) (*models.ChannelResult, error) {
	start := time.Now()
	log := c.logger.WithField("handle", handle)

	result, err := c.scanner.Scan(ctx, ChannelURL(handle), maxVideos)
	if err != nil {
		logger.LogCrawl(log, "youtube", handle, 0, time.Since(start), err)
		return nil, err
	}

	result.Handle = handle
	result.Videos = c.enricher.Enrich(ctx, result.Videos, c.workers, &days)
	st := stats.FromVideos(result.Videos)
	result.Stats = &st

	logger.LogCrawl(log, "youtube", handle, len(result.Videos), time.Since(start), nil)
	return result, nil
}
