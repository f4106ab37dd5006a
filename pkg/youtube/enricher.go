package youtube

import (
	"context"
	"time"

	"creatorjoy/internal/workerpool"
	"creatorjoy/pkg/logger"
	"creatorjoy/pkg/models"
)

// DefaultWorkers is the enrichment pool size when none is given.
const DefaultWorkers = 5

// uploadDatetimeLayout renders a parsed upload date at local midnight.
const uploadDatetimeLayout = "2006-01-02T15:04:05"

// EnrichFailure is a video whose full metadata could not be fetched. The
// video keeps its flat metadata.
type EnrichFailure struct {
	VideoID string
	Err     error
}

// EnrichReport is the outcome of an enrichment pass.
type EnrichReport struct {
	Videos   []models.Video
	Failures []EnrichFailure
	Dropped  int
}

// MetadataEnricher backfills flat-listing videos with full metadata.
type MetadataEnricher struct {
	extractor Extractor
	now       func() time.Time
	logger    logger.Logger
}

// NewMetadataEnricher creates an enricher over extractor.
func NewMetadataEnricher(extractor Extractor, log logger.Logger) *MetadataEnricher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &MetadataEnricher{
		extractor: extractor,
		now:       time.Now,
		logger:    log.WithField("component", "metadata_enricher"),
	}
}

// Enrich returns videos with missing fields filled and, when maxAgeDays is
// set, without those uploaded before the cutoff. Order is preserved.
func (e *MetadataEnricher) Enrich(ctx context.Context, videos []models.Video, maxWorkers int, maxAgeDays *int) []models.Video {
	return e.EnrichWithReport(ctx, videos, maxWorkers, maxAgeDays).Videos
}

// EnrichWithReport is Enrich with per-video failures. The input slice is not
// modified.
func (e *MetadataEnricher) EnrichWithReport(ctx context.Context, videos []models.Video, maxWorkers int, maxAgeDays *int) *EnrichReport {
	if maxWorkers <= 0 {
		maxWorkers = DefaultWorkers
	}
	start := time.Now()

	results := workerpool.Run(ctx, maxWorkers, videos, func(ctx context.Context, v models.Video) (*Entry, error) {
		return e.extractor.VideoDetails(ctx, WatchURL(v.VideoID))
	}, e.logger)

	report := &EnrichReport{Videos: make([]models.Video, 0, len(videos))}
	enriched := make([]models.Video, len(videos))

	for i, r := range results {
		v := videos[i]

		if r.Error != nil {
			report.Failures = append(report.Failures, EnrichFailure{VideoID: v.VideoID, Err: r.Error})
			logger.LogEnrichment(e.logger, v.VideoID, nil, r.Error)
		} else {
			filled := v.Fill(detailsFromEntry(r.Value))
			logger.LogEnrichment(e.logger, v.VideoID, filled, nil)
		}

		if at, ok := v.UploadedAt(); ok {
			iso := at.Format(uploadDatetimeLayout)
			v.UploadDatetime = &iso
		}
		v.Hashtags = models.ExtractHashtags(v.Description, true)
		enriched[i] = v
	}

	var cutoff time.Time
	if maxAgeDays != nil {
		cutoff = models.AgeCutoff(e.now(), *maxAgeDays)
	}
	for _, v := range enriched {
		if maxAgeDays != nil {
			if at, ok := v.UploadedAt(); ok && at.Before(cutoff) {
				report.Dropped++
				continue
			}
		}
		report.Videos = append(report.Videos, v)
	}

	e.logger.InfoWithFields("Enrichment completed", map[string]interface{}{
		"videos":      len(videos),
		"kept":        len(report.Videos),
		"dropped":     report.Dropped,
		"failures":    len(report.Failures),
		"workers":     maxWorkers,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return report
}

func detailsFromEntry(e *Entry) models.VideoDetails {
	if e == nil {
		return models.VideoDetails{}
	}
	d := models.VideoDetails{
		UploadDate:  deref(e.UploadDate),
		Thumbnail:   deref(e.Thumbnail),
		Description: deref(e.Description),
	}
	if e.ViewCount != nil {
		d.ViewCount = *e.ViewCount
	}
	return d
}
