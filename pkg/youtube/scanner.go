package youtube

import (
	"context"
	"fmt"
	"strings"

	"creatorjoy/pkg/logger"
	"creatorjoy/pkg/models"
)

const (
	unknownChannel = "Unknown"
	noTitle        = "No title"
	watchURLFormat = "https://www.youtube.com/watch?v=%s"
	channelFormat  = "https://www.youtube.com/@%s/videos"
)

// ChannelURL returns the uploads page of a channel handle, with or without
// the leading @.
func ChannelURL(handle string) string {
	return fmt.Sprintf(channelFormat, strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}

// WatchURL returns the canonical watch URL of a video id.
func WatchURL(videoID string) string {
	return fmt.Sprintf(watchURLFormat, videoID)
}

// ChannelScanner lists a channel's uploads with one flat extraction.
type ChannelScanner struct {
	extractor Extractor
	logger    logger.Logger
}

// NewChannelScanner creates a scanner over extractor.
func NewChannelScanner(extractor Extractor, log logger.Logger) *ChannelScanner {
	if log == nil {
		log = logger.GetLogger()
	}
	return &ChannelScanner{
		extractor: extractor,
		logger:    log.WithField("component", "channel_scanner"),
	}
}

// Scan returns the channel metadata and at most maxVideos of its newest
// uploads. Entries without an id are skipped. Upload dates are often
// missing at this stage.
func (s *ChannelScanner) Scan(ctx context.Context, channelURL string, maxVideos int) (*models.ChannelResult, error) {
	limit := maxVideos
	if limit < 1 {
		limit = 1
	}

	info, err := s.extractor.ChannelListing(ctx, channelURL, limit)
	if err != nil {
		s.logger.WithError(err).WithField("channel_url", channelURL).Error("Error fetching channel info")
		return nil, err
	}

	result := &models.ChannelResult{
		ChannelName: valueOr(info.Channel, unknownChannel),
		ChannelID:   valueOr(info.ChannelID, unknownChannel),
		ChannelURL:  valueOr(info.ChannelURL, channelURL),
		Videos:      []models.Video{},
	}
	if info.ChannelViewCount != nil {
		result.TotalChannelViews = *info.ChannelViewCount
	}

	for _, entry := range info.Entries {
		if len(result.Videos) >= maxVideos {
			break
		}
		if entry.ID == "" {
			continue
		}
		result.Videos = append(result.Videos, videoFromEntry(entry))
	}
	result.TotalVideosFetched = len(result.Videos)

	s.logger.DebugWithFields("Scanned channel", map[string]interface{}{
		"channel_url": result.ChannelURL,
		"entries":     len(info.Entries),
		"videos":      result.TotalVideosFetched,
	})
	return result, nil
}

func videoFromEntry(e Entry) models.Video {
	description := deref(e.Description)
	v := models.Video{
		VideoID:      e.ID,
		Title:        noTitle,
		Description:  description,
		Hashtags:     models.ExtractHashtags(description, true),
		UploadDate:   deref(e.UploadDate),
		ThumbnailURL: deref(e.Thumbnail),
		VideoURL:     WatchURL(e.ID),
	}
	if e.Title != nil {
		v.Title = *e.Title
	}
	if e.ViewCount != nil {
		v.ViewCount = *e.ViewCount
	}
	if e.Duration != nil {
		v.DurationSeconds = *e.Duration
	}
	return v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
