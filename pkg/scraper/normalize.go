package scraper

import (
	"time"

	"creatorjoy/pkg/instagram"
	"creatorjoy/pkg/models"
)

// Normalize converts a feed item into a Reel. username is used when the item
// carries no author.
func Normalize(item instagram.FeedItem, username string) models.Reel {
	caption := item.CaptionText()

	author := item.User.Username
	if author == "" {
		author = username
	}

	datePosted := ""
	if item.TakenAt != 0 {
		datePosted = time.Unix(item.TakenAt, 0).Format(models.DatePostedLayout)
	}

	return models.Reel{
		ID:           item.ID.String(),
		Shortcode:    item.Code,
		URL:          instagram.GetReelURL(item.Code),
		Username:     author,
		FullName:     item.User.FullName,
		Caption:      caption,
		Hashtags:     models.ExtractHashtags(caption, false),
		ViewCount:    item.Plays(),
		Likes:        item.LikeCount,
		Comments:     item.CommentCount,
		DatePosted:   datePosted,
		Timestamp:    item.TakenAt,
		ThumbnailURL: item.ThumbnailURL(),
		VideoURL:     item.VideoURL(),
		Duration:     item.VideoDuration,
	}
}
