package models

import "time"

// DatePostedLayout is the layout of Reel.DatePosted.
const DatePostedLayout = "2006-01-02 15:04:05"

// UploadDateLayout is the yt-dlp upload_date layout (YYYYMMDD).
const UploadDateLayout = "20060102"

// maxCutoffDays bounds AgeCutoff; larger spans reach before year one anyway.
const maxCutoffDays = 3_000_000

// AgeCutoff returns the publish time below which content older than days is
// excluded. Spans longer than the calendar clamp to the zero time.
func AgeCutoff(now time.Time, days int) time.Time {
	if days > maxCutoffDays {
		return time.Time{}
	}
	return now.AddDate(0, 0, -days)
}

// Reel is one normalized Instagram video post.
type Reel struct {
	ID           string   `json:"id"`
	Shortcode    string   `json:"shortcode"`
	URL          string   `json:"url"`
	Username     string   `json:"username"`
	FullName     string   `json:"full_name"`
	Caption      string   `json:"caption"`
	Hashtags     []string `json:"hashtags"`
	ViewCount    int64    `json:"view_count"`
	Likes        int64    `json:"likes"`
	Comments     int64    `json:"comments"`
	DatePosted   string   `json:"date_posted"`
	Timestamp    int64    `json:"timestamp"`
	ThumbnailURL string   `json:"thumbnail"`
	VideoURL     string   `json:"video_url"`
	Duration     float64  `json:"duration"`
}

// PostedAt returns the publish time.
func (r Reel) PostedAt() time.Time {
	return time.Unix(r.Timestamp, 0)
}

// Video is one YouTube upload. The flat scan fills what the channel listing
// carries; enrichment fills the rest without overwriting populated fields.
type Video struct {
	VideoID         string   `json:"video_id"`
	Title           string   `json:"title"`
	ViewCount       int64    `json:"view_count"`
	Description     string   `json:"description"`
	Hashtags        []string `json:"hashtags"`
	UploadDate      string   `json:"upload_date"`
	UploadDatetime  *string  `json:"upload_datetime"`
	ThumbnailURL    string   `json:"thumbnail_url"`
	DurationSeconds float64  `json:"duration_seconds"`
	VideoURL        string   `json:"video_url"`
}

// VideoDetails is the subset of full per-video metadata used for enrichment.
type VideoDetails struct {
	UploadDate  string
	Thumbnail   string
	Description string
	ViewCount   int64
}

// Fill merges d into v, only touching fields that are empty (or zero for the
// view count). It returns the names of the fields it filled.
func (v *Video) Fill(d VideoDetails) []string {
	var filled []string
	if v.UploadDate == "" && d.UploadDate != "" {
		v.UploadDate = d.UploadDate
		filled = append(filled, "upload_date")
	}
	if v.ThumbnailURL == "" && d.Thumbnail != "" {
		v.ThumbnailURL = d.Thumbnail
		filled = append(filled, "thumbnail_url")
	}
	if v.Description == "" && d.Description != "" {
		v.Description = d.Description
		filled = append(filled, "description")
	}
	if v.ViewCount == 0 && d.ViewCount != 0 {
		v.ViewCount = d.ViewCount
		filled = append(filled, "view_count")
	}
	return filled
}

// UploadedAt parses UploadDate. ok is false when the date is missing or
// malformed.
func (v Video) UploadedAt() (t time.Time, ok bool) {
	if v.UploadDate == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(UploadDateLayout, v.UploadDate, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Stats is the summary block computed over a finished result.
type Stats struct {
	TotalViews       int64   `json:"total_views"`
	TotalLikes       int64   `json:"total_likes"`
	TotalComments    int64   `json:"total_comments"`
	AvgViews         int64   `json:"avg_views"`
	MedianViews      int64   `json:"median_views"`
	MinViews         int64   `json:"min_views"`
	MaxViews         int64   `json:"max_views"`
	OutliersCount    int     `json:"outliers_count"`
	OutlierThreshold int64   `json:"outlier_threshold"`
	ConsistencyScore float64 `json:"consistency_score"`
}

// ReelResult is the response to an Instagram crawl.
type ReelResult struct {
	Success        bool   `json:"success"`
	Count          int    `json:"count"`
	TargetUsername string `json:"target_username"`
	DaysLimit      int    `json:"days_limit,omitempty"`
	MaxReelsLimit  int    `json:"max_reels_limit,omitempty"`
	Reels          []Reel `json:"reels"`
	Stats          *Stats `json:"stats,omitempty"`
	Message        string `json:"message,omitempty"`
	RunID          string `json:"run_id,omitempty"`
}

// ChannelResult is one entry of a YouTube batch response.
type ChannelResult struct {
	Handle             string  `json:"handle"`
	ChannelName        string  `json:"channel_name"`
	ChannelID          string  `json:"channel_id"`
	ChannelURL         string  `json:"channel_url"`
	TotalChannelViews  int64   `json:"total_channel_views"`
	TotalVideosFetched int     `json:"total_videos_fetched"`
	Videos             []Video `json:"videos"`
	Stats              *Stats  `json:"stats,omitempty"`
}

// ChannelError is a failed entry of a YouTube batch response.
type ChannelError struct {
	Handle     string      `json:"handle"`
	ChannelURL string      `json:"channel_url,omitempty"`
	Error      string      `json:"error"`
	Raw        interface{} `json:"raw,omitempty"`
}
