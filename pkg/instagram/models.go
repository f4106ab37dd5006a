package instagram

import (
	"bytes"
	"encoding/json"
)

// FlexID accepts identifiers the API sends either as JSON strings or numbers.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) String() string {
	return string(f)
}

// ProfileResponse is the web_profile_info document
type ProfileResponse struct {
	RequiresToLogin bool        `json:"requires_to_login"`
	Data            ProfileData `json:"data"`
	Status          string      `json:"status"`
}

// ProfileData wraps the user in a profile response
type ProfileData struct {
	User *ProfileUser `json:"user"`
}

// ProfileUser carries the identifiers of a profile. pk is preferred over id.
type ProfileUser struct {
	PK       FlexID `json:"pk"`
	ID       FlexID `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// UserID returns pk, falling back to id.
func (u *ProfileUser) UserID() string {
	if u == nil {
		return ""
	}
	if u.PK != "" && u.PK != "0" {
		return u.PK.String()
	}
	return u.ID.String()
}

// FeedPage is one page of the user feed
type FeedPage struct {
	Items         []FeedItem `json:"items"`
	NumResults    int        `json:"num_results"`
	MoreAvailable bool       `json:"more_available"`
	NextMaxID     FlexID     `json:"next_max_id"`
	Status        string     `json:"status"`
}

// FeedItem is a single post in the feed
type FeedItem struct {
	ID             FlexID         `json:"id"`
	Code           string         `json:"code"`
	MediaType      int            `json:"media_type"`
	TakenAt        int64          `json:"taken_at"`
	Caption        *Caption       `json:"caption"`
	User           FeedUser       `json:"user"`
	VideoVersions  []MediaVersion `json:"video_versions"`
	ImageVersions2 ImageVersions  `json:"image_versions2"`
	LikeCount      int64          `json:"like_count"`
	CommentCount   int64          `json:"comment_count"`
	PlayCount      int64          `json:"play_count"`
	ViewCount      int64          `json:"view_count"`
	VideoDuration  float64        `json:"video_duration"`
}

// IsVideo reports whether the item is a video post.
func (i FeedItem) IsVideo() bool {
	return i.MediaType == MediaTypeVideo
}

// Caption is the caption object of a post; it is null when absent
type Caption struct {
	Text string `json:"text"`
}

// FeedUser is the author block of a feed item
type FeedUser struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// ImageVersions holds thumbnail candidates, best first
type ImageVersions struct {
	Candidates []MediaVersion `json:"candidates"`
}

// MediaVersion is one rendition of an image or video
type MediaVersion struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// firstURL returns the URL of the first rendition, or "".
func firstURL(versions []MediaVersion) string {
	if len(versions) == 0 {
		return ""
	}
	return versions[0].URL
}

// VideoURL returns the first video rendition.
func (i FeedItem) VideoURL() string {
	return firstURL(i.VideoVersions)
}

// ThumbnailURL returns the first image candidate.
func (i FeedItem) ThumbnailURL() string {
	return firstURL(i.ImageVersions2.Candidates)
}

// CaptionText returns the caption or "".
func (i FeedItem) CaptionText() string {
	if i.Caption == nil {
		return ""
	}
	return i.Caption.Text
}

// Plays returns play_count, falling back to view_count.
func (i FeedItem) Plays() int64 {
	if i.PlayCount != 0 {
		return i.PlayCount
	}
	return i.ViewCount
}
