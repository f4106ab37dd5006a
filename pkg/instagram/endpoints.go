package instagram

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// BaseURL is the base URL for Instagram
	BaseURL = "https://www.instagram.com"

	// ProfileEndpoint resolves a username to a profile document
	ProfileEndpoint = "/api/v1/users/web_profile_info/"

	// FeedEndpoint is the per-user feed, formatted with the numeric id
	FeedEndpoint = "/api/v1/feed/user/%s/"

	// DefaultPageSize is the number of feed items requested per page
	DefaultPageSize = 12

	// MediaTypeVideo marks reels and other video posts in the feed
	MediaTypeVideo = 2
)

// GetProfileURL constructs the profile lookup URL for username
func GetProfileURL(baseURL, username string) string {
	params := url.Values{}
	params.Set("username", username)
	return fmt.Sprintf("%s%s?%s", strings.TrimRight(baseURL, "/"), ProfileEndpoint, params.Encode())
}

// GetFeedURL constructs the feed URL for one page. An empty cursor requests
// the first page.
func GetFeedURL(baseURL, userID, cursor string, count int) string {
	if count <= 0 {
		count = DefaultPageSize
	}
	params := url.Values{}
	params.Set("count", strconv.Itoa(count))
	if cursor != "" {
		params.Set("max_id", cursor)
	}
	path := fmt.Sprintf(FeedEndpoint, url.PathEscape(userID))
	return fmt.Sprintf("%s%s?%s", strings.TrimRight(baseURL, "/"), path, params.Encode())
}

// GetReelURL constructs the canonical reel URL for a shortcode
func GetReelURL(shortcode string) string {
	return fmt.Sprintf("%s/reel/%s/", BaseURL, shortcode)
}

// SanitizeUsername strips a leading @ and surrounding whitespace or slashes
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	username = strings.TrimPrefix(username, "@")
	return strings.TrimRight(username, "/ ")
}
