package scraper

import (
	"context"

	"creatorjoy/pkg/instagram"
	"creatorjoy/pkg/session"
)

// FeedClient is the part of the Instagram client the crawler uses. It is
// expected to be bound to one credential snapshot.
type FeedClient interface {
	ResolveUserID(ctx context.Context, username string) (string, error)
	FetchFeedPage(ctx context.Context, userID, cursor string) (*instagram.FeedPage, error)
}

// SessionSource hands out a valid credential snapshot, refreshing when
// needed.
type SessionSource interface {
	Credentials(ctx context.Context) (*session.Credentials, error)
}

// ClientFactory binds a feed client to one credential snapshot.
type ClientFactory func(creds *session.Credentials) FeedClient
