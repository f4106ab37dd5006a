// Package instagram is a client for the two private web endpoints the reel
// crawler needs: profile lookup (handle to numeric user id) and the user
// feed, paginated by an opaque max_id cursor.
//
// A Client carries the browser-like headers the web app sends. It is bound
// to one credential snapshot with WithCredentials, which adds the session
// cookies and the X-CSRFToken header:
//
//	c := instagram.NewClient(cfg.Instagram, limiter, retryCfg, log).WithCredentials(creds)
//	userID, err := c.ResolveUserID(ctx, "someone")
//	page, err := c.FetchFeedPage(ctx, userID, "")
//
// Every request waits on the rate limiter and is retried on network, 429 and
// 5xx failures. Errors are *errors.Error values from pkg/errors.
package instagram
