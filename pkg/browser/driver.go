package browser

import (
	"context"
	"time"
)

// Driver is a connected browser able to open pages.
type Driver interface {
	Open(ctx context.Context, url string) (Page, error)
	Close() error
}

// Page is the set of page operations the login flow needs. Every wait is
// bounded by its timeout and by ctx.
type Page interface {
	// ClickFirst clicks the first button whose text matches pattern. It
	// reports whether one appeared within timeout.
	ClickFirst(ctx context.Context, pattern string, timeout time.Duration) bool

	// WaitVisible reports whether selector became visible within timeout.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) bool

	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error

	// Cookies returns the cookie jar as name/value pairs.
	Cookies(ctx context.Context) (map[string]string, error)

	Close() error
}

// DialFunc connects to a browser backend.
type DialFunc func(ctx context.Context) (Driver, error)
