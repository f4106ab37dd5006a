// Package ratelimit throttles outbound requests to the Instagram web API.
//
// TokenBucket wraps golang.org/x/time/rate: the bucket holds BurstSize
// tokens and refills at RequestsPerMinute. Wait honors context
// cancellation so a crawl aborted by its caller stops queueing.
package ratelimit
