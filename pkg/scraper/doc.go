// Package scraper crawls a creator's Instagram feed into normalized reels.
//
// ReelCrawler resolves the handle to a user id, then walks the feed page by
// page, strictly sequentially. Only video posts are kept. The crawl stops on
// the first of:
//
//   - an older-than-cutoff post once at least three reels were accepted
//     (pinned posts at the top of a feed may be old);
//   - the requested number of reels;
//   - a page that fails or comes back empty;
//   - more_available false, an empty cursor, or a cursor equal to the
//     current one;
//   - the page ceiling.
//
// Duplicate item ids across overlapping pages are skipped.
package scraper
