// Package storage writes JSON state and crawl results to disk.
//
// All writes go through WriteFileAtomic: data lands in a temporary file in
// the destination directory and is renamed over the target, so concurrent
// readers see either the old or the new file, never a torn one. The session
// file and the CLI result archive both use it.
//
// Manager keeps the archive of crawl results under an output directory,
// one file per run named {platform}_{handle}_{run id}.json.
package storage
