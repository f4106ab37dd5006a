// Package youtube crawls a channel's uploads in two phases using the yt-dlp
// executable.
//
// ChannelScanner runs one flat listing of the channel, which is fast but
// leaves upload dates and thumbnails unset for many entries.
// MetadataEnricher then fetches full metadata per video on a bounded worker
// pool, fills only the fields the flat pass left empty, and applies the
// upload-date cutoff once every job has finished.
//
// Both talk to an Extractor; YTDLP is the production implementation.
package youtube
