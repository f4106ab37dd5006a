package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"creatorjoy/pkg/config"
	errs "creatorjoy/pkg/errors"
)

// ChannelInfo is the flat listing document of a channel.
type ChannelInfo struct {
	Channel          string  `json:"channel"`
	ChannelID        string  `json:"channel_id"`
	ChannelURL       string  `json:"channel_url"`
	ChannelViewCount *int64  `json:"channel_view_count"`
	Entries          []Entry `json:"entries"`
}

// Entry is one video of a flat listing or a full video document.
type Entry struct {
	ID          string   `json:"id"`
	Title       *string  `json:"title"`
	ViewCount   *int64   `json:"view_count"`
	Description *string  `json:"description"`
	Duration    *float64 `json:"duration"`
	UploadDate  *string  `json:"upload_date"`
	Thumbnail   *string  `json:"thumbnail"`
}

// Extractor fetches channel listings and per-video metadata.
type Extractor interface {
	ChannelListing(ctx context.Context, channelURL string, limit int) (*ChannelInfo, error)
	VideoDetails(ctx context.Context, videoURL string) (*Entry, error)
}

// YTDLP runs the yt-dlp executable and decodes its JSON output.
type YTDLP struct {
	Path        string
	CookiesFile string
	FlatTimeout time.Duration
	ItemTimeout time.Duration
}

// NewYTDLP creates an extractor from the youtube config section.
func NewYTDLP(cfg config.YouTubeConfig) *YTDLP {
	path := cfg.YTDLPPath
	if path == "" {
		path = "yt-dlp"
	}
	return &YTDLP{
		Path:        path,
		CookiesFile: cfg.CookiesFile,
		FlatTimeout: cfg.FlatTimeout,
		ItemTimeout: cfg.ItemTimeout,
	}
}

// Available reports whether the executable can be found.
func (y *YTDLP) Available() bool {
	_, err := exec.LookPath(y.Path)
	return err == nil
}

// FlatArgs returns the arguments of a flat channel listing.
func (y *YTDLP) FlatArgs(channelURL string, limit int) []string {
	return []string{
		"--flat-playlist",
		"--dump-single-json",
		"--skip-download",
		"--no-warnings",
		"--playlist-end", strconv.Itoa(limit),
		"--extractor-args", "youtube:skip=comments",
		channelURL,
	}
}

// DetailArgs returns the arguments of a full single-video lookup.
func (y *YTDLP) DetailArgs(videoURL string) []string {
	args := []string{
		"--dump-single-json",
		"--skip-download",
		"--no-warnings",
		"--no-playlist",
	}
	if y.CookiesFile != "" {
		args = append(args, "--cookies", y.CookiesFile)
	}
	return append(args, videoURL)
}

func (y *YTDLP) ChannelListing(ctx context.Context, channelURL string, limit int) (*ChannelInfo, error) {
	var info ChannelInfo
	if err := y.run(ctx, y.FlatTimeout, y.FlatArgs(channelURL, limit), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (y *YTDLP) VideoDetails(ctx context.Context, videoURL string) (*Entry, error) {
	var entry Entry
	if err := y.run(ctx, y.ItemTimeout, y.DetailArgs(videoURL), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (y *YTDLP) run(ctx context.Context, timeout time.Duration, args []string, target interface{}) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, y.Path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return errs.Wrap(errs.ErrorTypeNetwork, 0, "yt-dlp timed out", ctx.Err())
		}
		var execErr *exec.Error
		if errors.As(err, &execErr) || errors.Is(err, fs.ErrNotExist) {
			return errs.Wrap(errs.ErrorTypeConfiguration, 0, fmt.Sprintf("yt-dlp executable %q not found", y.Path), err)
		}
		return errs.Wrap(errs.ErrorTypeUnknown, 0, fmt.Sprintf("yt-dlp failed: %s", lastLine(stderr.String())), err)
	}

	if err := json.Unmarshal(stdout.Bytes(), target); err != nil {
		return errs.Wrap(errs.ErrorTypeParsing, 0, "failed to parse yt-dlp output", err)
	}
	return nil
}

// lastLine returns the last non-empty line of yt-dlp's stderr, which holds
// the ERROR message.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return "no output"
}
