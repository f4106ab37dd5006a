package main

import (
	"encoding/json"
	"fmt"
	"os"

	"creatorjoy/pkg/models"
	"creatorjoy/pkg/storage"
	"creatorjoy/pkg/ui"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	crawlDays int
	crawlMax  int
	crawlSave bool
	crawlJSON bool
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Run a crawl from the terminal",
	Long: `Run a crawl without the HTTP API and print or archive the result.

Archived results are written as JSON under the output directory
(--output, default ./results).`,
}

var crawlInstagramCmd = &cobra.Command{
	Use:   "instagram <username>",
	Short: "Crawl recent reels of an Instagram account",
	Example: `  creatorjoy crawl instagram someone --days 30 --max 20
  creatorjoy crawl instagram someone --json > reels.json`,
	Args: cobra.ExactArgs(1),
	RunE: runCrawlInstagram,
}

var crawlYouTubeCmd = &cobra.Command{
	Use:   "youtube <handle>...",
	Short: "Crawl recent uploads of one or more YouTube channels",
	Example: `  creatorjoy crawl youtube somechannel --max 30 --days 90
  creatorjoy crawl youtube one two --workers 8 --save`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCrawlYouTube,
}

func init() {
	rootCmd.AddCommand(crawlCmd)
	crawlCmd.AddCommand(crawlInstagramCmd)
	crawlCmd.AddCommand(crawlYouTubeCmd)

	crawlCmd.PersistentFlags().IntVar(&crawlDays, "days", 0, "only keep items from the last N days (default from config)")
	crawlCmd.PersistentFlags().IntVar(&crawlMax, "max", -1, "maximum number of items (default from config)")
	crawlCmd.PersistentFlags().BoolVar(&crawlSave, "save", false, "archive the result as JSON under the output directory")
	crawlCmd.PersistentFlags().BoolVar(&crawlJSON, "json", false, "print the result as JSON")
	crawlCmd.PersistentFlags().StringP("output", "o", "", "output directory for archived results")
	crawlYouTubeCmd.Flags().Int("workers", 0, "enrichment workers per channel")
}

func daysOrDefault() int {
	if crawlDays > 0 {
		return crawlDays
	}
	return cfg.Crawl.DefaultDays
}

func maxOrDefault(def int) int {
	if crawlMax >= 0 {
		return crawlMax
	}
	return def
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func archive(platform, handle, runID string, v interface{}) error {
	if !crawlSave {
		return nil
	}
	store, err := storage.NewManager(cfg.Crawl.OutputDirectory)
	if err != nil {
		return err
	}
	path, err := store.SaveResult(platform, handle, runID, v)
	if err != nil {
		return fmt.Errorf("failed to archive result: %w", err)
	}
	printer.Info("Saved", path)
	return nil
}

// jsonMode keeps stdout clean for the JSON document.
func jsonMode() {
	if crawlJSON {
		printer = ui.NewPrinter(os.Stderr, noColor, quiet)
	}
}

func runCrawlInstagram(cmd *cobra.Command, args []string) error {
	jsonMode()
	a := newApp(cfg, log)
	days, maxReels := daysOrDefault(), maxOrDefault(cfg.Crawl.DefaultMaxReels)

	printer.Info("Target profile", args[0])
	result, err := a.reels.Scrape(cmd.Context(), args[0], days, maxReels)
	if err != nil {
		return err
	}

	if crawlJSON {
		if err := printJSON(result); err != nil {
			return err
		}
	} else {
		printReelResult(result)
	}
	return archive("instagram", result.TargetUsername, result.RunID, result)
}

func printReelResult(result *models.ReelResult) {
	if result.Count == 0 {
		printer.Warning(result.Message)
		return
	}
	printer.Success(fmt.Sprintf("%d reels from @%s", result.Count, result.TargetUsername))
	for _, r := range result.Reels {
		fmt.Printf("  %s  %10d views  %s\n", r.DatePosted, r.ViewCount, r.URL)
	}
	printer.Stats(result.Stats)
}

func runCrawlYouTube(cmd *cobra.Command, args []string) error {
	jsonMode()
	a := newApp(cfg, log)
	days, maxVideos := daysOrDefault(), maxOrDefault(cfg.Crawl.DefaultMaxVideos)

	if !a.extractor.Available() {
		return fmt.Errorf("yt-dlp executable %q not found", a.extractor.Path)
	}

	var failed int
	results := make([]interface{}, 0, len(args))
	for _, handle := range args {
		printer.Info("Channel", handle)
		result, err := a.channels.CrawlHandle(cmd.Context(), handle, maxVideos, days)
		if err != nil {
			failed++
			printer.Error("Failed to fetch channel data", err)
			results = append(results, models.ChannelError{Handle: handle, Error: err.Error()})
			continue
		}
		results = append(results, result)

		if !crawlJSON {
			printChannelResult(result)
		}
		if err := archive("youtube", handle, uuid.NewString(), result); err != nil {
			return err
		}
	}

	if crawlJSON {
		if err := printJSON(results); err != nil {
			return err
		}
	}
	if failed == len(args) {
		return fmt.Errorf("all %d channels failed", failed)
	}
	return nil
}

func printChannelResult(result *models.ChannelResult) {
	printer.Success(fmt.Sprintf("%d videos from %s (%d listed)", len(result.Videos), result.ChannelName, result.TotalVideosFetched))
	for _, v := range result.Videos {
		date := v.UploadDate
		if date == "" {
			date = "--------"
		}
		fmt.Printf("  %s  %10d views  %s\n", date, v.ViewCount, v.Title)
	}
	printer.Stats(result.Stats)
}
