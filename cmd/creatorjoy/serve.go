package main

import (
	"os"
	"os/signal"
	"syscall"

	"creatorjoy/pkg/browser"
	"creatorjoy/pkg/server"
	"creatorjoy/pkg/session"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API.

Routes:
  GET  /health
  GET  /instagram/health
  GET  /instagram/session
  POST /instagram/refresh-session
  POST /instagram/scrape
  GET  /youtube/health
  POST /youtube/scrape

SELENIUM_REMOTE_URL (or browser.remote_url) must point at a Chrome DevTools
endpoint (ws://host:9222/devtools/browser/<id> or http://host:9222), not a
WebDriver hub such as http://host:4444/wd/hub.

With --keeper the Instagram session is refreshed on a schedule whenever it is
missing or about to expire.`,
	Example: `  # Listen on the default port with a remote browser for session refresh
  SELENIUM_REMOTE_URL=ws://chrome:9222 creatorjoy serve

  # Custom port with the session keeper
  creatorjoy serve --port 8080 --keeper`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "", "listen host")
	serveCmd.Flags().Int("port", 0, "listen port")
	serveCmd.Flags().Bool("keeper", false, "refresh the session on the keeper schedule")
	serveCmd.Flags().Int("workers", 0, "YouTube enrichment workers per channel")
}

func runServe(cmd *cobra.Command, args []string) error {
	printer.Banner()

	a := newApp(cfg, log)
	if !a.sessions.Valid() {
		log.Warn("No valid Instagram session on disk, the first scrape will trigger a refresh")
	}
	if !a.extractor.Available() {
		log.WithField("path", a.extractor.Path).Warn("yt-dlp executable not found, YouTube scrapes will fail")
	}
	if cfg.Browser.RemoteURL != "" {
		if err := browser.CheckRemoteURL(cfg.Browser.RemoteURL); err != nil {
			log.WithError(err).Error("Browser remote URL is not a DevTools endpoint, session refresh will fail")
		}
	}

	var keeper *session.Keeper
	if cfg.Session.KeeperEnabled {
		k, err := session.NewKeeper(a.sessions, cfg.Session.KeeperSchedule, log)
		if err != nil {
			return err
		}
		keeper = k
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	srv := server.New(cfg, a.sessions, a.reels, a.channels, log)
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})

	if keeper != nil {
		g.Go(func() error {
			return keeper.Run(gctx)
		})
	}

	return g.Wait()
}
