package main

import (
	"creatorjoy/pkg/auth"
	"creatorjoy/pkg/browser"
	"creatorjoy/pkg/config"
	"creatorjoy/pkg/instagram"
	"creatorjoy/pkg/logger"
	"creatorjoy/pkg/ratelimit"
	"creatorjoy/pkg/retry"
	"creatorjoy/pkg/scraper"
	"creatorjoy/pkg/session"
	"creatorjoy/pkg/youtube"
)

// app holds the wired components shared by the commands.
type app struct {
	store     *session.Store
	sessions  *session.Manager
	reels     *scraper.Service
	extractor *youtube.YTDLP
	channels  *youtube.Crawler
}

func newApp(cfg *config.Config, log logger.Logger) *app {
	store := session.NewStore(cfg.Session.File, cfg.Session.ValidityBuffer, log)

	var opts []browser.RefresherOption
	if accounts, err := auth.NewManager(""); err == nil {
		opts = append(opts, browser.WithAccounts(accounts))
	} else {
		log.WithError(err).Warn("Login account store unavailable, browser login will wait for manual entry")
	}

	var refresher session.Refresher
	if r := browser.NewRefresher(cfg.Browser, cfg.Session, store, log, opts...); r.Configured() {
		refresher = r
	}

	sessions := session.NewManager(store, refresher,
		session.WithRefreshTimeout(cfg.Session.RefreshTimeout),
		session.WithLogger(log),
	)

	client := instagram.NewClient(cfg.Instagram, ratelimit.FromConfig(cfg.RateLimit), retry.FromConfig(cfg.Retry, log), log)
	extractor := youtube.NewYTDLP(cfg.YouTube)

	return &app{
		store:     store,
		sessions:  sessions,
		reels:     scraper.NewService(sessions, client, cfg.Instagram, log),
		extractor: extractor,
		channels:  youtube.NewCrawler(extractor, cfg.YouTube.MaxWorkers, log),
	}
}
