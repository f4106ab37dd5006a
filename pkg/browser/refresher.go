package browser

import (
	"context"
	"fmt"
	"time"

	"creatorjoy/pkg/auth"
	"creatorjoy/pkg/config"
	errs "creatorjoy/pkg/errors"
	"creatorjoy/pkg/logger"
	"creatorjoy/pkg/session"
)

// DefaultLoginURL is the Instagram web login form.
const DefaultLoginURL = "https://www.instagram.com/accounts/login/"

// Login form selectors and waits.
const (
	consentPattern   = `(?i)(allow all|accept all|allow essential|only allow essential)`
	usernameSelector = `input[name="username"]`
	usernameFallback = `input[aria-label*="username" i], input[type="text"]`
	passwordSelector = `input[name="password"]`
	submitSelector   = `button[type="submit"]`
	homeIconSelector = `svg[aria-label="Home"]`

	consentWait  = 5 * time.Second
	usernameWait = 20 * time.Second
	fallbackWait = 5 * time.Second
	homeIconWait = 10 * time.Second

	defaultLoginWait = 60 * time.Second
	defaultLifetime  = 30 * 24 * time.Hour
	pollInterval     = time.Second
)

// AccountSource supplies the automation login, when one is stored.
type AccountSource interface {
	RetrieveDefault() (*auth.Account, error)
}

// Refresher implements session.Refresher by logging in through a browser.
type Refresher struct {
	dial     DialFunc
	store    *session.Store
	accounts AccountSource
	log      logger.Logger

	loginURL  string
	loginWait time.Duration
	lifetime  time.Duration
	poll      time.Duration
	now       func() time.Time
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithAccounts sets where the login username and password come from.
// Without it, the flow waits for the login to be completed by hand.
func WithAccounts(a AccountSource) RefresherOption {
	return func(r *Refresher) { r.accounts = a }
}

// WithDialer replaces the browser backend.
func WithDialer(d DialFunc) RefresherOption {
	return func(r *Refresher) { r.dial = d }
}

// WithPollInterval sets how often the cookie jar is checked during login.
func WithPollInterval(d time.Duration) RefresherOption {
	return func(r *Refresher) { r.poll = d }
}

// WithNow replaces time.Now.
func WithNow(now func() time.Time) RefresherOption {
	return func(r *Refresher) { r.now = now }
}

// NewRefresher builds a refresher that persists what it harvests to store.
// When cfg names no backend the refresher has no dialer and every Refresh
// returns a configuration error.
func NewRefresher(cfg config.BrowserConfig, sessionCfg config.SessionConfig, store *session.Store, log logger.Logger, opts ...RefresherOption) *Refresher {
	if log == nil {
		log = logger.NewNopLogger()
	}
	r := &Refresher{
		store:     store,
		log:       log.WithField("component", "session_refresher"),
		loginURL:  cfg.LoginURL,
		loginWait: cfg.LoginWait,
		lifetime:  sessionCfg.Lifetime,
		poll:      pollInterval,
		now:       time.Now,
	}
	if cfg.Configured() {
		r.dial = NewRodDialer(cfg)
	}
	if r.loginURL == "" {
		r.loginURL = DefaultLoginURL
	}
	if r.loginWait <= 0 {
		r.loginWait = defaultLoginWait
	}
	if r.lifetime <= 0 {
		r.lifetime = defaultLifetime
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Configured reports whether a browser backend is available.
func (r *Refresher) Configured() bool {
	return r.dial != nil
}

// Refresh runs the login flow once and saves the harvested credentials.
func (r *Refresher) Refresh(ctx context.Context) (*session.Credentials, error) {
	if r.dial == nil {
		return nil, errs.NewConfigurationError("browser automation backend not configured (SELENIUM_REMOTE_URL not configured)")
	}

	start := r.now()
	driver, err := r.dial(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, 0, "failed to connect to browser", err)
	}
	defer driver.Close()

	page, err := driver.Open(ctx, r.loginURL)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, 0, "failed to open login page", err)
	}
	defer page.Close()

	if page.ClickFirst(ctx, consentPattern, consentWait) {
		r.log.Debug("Dismissed cookie consent dialog")
	}

	jar, err := page.Cookies(ctx)
	if err != nil {
		return nil, errs.NewSessionError("failed to read cookies", err)
	}

	if jar[session.PrimaryCookie] == "" {
		jar, err = r.login(ctx, page)
		if err != nil {
			return nil, err
		}
	} else {
		r.log.Info("Browser already authenticated")
	}

	creds := session.NewCredentials(jar, r.now().Add(r.lifetime))
	if creds.SessionID() == "" {
		return nil, errs.NewSessionError("login did not produce a sessionid cookie", nil)
	}

	if err := r.store.Save(creds); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	r.log.InfoWithFields("Harvested session cookies", map[string]interface{}{
		"cookies":     creds.CookieNames(),
		"expires_at":  creds.ExpiresAt,
		"duration_ms": r.now().Sub(start).Milliseconds(),
	})
	return creds, nil
}

func (r *Refresher) login(ctx context.Context, page Page) (map[string]string, error) {
	usernameField := usernameSelector
	if !page.WaitVisible(ctx, usernameSelector, usernameWait) {
		if !page.WaitVisible(ctx, usernameFallback, fallbackWait) {
			return nil, errs.NewSessionError("login form not found", nil)
		}
		usernameField = usernameFallback
	}

	if account := r.account(); account != nil {
		r.log.WithField("username", account.Username).Info("Submitting login form")
		if err := page.Fill(ctx, usernameField, account.Username); err != nil {
			return nil, errs.NewSessionError("failed to fill username", err)
		}
		if err := page.Fill(ctx, passwordSelector, account.Password); err != nil {
			return nil, errs.NewSessionError("failed to fill password", err)
		}
		if err := page.Click(ctx, submitSelector); err != nil {
			return nil, errs.NewSessionError("failed to submit login form", err)
		}
	} else {
		r.log.WithField("wait", r.loginWait).Warn("No login account stored, waiting for manual login")
	}

	jar, err := r.waitForSession(ctx, page)
	if err != nil {
		return nil, err
	}

	if page.WaitVisible(ctx, homeIconSelector, homeIconWait) {
		r.log.Debug("Home feed visible")
	} else {
		r.log.Debug("Home icon not seen after login")
	}
	return jar, nil
}

// waitForSession polls the cookie jar until sessionid appears or the login
// wait elapses. The last jar read is returned either way.
func (r *Refresher) waitForSession(ctx context.Context, page Page) (map[string]string, error) {
	deadline := time.NewTimer(r.loginWait)
	defer deadline.Stop()
	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	var jar map[string]string
	for {
		current, err := page.Cookies(ctx)
		if err == nil {
			jar = current
			if jar[session.PrimaryCookie] != "" {
				return jar, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, errs.NewSessionError("login cancelled", ctx.Err())
		case <-deadline.C:
			r.log.WithField("wait", r.loginWait).Warn("Timed out waiting for sessionid cookie")
			return jar, nil
		case <-ticker.C:
		}
	}
}

func (r *Refresher) account() *auth.Account {
	if r.accounts == nil {
		return nil
	}
	account, err := r.accounts.RetrieveDefault()
	if err != nil || account == nil || account.Username == "" || account.Password == "" {
		return nil
	}
	return account
}
