package browser

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"creatorjoy/pkg/config"
	errs "creatorjoy/pkg/errors"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

const navigateTimeout = 30 * time.Second

// instagramOrigin scopes the cookie read.
const instagramOrigin = "https://www.instagram.com"

type rodDriver struct {
	browser *rod.Browser
	conn    io.Closer
	lnch    *launcher.Launcher
}

// NewRodDialer returns a DialFunc for cfg. A remote URL may be a DevTools
// websocket or an http endpoint that exposes /json/version; each dial gets a
// fresh incognito context there. Otherwise a local Chrome is launched.
func NewRodDialer(cfg config.BrowserConfig) DialFunc {
	return func(ctx context.Context) (Driver, error) {
		d := &rodDriver{}

		var wsURL string
		if cfg.RemoteURL != "" {
			if err := CheckRemoteURL(cfg.RemoteURL); err != nil {
				return nil, err
			}
			u, err := launcher.ResolveURL(cfg.RemoteURL)
			if err != nil {
				return nil, fmt.Errorf("browser: resolve %s: %w", cfg.RemoteURL, err)
			}
			wsURL = u
		} else {
			l := launcher.New().
				Headless(cfg.Headless).
				Set("disable-blink-features", "AutomationControlled")
			u, err := l.Launch()
			if err != nil {
				return nil, fmt.Errorf("browser: launch: %w", err)
			}
			wsURL = u
			d.lnch = l
		}

		// The websocket outlives ctx; Close releases it.
		ws := &cdp.WebSocket{}
		if err := ws.Connect(ctx, wsURL, nil); err != nil {
			d.cleanup()
			return nil, fmt.Errorf("browser: connect: %w", err)
		}
		d.conn = ws

		b := rod.New().Client(cdp.New().Start(ws))
		if err := b.Connect(); err != nil {
			d.cleanup()
			return nil, fmt.Errorf("browser: connect: %w", err)
		}

		if cfg.RemoteURL != "" {
			incognito, err := b.Incognito()
			if err != nil {
				d.cleanup()
				return nil, fmt.Errorf("browser: incognito context: %w", err)
			}
			b = incognito
		}
		d.browser = b
		return d, nil
	}
}

// CheckRemoteURL rejects WebDriver hub addresses, which rod cannot drive.
func CheckRemoteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errs.NewConfigurationError(fmt.Sprintf("invalid browser remote URL %q: %v", raw, err))
	}
	if strings.Contains(u.Path, "/wd/hub") || u.Port() == "4444" {
		return errs.NewConfigurationError(fmt.Sprintf(
			"browser remote URL %q looks like a WebDriver hub; expected a Chrome DevTools endpoint such as ws://host:9222/devtools/browser/<id> or http://host:9222",
			raw))
	}
	return nil
}

func (d *rodDriver) Open(ctx context.Context, target string) (Page, error) {
	page, err := stealth.Page(d.browser)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, navigateTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(target); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", target, err)
	}
	// A slow load is not fatal; the element waits below are bounded anyway.
	_ = page.Context(navCtx).WaitLoad()

	return &rodPage{page: page}, nil
}

// Close disposes the incognito context for remote browsers, kills a locally
// launched Chrome and drops the DevTools connection.
func (d *rodDriver) Close() error {
	var err error
	if d.browser != nil {
		err = d.browser.Close()
		d.browser = nil
	}
	d.cleanup()
	return err
}

func (d *rodDriver) cleanup() {
	if d.conn != nil {
		_ = d.conn.Close()
		d.conn = nil
	}
	if d.lnch != nil {
		d.lnch.Cleanup()
		d.lnch = nil
	}
}

type rodPage struct {
	page *rod.Page
}

func (p *rodPage) ClickFirst(ctx context.Context, pattern string, timeout time.Duration) bool {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	el, err := p.page.Context(wctx).ElementR("button", pattern)
	if err != nil {
		return false
	}
	return el.Click(proto.InputMouseButtonLeft, 1) == nil
}

func (p *rodPage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) bool {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	el, err := p.page.Context(wctx).Element(selector)
	if err != nil {
		return false
	}
	return el.WaitVisible() == nil
}

func (p *rodPage) Fill(ctx context.Context, selector, value string) error {
	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	el, err := p.page.Context(wctx).Element(selector)
	if err != nil {
		return fmt.Errorf("browser: find %s: %w", selector, err)
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("browser: input %s: %w", selector, err)
	}
	return nil
}

func (p *rodPage) Click(ctx context.Context, selector string) error {
	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	el, err := p.page.Context(wctx).Element(selector)
	if err != nil {
		return fmt.Errorf("browser: find %s: %w", selector, err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (p *rodPage) Cookies(ctx context.Context) (map[string]string, error) {
	cookies, err := p.page.Context(ctx).Cookies([]string{instagramOrigin})
	if err != nil {
		return nil, fmt.Errorf("browser: read cookies: %w", err)
	}
	jar := make(map[string]string, len(cookies))
	for _, c := range cookies {
		jar[c.Name] = c.Value
	}
	return jar, nil
}

func (p *rodPage) Close() error {
	return p.page.Close()
}
