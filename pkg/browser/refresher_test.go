package browser

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"creatorjoy/pkg/auth"
	"creatorjoy/pkg/config"
	errs "creatorjoy/pkg/errors"
	"creatorjoy/pkg/logger"
	"creatorjoy/pkg/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePage scripts the login page. After submit (or after loginAfter cookie
// reads when no form is submitted) the jar holds loginCookies.
type fakePage struct {
	mu sync.Mutex

	initial      map[string]string
	loginCookies map[string]string
	visible      map[string]bool
	consent      bool
	loginAfter   int

	cookieReads int
	submitted   bool
	filled      map[string]string
	closed      bool
}

func (p *fakePage) ClickFirst(ctx context.Context, pattern string, timeout time.Duration) bool {
	return p.consent
}

func (p *fakePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible[selector]
}

func (p *fakePage) Fill(ctx context.Context, selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.filled == nil {
		p.filled = make(map[string]string)
	}
	p.filled[selector] = value
	return nil
}

func (p *fakePage) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.submitted = selector == submitSelector
	return nil
}

func (p *fakePage) Cookies(ctx context.Context) (map[string]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cookieReads++
	if p.submitted || (p.loginAfter > 0 && p.cookieReads > p.loginAfter) {
		return p.loginCookies, nil
	}
	return p.initial, nil
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

type fakeDriver struct {
	page    *fakePage
	openErr error
	closed  bool
}

func (d *fakeDriver) Open(ctx context.Context, url string) (Page, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	return d.page, nil
}

func (d *fakeDriver) Close() error {
	d.closed = true
	return nil
}

type staticAccounts struct {
	account *auth.Account
}

func (s staticAccounts) RetrieveDefault() (*auth.Account, error) {
	if s.account == nil {
		return nil, auth.ErrCredentialsNotFound
	}
	return s.account, nil
}

var harvested = map[string]string{
	"sessionid":  "sid",
	"csrftoken":  "csrf",
	"ds_user_id": "42",
	"mid":        "m",
	"ig_did":     "d",
	"rur":        "dropped",
}

func newTestRefresher(t *testing.T, driver *fakeDriver, opts ...RefresherOption) (*Refresher, *session.Store) {
	t.Helper()
	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"), time.Hour, logger.NewNopLogger())
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	base := []RefresherOption{
		WithDialer(func(ctx context.Context) (Driver, error) { return driver, nil }),
		WithPollInterval(time.Millisecond),
		WithNow(func() time.Time { return now }),
	}
	r := NewRefresher(
		config.BrowserConfig{LoginWait: 200 * time.Millisecond},
		config.SessionConfig{},
		store,
		logger.NewTestLogger(),
		append(base, opts...)...,
	)
	return r, store
}

func TestRefreshSubmitsStoredAccount(t *testing.T) {
	page := &fakePage{
		initial:      map[string]string{"mid": "m"},
		loginCookies: harvested,
		visible:      map[string]bool{usernameSelector: true, homeIconSelector: true},
		consent:      true,
	}
	driver := &fakeDriver{page: page}
	r, store := newTestRefresher(t, driver, WithAccounts(staticAccounts{
		account: &auth.Account{Username: "bot", Password: "pw"},
	}))

	creds, err := r.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "bot", page.filled[usernameSelector])
	assert.Equal(t, "pw", page.filled[passwordSelector])
	assert.Equal(t, []string{"csrftoken", "ds_user_id", "ig_did", "mid", "sessionid"}, creds.CookieNames())
	assert.Equal(t, time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC), creds.ExpiresAt)
	assert.True(t, page.closed)
	assert.True(t, driver.closed)

	persisted := store.Load()
	require.NotNil(t, persisted)
	assert.Equal(t, "sid", persisted.SessionID())
	assert.NotContains(t, persisted.Cookies, "rur")
}

func TestRefreshAlreadyAuthenticated(t *testing.T) {
	page := &fakePage{initial: harvested}
	r, _ := newTestRefresher(t, &fakeDriver{page: page})

	creds, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sid", creds.SessionID())
	assert.Nil(t, page.filled)
}

func TestRefreshUsesFallbackSelector(t *testing.T) {
	page := &fakePage{
		initial:      map[string]string{},
		loginCookies: harvested,
		visible:      map[string]bool{usernameFallback: true},
		loginAfter:   2,
	}
	r, _ := newTestRefresher(t, &fakeDriver{page: page})

	creds, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sid", creds.SessionID())
	assert.False(t, page.submitted)
}

func TestRefreshFillsFallbackUsernameField(t *testing.T) {
	page := &fakePage{
		initial:      map[string]string{},
		loginCookies: harvested,
		visible:      map[string]bool{usernameFallback: true},
	}
	r, _ := newTestRefresher(t, &fakeDriver{page: page}, WithAccounts(staticAccounts{
		account: &auth.Account{Username: "bot", Password: "pw"},
	}))

	creds, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sid", creds.SessionID())
	assert.Equal(t, "bot", page.filled[usernameFallback])
	assert.NotContains(t, page.filled, usernameSelector)
	assert.Equal(t, "pw", page.filled[passwordSelector])
	assert.True(t, page.submitted)
}

func TestRefreshLoginFormMissing(t *testing.T) {
	page := &fakePage{initial: map[string]string{}}
	r, store := newTestRefresher(t, &fakeDriver{page: page})

	_, err := r.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeSession))
	assert.Contains(t, err.Error(), "login form not found")
	assert.True(t, page.closed)
	assert.Nil(t, store.Load())
}

func TestRefreshNoSessionCookieAfterWait(t *testing.T) {
	page := &fakePage{
		initial: map[string]string{"csrftoken": "c"},
		visible: map[string]bool{usernameSelector: true},
	}
	r, store := newTestRefresher(t, &fakeDriver{page: page})

	_, err := r.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeSession))
	assert.Nil(t, store.Load())
}

func TestRefreshNotConfigured(t *testing.T) {
	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"), 0, nil)
	r := NewRefresher(config.BrowserConfig{}, config.SessionConfig{}, store, nil)

	assert.False(t, r.Configured())
	_, err := r.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeConfiguration))
	assert.Contains(t, err.Error(), "SELENIUM_REMOTE_URL not configured")
}

func TestRefreshDialFailure(t *testing.T) {
	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"), 0, nil)
	r := NewRefresher(config.BrowserConfig{}, config.SessionConfig{}, store, nil,
		WithDialer(func(ctx context.Context) (Driver, error) { return nil, errors.New("connection refused") }))

	_, err := r.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRefreshCancelledDuringLoginWait(t *testing.T) {
	page := &fakePage{
		initial: map[string]string{},
		visible: map[string]bool{usernameSelector: true},
	}
	r, _ := newTestRefresher(t, &fakeDriver{page: page})
	r.loginWait = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Refresh(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRefresherSatisfiesSessionRefresher(t *testing.T) {
	var _ session.Refresher = (*Refresher)(nil)
}
