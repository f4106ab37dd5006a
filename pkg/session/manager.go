package session

import (
	"context"
	"sync"
	"time"

	errs "creatorjoy/pkg/errors"
	"creatorjoy/pkg/logger"

	"golang.org/x/sync/singleflight"
)

// Refresher mints a fresh credential set, typically by driving a browser
// through the login flow.
type Refresher interface {
	Refresh(ctx context.Context) (*Credentials, error)
}

// Manager hands out credential snapshots and coalesces refreshes so that
// concurrent callers trigger at most one browser run.
type Manager struct {
	store     *Store
	refresher Refresher
	timeout   time.Duration
	log       logger.Logger
	now       func() time.Time

	group singleflight.Group

	mu          sync.Mutex
	lastRefresh time.Time
	lastErr     error
}

// Status describes the current credential set without exposing values.
type Status struct {
	Valid             bool       `json:"session_valid"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	Cookies           []string   `json:"cookies,omitempty"`
	Path              string     `json:"path"`
	RefreshConfigured bool       `json:"refresh_configured"`
	LastRefresh       *time.Time `json:"last_refresh,omitempty"`
	LastError         string     `json:"last_error,omitempty"`
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithRefreshTimeout bounds a whole refresh run.
func WithRefreshTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) { m.timeout = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the manager logger.
func WithLogger(l logger.Logger) ManagerOption {
	return func(m *Manager) { m.log = l }
}

// NewManager creates a manager. refresher may be nil when no browser backend
// is configured; refreshes then fail with a configuration error.
func NewManager(store *Store, refresher Refresher, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:     store,
		refresher: refresher,
		timeout:   3 * time.Minute,
		log:       logger.NewNopLogger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.WithField("component", "session_manager")
	return m
}

// Store returns the backing store.
func (m *Manager) Store() *Store {
	return m.store
}

// snapshot returns the in-memory credentials, loading the file on first use.
func (m *Manager) snapshot() *Credentials {
	if c := m.store.Current(); c != nil {
		return c
	}
	return m.store.Load()
}

// Valid reports whether a usable credential set is available right now
// without refreshing.
func (m *Manager) Valid() bool {
	return m.store.IsValid(m.snapshot(), m.now())
}

// Credentials returns a valid credential snapshot, refreshing when the
// current one is absent or inside the validity buffer.
func (m *Manager) Credentials(ctx context.Context) (*Credentials, error) {
	if c := m.snapshot(); m.store.IsValid(c, m.now()) {
		return c, nil
	}

	m.log.Info("No valid session, refreshing")
	c, err := m.Refresh(ctx, "on_demand")
	if err != nil {
		return nil, errs.NewSessionError("could not obtain valid Instagram session", err)
	}
	return c, nil
}

// Refresh runs the refresher once for all concurrent callers. The run is
// detached from ctx so that one caller giving up does not abort the others;
// it is bounded by the refresh timeout instead.
func (m *Manager) Refresh(ctx context.Context, trigger string) (*Credentials, error) {
	if m.refresher == nil {
		err := errs.NewConfigurationError("browser automation backend not configured")
		m.recordRefresh(err)
		return nil, err
	}

	ch := m.group.DoChan("refresh", func() (interface{}, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
		defer cancel()

		c, err := m.refresher.Refresh(runCtx)
		if err == nil && c.SessionID() == "" {
			err = errs.NewSessionError("refresh returned no session cookie", nil)
		}
		m.recordRefresh(err)
		if err != nil {
			logger.LogSessionRefresh(m.log, trigger, time.Time{}, err)
			return nil, err
		}

		m.store.remember(c)

		logger.LogSessionRefresh(m.log, trigger, c.ExpiresAt, nil)
		return c, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Credentials).Clone(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Manager) recordRefresh(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRefresh = m.now()
	m.lastErr = err
}

// Status reports validity at now.
func (m *Manager) Status(now time.Time) Status {
	c := m.snapshot()
	st := Status{
		Valid:             m.store.IsValid(c, now),
		Path:              m.store.Path(),
		RefreshConfigured: m.refresher != nil,
		Cookies:           c.CookieNames(),
	}
	if c != nil && !c.ExpiresAt.IsZero() {
		exp := c.ExpiresAt
		st.ExpiresAt = &exp
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.lastRefresh.IsZero() {
		last := m.lastRefresh
		st.LastRefresh = &last
	}
	if m.lastErr != nil {
		st.LastError = m.lastErr.Error()
	}
	return st
}
