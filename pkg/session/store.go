package session

import (
	"errors"
	"io/fs"
	"sync"
	"time"

	"creatorjoy/pkg/logger"
	"creatorjoy/pkg/storage"
)

// DefaultValidityBuffer is how long before expiry a credential set stops
// being handed out.
const DefaultValidityBuffer = time.Hour

// naive ISO-8601 layouts without a zone, read as local time
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// sessionFile is the on-disk format.
type sessionFile struct {
	Cookie    map[string]string `json:"cookie"`
	ExpiresAt *string           `json:"expires_at"`
}

// Store holds the current credential set and persists it to a JSON file.
// It is the only writer of that file within a process.
type Store struct {
	path   string
	buffer time.Duration
	log    logger.Logger

	mu      sync.RWMutex
	current *Credentials
}

// NewStore creates a store backed by path. A non-positive buffer uses
// DefaultValidityBuffer.
func NewStore(path string, buffer time.Duration, log logger.Logger) *Store {
	if buffer <= 0 {
		buffer = DefaultValidityBuffer
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Store{
		path:   path,
		buffer: buffer,
		log:    log.WithField("component", "session_store"),
	}
}

// Path returns the session file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the session file into memory and returns a copy of it. A
// missing or malformed file yields nil and clears the in-memory state.
func (s *Store) Load() *Credentials {
	var f sessionFile
	err := storage.ReadJSON(s.path, &f)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.WithField("path", s.path).Debug("No session file found")
		} else {
			s.log.WithError(err).WithField("path", s.path).Warn("Ignoring unreadable session file")
		}
		s.current = nil
		return nil
	}
	if len(f.Cookie) == 0 {
		s.current = nil
		return nil
	}

	c := &Credentials{Cookies: f.Cookie}
	if f.ExpiresAt != nil {
		if t, ok := parseExpiry(*f.ExpiresAt); ok {
			c.ExpiresAt = t
		} else {
			s.log.WithField("expires_at", *f.ExpiresAt).Warn("Unparseable session expiry, session will be refreshed")
		}
	}

	s.current = c
	s.log.InfoWithFields("Loaded session", map[string]interface{}{
		"path":       s.path,
		"expires_at": c.ExpiresAt,
		"cookies":    c.CookieNames(),
	})
	return c.Clone()
}

func parseExpiry(v string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t, true
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Save replaces the in-memory credential set and overwrites the file.
func (s *Store) Save(c *Credentials) error {
	f := sessionFile{}
	if c != nil {
		f.Cookie = c.Cookies
		if !c.ExpiresAt.IsZero() {
			exp := c.ExpiresAt.Format(time.RFC3339)
			f.ExpiresAt = &exp
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := storage.WriteJSONAtomic(s.path, f, 0600); err != nil {
		return err
	}
	s.current = c.Clone()
	s.log.InfoWithFields("Saved session", map[string]interface{}{
		"path":       s.path,
		"expires_at": f.ExpiresAt,
	})
	return nil
}

func (s *Store) remember(c *Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = c.Clone()
}

// Current returns a copy of the in-memory credential set, or nil.
func (s *Store) Current() *Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// IsValid reports whether c has a session token and an expiry more than the
// validity buffer after now.
func (s *Store) IsValid(c *Credentials, now time.Time) bool {
	return IsValid(c, now, s.buffer)
}

// IsValid is Store.IsValid with an explicit buffer.
func IsValid(c *Credentials, now time.Time, buffer time.Duration) bool {
	if c == nil || c.SessionID() == "" || c.ExpiresAt.IsZero() {
		return false
	}
	return now.Before(c.ExpiresAt.Add(-buffer))
}
