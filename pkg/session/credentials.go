package session

import (
	"sort"
	"time"
)

// PrimaryCookie is the cookie without which a credential set is unusable.
const PrimaryCookie = "sessionid"

// AllowedCookies are the cookie names harvested after a browser login.
var AllowedCookies = []string{"sessionid", "csrftoken", "ds_user_id", "mid", "ig_did"}

// Credentials is one logged-in Instagram session. Values handed out by Store
// and Manager are copies; callers may read them freely.
type Credentials struct {
	Cookies   map[string]string
	ExpiresAt time.Time
}

// NewCredentials keeps only the allow-listed cookies from jar.
func NewCredentials(jar map[string]string, expiresAt time.Time) *Credentials {
	cookies := make(map[string]string, len(AllowedCookies))
	for _, name := range AllowedCookies {
		if v, ok := jar[name]; ok && v != "" {
			cookies[name] = v
		}
	}
	return &Credentials{Cookies: cookies, ExpiresAt: expiresAt}
}

// SessionID returns the primary session token, or "".
func (c *Credentials) SessionID() string {
	if c == nil {
		return ""
	}
	return c.Cookies[PrimaryCookie]
}

// CSRFToken returns the csrftoken cookie, or "".
func (c *Credentials) CSRFToken() string {
	if c == nil {
		return ""
	}
	return c.Cookies["csrftoken"]
}

// Clone returns a deep copy.
func (c *Credentials) Clone() *Credentials {
	if c == nil {
		return nil
	}
	cookies := make(map[string]string, len(c.Cookies))
	for k, v := range c.Cookies {
		cookies[k] = v
	}
	return &Credentials{Cookies: cookies, ExpiresAt: c.ExpiresAt}
}

// CookieNames returns the sorted cookie names, never the values.
func (c *Credentials) CookieNames() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.Cookies))
	for k := range c.Cookies {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
