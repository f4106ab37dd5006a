package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"creatorjoy/pkg/config"
	errs "creatorjoy/pkg/errors"
	"creatorjoy/pkg/logger"
	"creatorjoy/pkg/ratelimit"
	"creatorjoy/pkg/retry"
	"creatorjoy/pkg/session"
)

// Client represents an Instagram web API client
type Client struct {
	httpClient     *http.Client
	headers        map[string]string
	cookies        []*http.Cookie
	baseURL        string
	profileTimeout time.Duration
	feedTimeout    time.Duration
	pageSize       int
	limiter        ratelimit.Limiter
	retry          *retry.Config
	logger         logger.Logger
}

// NewClient creates a client without credentials. limiter and retryCfg may
// be nil.
func NewClient(cfg config.InstagramConfig, limiter ratelimit.Limiter, retryCfg *retry.Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseURL
	}

	return &Client{
		httpClient: &http.Client{},
		headers: map[string]string{
			"User-Agent":       cfg.UserAgent,
			"Accept":           "*/*",
			"Accept-Language":  "en-US,en;q=0.9",
			"Referer":          BaseURL + "/",
			"X-Requested-With": "XMLHttpRequest",
			"X-IG-App-ID":      cfg.AppID,
			"X-ASBD-ID":        cfg.ASBDID,
			"Sec-Fetch-Site":   "same-origin",
			"Sec-Fetch-Mode":   "cors",
			"Sec-Fetch-Dest":   "empty",
		},
		baseURL:        baseURL,
		profileTimeout: cfg.ProfileTimeout,
		feedTimeout:    cfg.FeedTimeout,
		pageSize:       cfg.PageSize,
		limiter:        limiter,
		retry:          retryCfg,
		logger:         log.WithField("component", "instagram_client"),
	}
}

// WithCredentials returns a copy of the client that sends the cookies of c
// and, when present, the csrftoken cookie as X-CSRFToken.
func (c *Client) WithCredentials(creds *session.Credentials) *Client {
	clone := *c
	clone.headers = make(map[string]string, len(c.headers)+1)
	for k, v := range c.headers {
		clone.headers[k] = v
	}
	clone.cookies = nil
	if creds != nil {
		for _, name := range creds.CookieNames() {
			clone.cookies = append(clone.cookies, &http.Cookie{Name: name, Value: creds.Cookies[name]})
		}
		if token := creds.CSRFToken(); token != "" {
			clone.headers["X-CSRFToken"] = token
		}
	}
	return &clone
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHTTPClient replaces the underlying transport client.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// doRequest performs one HTTP request with the configured headers and cookies
func (c *Client) doRequest(ctx context.Context, req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		if value != "" {
			req.Header.Set(key, value)
		}
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	waitStart := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if waited := time.Since(waitStart); waited > 100*time.Millisecond {
		logger.LogRateLimit(c.logger, req.URL.Path, waited)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"path":     req.URL.Path,
			"error":    err.Error(),
			"duration": duration,
		})
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.New(errs.ErrorTypeNetwork, 0, fmt.Sprintf("network error: %v", err))
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"path":     req.URL.Path,
		"status":   resp.StatusCode,
		"duration": duration,
	})
	return resp, nil
}

// GetJSON performs a GET bounded by timeout per attempt, retries transient
// failures and decodes the JSON body into target.
func (c *Client) GetJSON(ctx context.Context, url string, timeout time.Duration, target interface{}) error {
	return retry.Do(ctx, func(ctx context.Context) error {
		attemptCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return c.getJSONOnce(ctx, attemptCtx, url, target)
	}, c.retry)
}

// getJSONOnce runs a single attempt. Timeouts of attemptCtx surface as
// network errors so the caller's retry policy applies to them, while
// cancellation of parent is returned as is.
func (c *Client) getJSONOnce(parent, attemptCtx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeUnknown, 0, "failed to create request", err)
	}

	resp, err := c.doRequest(attemptCtx, req)
	if err != nil {
		if parent.Err() != nil {
			return parent.Err()
		}
		if attemptCtx.Err() != nil {
			return errs.New(errs.ErrorTypeNetwork, 0, "request timed out")
		}
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.New(errs.ErrorTypeNetwork, resp.StatusCode, fmt.Sprintf("failed to read response body: %v", err))
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"path":         req.URL.Path,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errs.Wrap(errs.ErrorTypeParsing, resp.StatusCode, "failed to parse JSON", err)
	}
	return nil
}

// checkResponseStatus maps HTTP status codes to typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	fields := map[string]interface{}{
		"status": resp.StatusCode,
		"path":   resp.Request.URL.Path,
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", fields)
		return errs.New(errs.ErrorTypeAuth, resp.StatusCode, "authentication required")
	case resp.StatusCode == http.StatusNotFound:
		c.logger.WarnWithFields("resource not found", fields)
		return errs.New(errs.ErrorTypeNotFound, resp.StatusCode, "resource not found")
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", fields)
		return errs.New(errs.ErrorTypeRateLimit, resp.StatusCode, "rate limit exceeded")
	case resp.StatusCode >= 500:
		c.logger.WarnWithFields("server error", fields)
		return errs.New(errs.ErrorTypeServerError, resp.StatusCode, "server error")
	case resp.StatusCode >= 400:
		c.logger.WarnWithFields("unexpected API error", fields)
		return errs.New(errs.ErrorTypeUnknown, resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	default:
		return nil
	}
}

// ResolveUserID maps a username to the numeric user id. Every failure is
// reported as a resolution error.
func (c *Client) ResolveUserID(ctx context.Context, username string) (string, error) {
	url := GetProfileURL(c.baseURL, username)

	var response ProfileResponse
	if err := c.GetJSON(ctx, url, c.profileTimeout, &response); err != nil {
		c.logger.WithError(err).WithField("username", username).Warn("Profile lookup failed")
		return "", errs.NewResolutionError(username, err)
	}
	if response.RequiresToLogin {
		return "", errs.NewResolutionError(username, errs.New(errs.ErrorTypeAuth, http.StatusUnauthorized, "profile requires login"))
	}

	userID := response.Data.User.UserID()
	if userID == "" {
		return "", errs.NewResolutionError(username, errs.New(errs.ErrorTypeNotFound, 0, "profile has no user id"))
	}

	c.logger.DebugWithFields("Resolved user id", map[string]interface{}{
		"username": username,
		"user_id":  userID,
	})
	return userID, nil
}

// FetchFeedPage fetches one feed page. An empty cursor starts at the newest
// post.
func (c *Client) FetchFeedPage(ctx context.Context, userID, cursor string) (*FeedPage, error) {
	url := GetFeedURL(c.baseURL, userID, cursor, c.pageSize)

	var page FeedPage
	if err := c.GetJSON(ctx, url, c.feedTimeout, &page); err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("Fetched feed page", map[string]interface{}{
		"user_id":        userID,
		"cursor":         cursor,
		"items":          len(page.Items),
		"more_available": page.MoreAvailable,
	})
	return &page, nil
}
