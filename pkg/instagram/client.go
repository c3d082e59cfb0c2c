package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"dankrank/pkg/config"
	errs "dankrank/pkg/errors"
	"dankrank/pkg/logger"
)

const (
	cookieSessionID = "sessionid"
	cookieCSRFToken = "csrftoken"
)

// Response is the status and body of a completed request
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// Client is an HTTP client bound to one feed session
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	baseURL    string
	logger     logger.Logger

	mu       sync.RWMutex
	headers  map[string]string
	cookies  map[string]string
	loggedIn bool
}

// NewClient creates a session client from the session configuration.
// A configured session id and CSRF token are installed as cookies.
func NewClient(session config.SessionConfig, timeout time.Duration, log logger.Logger) *Client {
	base := session.BaseURL
	if base == "" {
		base = BaseURL
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
		baseURL:    strings.TrimRight(base, "/"),
		logger:     logger.OrDefault(log).WithField("component", "session"),
		headers: map[string]string{
			"Accept":          "text/html,application/json,image/avif,image/webp,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
			"Referer":         base + "/",
		},
		cookies: make(map[string]string),
	}

	if session.UserAgent != "" {
		c.headers["User-Agent"] = session.UserAgent
	}
	if session.SessionID != "" {
		c.cookies[cookieSessionID] = session.SessionID
	}
	if session.CSRFToken != "" {
		c.SetCSRFToken(session.CSRFToken)
	}

	return c
}

// BaseURL returns the feed host this client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetHTTPClient replaces the transport used for session requests
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// SetHeader sets a header sent with every session request
func (c *Client) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers[key] = value
}

// Header returns the value of a session header
func (c *Client) Header(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headers[key]
}

// SetCookie sets a session cookie
func (c *Client) SetCookie(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cookies[name] = value
}

// Cookie returns the value of a session cookie
func (c *Client) Cookie(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cookies[name]
}

// SetCSRFToken stores the token both as cookie and as request header
func (c *Client) SetCSRFToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cookies[cookieCSRFToken] = token
	c.headers["X-CSRFToken"] = token
}

// HasSession reports whether a session cookie is present
func (c *Client) HasSession() bool {
	return c.Cookie(cookieSessionID) != ""
}

func (c *Client) prepare(req *http.Request) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for name, value := range c.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
}

// absorb keeps cookies set by the server
func (c *Client) absorb(resp *http.Response) {
	for _, ck := range resp.Cookies() {
		if ck.Value == "" {
			continue
		}
		if ck.Name == cookieCSRFToken {
			c.SetCSRFToken(ck.Value)
			continue
		}
		c.SetCookie(ck.Name, ck.Value)
	}
}

// do sends req with hc and reads the whole body. Transport failures come
// back as network errors so they can be retried.
func (c *Client) do(hc *http.Client, req *http.Request) (*Response, error) {
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		logger.LogRequest(c.logger, req.Method, req.URL.String(), 0, time.Since(start))
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errs.Wrap(err, errs.ErrorTypeNetwork, 0, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeNetwork, resp.StatusCode, "failed to read response body")
	}
	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, time.Since(start))

	return &Response{StatusCode: resp.StatusCode, Body: body, Header: resp.Header}, nil
}

// Get performs an authenticated GET and returns whatever the server answered
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeUnknown, 0, "failed to create request")
	}
	c.prepare(req)

	resp, err := c.do(c.httpClient, req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetJSON performs an authenticated GET and decodes a 200 JSON body into target
func (c *Client) GetJSON(ctx context.Context, rawURL string, target interface{}) (int, error) {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	if err := checkResponseStatus(resp.StatusCode); err != nil {
		return resp.StatusCode, err
	}
	if err := json.Unmarshal(resp.Body, target); err != nil {
		preview := string(resp.Body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          rawURL,
			"body_preview": preview,
			"error":        err.Error(),
		})
		return resp.StatusCode, errs.Wrap(err, errs.ErrorTypeParsing, resp.StatusCode, "failed to parse JSON")
	}
	return resp.StatusCode, nil
}

// Download fetches binary content with the session
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if err := checkResponseStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// DownloadUnauthenticated fetches binary content with a fresh client and no
// session headers or cookies.
func (c *Client) DownloadUnauthenticated(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeUnknown, 0, "failed to create request")
	}
	if ua := c.Header("User-Agent"); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	fresh := &http.Client{Timeout: c.timeout, Transport: c.httpClient.Transport}
	resp, err := c.do(fresh, req)
	if err != nil {
		return nil, err
	}
	if err := checkResponseStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Login authenticates the session with a username and password. The
// landing page is fetched first to obtain a CSRF token.
func (c *Client) Login(ctx context.Context, username, password string) error {
	landing, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return errs.Wrap(err, errs.ErrorTypeUnknown, 0, "failed to create request")
	}
	c.prepare(landing)
	if err := c.send(landing); err != nil {
		return err
	}
	if c.Cookie(cookieCSRFToken) == "" {
		return errs.New(errs.ErrorTypeAuth, 0, "no CSRF token issued")
	}

	form := url.Values{"username": {username}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, LoginURL(c.baseURL), strings.NewReader(form.Encode()))
	if err != nil {
		return errs.Wrap(err, errs.ErrorTypeUnknown, 0, "failed to create request")
	}
	c.prepare(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.Wrap(err, errs.ErrorTypeNetwork, 0, "login request failed")
	}
	defer httpResp.Body.Close()
	c.absorb(httpResp)

	var lr loginResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&lr); err != nil || httpResp.StatusCode != http.StatusOK || !lr.Authenticated {
		c.logger.WarnWithFields("login failed", map[string]interface{}{
			"username": username,
			"status":   httpResp.StatusCode,
		})
		return errs.New(errs.ErrorTypeAuth, httpResp.StatusCode, "login failed for %s", username)
	}

	c.mu.Lock()
	c.loggedIn = true
	c.mu.Unlock()

	c.logger.InfoWithFields("logged in", map[string]interface{}{"username": username})
	return nil
}

// Logout ends a session started by Login. Failures are logged, not returned.
func (c *Client) Logout(ctx context.Context) {
	c.mu.RLock()
	loggedIn := c.loggedIn
	c.mu.RUnlock()
	if !loggedIn {
		return
	}

	form := url.Values{"csrfmiddlewaretoken": {c.Cookie(cookieCSRFToken)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, LogoutURL(c.baseURL), strings.NewReader(form.Encode()))
	if err == nil {
		c.prepare(req)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		err = c.send(req)
	}
	if err != nil {
		c.logger.WithError(err).Warn("failed to log out")
		return
	}

	c.mu.Lock()
	c.loggedIn = false
	c.mu.Unlock()
}

// send performs req and keeps any cookies from the response
func (c *Client) send(req *http.Request) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.Wrap(err, errs.ErrorTypeNetwork, 0, fmt.Sprintf("%s %s failed", req.Method, req.URL.Path))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	c.absorb(resp)
	return nil
}

// checkResponseStatus maps an HTTP status onto a typed error
func checkResponseStatus(status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errs.New(errs.ErrorTypeAuth, status, "authentication required")
	case status == http.StatusNotFound:
		return errs.New(errs.ErrorTypeNotFound, status, "resource not found")
	case status == http.StatusTooManyRequests:
		return errs.New(errs.ErrorTypeRateLimit, status, "rate limit exceeded")
	case status >= 500:
		return errs.New(errs.ErrorTypeServerError, status, "server error")
	case status >= 300:
		return errs.New(errs.ErrorTypeUnknown, status, "unexpected status code: %d", status)
	default:
		return nil
	}
}
