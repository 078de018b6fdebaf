package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"agencydesk/internal/auth"
	"agencydesk/internal/logging"
)

// Auth endpoint paths. Requests to these never trigger the
// refresh-and-retry flow.
const (
	LoginPath   = "/auth/login"
	RefreshPath = "/auth/refresh-token"
	LogoutPath  = "/auth/logout"
)

// Client talks to the agency API. All entity services share one
// instance so the refresh flow and cookie jar are shared too.
type Client struct {
	baseURL string
	httpc   *http.Client
	auth    *auth.Manager

	// One in-flight refresh shared by every 401 waiter. The web
	// dashboard let concurrent 401s race independent refreshes; here
	// they all wait on the same call.
	refresh singleflight.Group
}

// New creates a client. The cookie jar carries the refresh cookie the
// server sets at login.
func New(baseURL string, timeout time.Duration, mgr *auth.Manager) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout, Jar: jar},
		auth:    mgr,
	}
}

// Auth exposes the credential manager (the UI reads session state
// through it).
func (c *Client) Auth() *auth.Manager { return c.auth }

// Get performs a GET and decodes the envelope.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Envelope, error) {
	return c.doEnvelope(ctx, http.MethodGet, path, query, nil, "")
}

// SendJSON performs a JSON-bodied request and decodes the envelope.
func (c *Client) SendJSON(ctx context.Context, method, path string, body interface{}) (*Envelope, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}
	return c.doEnvelope(ctx, method, path, nil, payload, "application/json")
}

// SendMultipart performs a multipart/form-data request and decodes the
// envelope.
func (c *Client) SendMultipart(ctx context.Context, method, path string, form *Form) (*Envelope, error) {
	body, contentType, err := form.Encode()
	if err != nil {
		return nil, err
	}
	return c.doEnvelope(ctx, method, path, nil, body, contentType)
}

// Download holds a binary response, typically a spreadsheet export.
type Download struct {
	Body        []byte
	Filename    string // from content-disposition, may be empty
	ContentType string
}

// GetBinary performs a GET expected to return a raw file rather than an
// envelope.
func (c *Client) GetBinary(ctx context.Context, path string, query url.Values) (*Download, error) {
	resp, err := c.roundTrip(ctx, http.MethodGet, path, query, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.errorFromResponse(resp)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read download body: %w", err)
	}
	return &Download{
		Body:        body,
		Filename:    filenameFromDisposition(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

func (c *Client) doEnvelope(ctx context.Context, method, path string, query url.Values, body []byte, contentType string) (*Envelope, error) {
	resp, err := c.roundTrip(ctx, method, path, query, body, contentType)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.errorFromResponse(resp)
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode response envelope: %w", err)
	}
	return &env, nil
}

// roundTrip executes one request with bearer auth. On a 401 for a
// non-auth path it refreshes the token once (shared across concurrent
// failures) and replays the original request with the new token; a
// second 401 is final. Login 401s clear credentials and propagate.
func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body []byte, contentType string) (*http.Response, error) {
	reqID := uuid.NewString()[:8]

	resp, err := c.execute(ctx, method, path, query, body, contentType, "")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	if isAuthPath(path) {
		// Login failure must not trigger refresh; it invalidates the
		// session outright.
		if path == LoginPath {
			logging.AuthWarn("[%s] login rejected, clearing credentials", reqID)
			_ = c.auth.Clear()
		}
		return resp, nil
	}

	resp.Body.Close()
	logging.API("[%s] 401 on %s %s, attempting refresh", reqID, method, path)

	token, err := c.sharedRefresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("session refresh failed: %w", err)
	}

	// One replay only. If the server still says 401 the caller gets it
	// as a final failure.
	retried, err := c.execute(ctx, method, path, query, body, contentType, token)
	if err != nil {
		return nil, err
	}
	if retried.StatusCode == http.StatusUnauthorized {
		logging.APIWarn("[%s] retry after refresh still unauthorized", reqID)
	}
	return retried, nil
}

func (c *Client) execute(ctx context.Context, method, path string, query url.Values, body []byte, contentType, overrideToken string) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	token := overrideToken
	if token == "" {
		token, _ = c.auth.Token() // no token is fine for login itself
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// sharedRefresh collapses concurrent refresh attempts into one call.
// On failure it clears credentials and broadcasts session expiry.
func (c *Client) sharedRefresh(ctx context.Context) (string, error) {
	v, err, _ := c.refresh.Do("refresh", func() (interface{}, error) {
		token, err := c.refreshOnce(ctx)
		if err != nil {
			_ = c.auth.Clear()
			c.auth.Sessions().Publish(auth.Event{Type: auth.EventExpired})
			return "", err
		}
		if err := c.auth.SetToken(token); err != nil {
			return "", err
		}
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) refreshOnce(ctx context.Context) (string, error) {
	resp, err := c.execute(ctx, http.MethodPost, RefreshPath, nil, nil, "", "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("refresh rejected: %w", c.errorFromResponse(resp))
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", fmt.Errorf("failed to decode refresh response: %w", err)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := env.Decode(&data); err != nil {
		return "", err
	}
	if data.Token == "" {
		return "", fmt.Errorf("refresh response carried no token")
	}
	logging.Auth("token refreshed")
	return data.Token, nil
}

// errorFromResponse unwraps the server's error envelope, or falls back
// to the raw status. The body is consumed but not closed.
func (c *Client) errorFromResponse(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}
	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err == nil && env.Message != "" {
		apiErr.Message = env.Message
	}
	return apiErr
}

func isAuthPath(path string) bool {
	return path == LoginPath || path == RefreshPath
}
