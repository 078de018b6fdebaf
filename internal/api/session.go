package api

import (
	"context"
	"net/http"

	"agencydesk/internal/auth"
	"agencydesk/internal/logging"
)

// LoginResult is the decoded login payload.
type LoginResult struct {
	Token string        `json:"token"`
	Admin *auth.Profile `json:"admin"`
}

// Login authenticates and persists the token and admin profile. A 401
// here never triggers refresh; the client propagates the server error
// after clearing any stale credentials.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	env, err := c.SendJSON(ctx, http.MethodPost, LoginPath, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var result LoginResult
	if err := env.Decode(&result); err != nil {
		return nil, err
	}

	if err := c.auth.SetToken(result.Token); err != nil {
		return nil, err
	}
	if result.Admin != nil {
		if err := c.auth.SetProfile(result.Admin); err != nil {
			return nil, err
		}
	}

	logging.Auth("logged in as %s", email)
	c.auth.Sessions().Publish(auth.Event{Type: auth.EventLogin, Email: email})
	return &result, nil
}

// Logout tells the server to drop the refresh session (best effort) and
// always clears local credentials.
func (c *Client) Logout(ctx context.Context) error {
	email := ""
	if p := c.auth.Profile(); p != nil {
		email = p.Email
	}

	if _, err := c.SendJSON(ctx, http.MethodPost, LogoutPath, nil); err != nil {
		logging.AuthWarn("server logout failed: %v", err)
	}

	if err := c.auth.Clear(); err != nil {
		return err
	}
	c.auth.Sessions().Publish(auth.Event{Type: auth.EventLogout, Email: email})
	return nil
}
