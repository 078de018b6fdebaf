// Package auth owns persisted client credentials: the access token and
// the last-known admin profile, stored as JSON under fixed names in the
// state dir. Every mutation goes through Manager so all consumers
// observe the same session state.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"agencydesk/internal/logging"
)

// ErrNoSession indicates no persisted access token.
var ErrNoSession = errors.New("auth: no active session")

// Credentials holds the persisted access token.
type Credentials struct {
	AccessToken string    `json:"access_token"`
	SavedAt     time.Time `json:"saved_at"`
}

// Profile is the last-known admin profile returned at login.
type Profile struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Manager loads, persists and clears credentials. Safe for concurrent
// use; the HTTP client reads the token on every request while refresh
// writes it.
type Manager struct {
	credPath    string
	profilePath string
	sessions    *Sessions

	mu      sync.Mutex
	creds   *Credentials
	profile *Profile
}

// NewManager creates a manager rooted at the given fixed paths and
// loads any existing state from disk.
func NewManager(credPath, profilePath string, sessions *Sessions) *Manager {
	m := &Manager{
		credPath:    credPath,
		profilePath: profilePath,
		sessions:    sessions,
	}
	_ = m.load()
	return m
}

func (m *Manager) load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if data, err := os.ReadFile(m.credPath); err == nil {
		var c Credentials
		if err := json.Unmarshal(data, &c); err == nil && c.AccessToken != "" {
			m.creds = &c
		}
	}
	if data, err := os.ReadFile(m.profilePath); err == nil {
		var p Profile
		if err := json.Unmarshal(data, &p); err == nil {
			m.profile = &p
		}
	}
	return nil
}

// Token returns the current access token, or ErrNoSession.
func (m *Manager) Token() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil || m.creds.AccessToken == "" {
		return "", ErrNoSession
	}
	return m.creds.AccessToken, nil
}

// HasSession reports whether a token is persisted.
func (m *Manager) HasSession() bool {
	_, err := m.Token()
	return err == nil
}

// SetToken persists a new access token.
func (m *Manager) SetToken(token string) error {
	m.mu.Lock()
	m.creds = &Credentials{AccessToken: token, SavedAt: time.Now()}
	data, err := json.MarshalIndent(m.creds, "", "  ")
	m.mu.Unlock()
	if err != nil {
		return err
	}
	if err := writeStateFile(m.credPath, data); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}
	logging.Auth("access token updated")
	return nil
}

// Profile returns the last-known admin profile, if any.
func (m *Manager) Profile() *Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profile
}

// SetProfile persists the admin profile alongside the token.
func (m *Manager) SetProfile(p *Profile) error {
	m.mu.Lock()
	m.profile = p
	m.mu.Unlock()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := writeStateFile(m.profilePath, data); err != nil {
		return fmt.Errorf("failed to persist profile: %w", err)
	}
	return nil
}

// Clear wipes all persisted credentials. Used on logout and on
// unrecoverable auth failure.
func (m *Manager) Clear() error {
	m.mu.Lock()
	email := ""
	if m.profile != nil {
		email = m.profile.Email
	}
	m.creds = nil
	m.profile = nil
	m.mu.Unlock()

	var errs []error
	for _, p := range []string{m.credPath, m.profilePath} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	logging.Auth("credentials cleared (%s)", email)
	return errors.Join(errs...)
}

// TokenExpiry decodes the access token's exp claim without verifying
// the signature (the server owns verification; this only feeds the
// proactive-refresh hint). Returns false when the token is opaque.
func (m *Manager) TokenExpiry() (time.Time, bool) {
	token, err := m.Token()
	if err != nil {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// ExpiresWithin reports whether the token expires inside the window.
// Opaque tokens report false; the 401-driven refresh still covers them.
func (m *Manager) ExpiresWithin(window time.Duration) bool {
	exp, ok := m.TokenExpiry()
	if !ok {
		return false
	}
	return time.Now().Add(window).After(exp)
}

// Sessions returns the broadcaster wired at construction.
func (m *Manager) Sessions() *Sessions {
	return m.sessions
}

func writeStateFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
