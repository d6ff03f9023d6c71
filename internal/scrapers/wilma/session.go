package wilma

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

const (
	cookieLoginID   = "Wilma2LoginID"
	cookieSessionID = "Wilma2SID"
)

var sessionIdRegex = regexp.MustCompile(`^[0-9a-f]{32}$`)

// Session is the state of a single signed in user. It is owned by the
// caller and is not safe for concurrent mutation, a Client can serve any
// number of sessions at once.
type Session struct {
	baseUrl string

	// SessionID is the Wilma2SID cookie, empty until authenticated.
	SessionID string
	// StudentID is the #formid value of the home page, empty until the
	// identity is resolved.
	StudentID   string
	Username    string
	DisplayName string
	SchoolName  string
}

func parseBaseUrl(baseUrl string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseUrl))
	if err != nil {
		return "", fmt.Errorf("wilma: parse base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("wilma: base url %q must be http or https", baseUrl)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("wilma: base url %q has no host", baseUrl)
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return strings.TrimRight(parsed.String(), "/"), nil
}

// NewSession creates an unauthenticated session for the portal at baseUrl
// (ex. https://school.inschool.fi).
func NewSession(baseUrl string) (*Session, error) {
	normalized, err := parseBaseUrl(baseUrl)
	if err != nil {
		return nil, err
	}
	return &Session{baseUrl: normalized}, nil
}

// RestoreSession rebuilds an authenticated session from a previously
// obtained Wilma2SID cookie. The identity is not resolved.
func RestoreSession(baseUrl, sessionId string) (*Session, error) {
	s, err := NewSession(baseUrl)
	if err != nil {
		return nil, err
	}
	if !sessionIdRegex.MatchString(sessionId) {
		return nil, fmt.Errorf("wilma: restore session: %w", ErrSessionCookieMissing)
	}
	s.SessionID = sessionId
	return s, nil
}

func (s *Session) BaseUrl() string {
	return s.baseUrl
}

func (s *Session) Authenticated() bool {
	return s.SessionID != ""
}

// Cookies are the cookies an authenticated request must carry.
func (s *Session) Cookies() []*http.Cookie {
	if !s.Authenticated() {
		return nil
	}
	return []*http.Cookie{{Name: cookieSessionID, Value: s.SessionID}}
}

// Logout forgets everything but the base url, the portal is not contacted.
func (s *Session) Logout() {
	*s = Session{baseUrl: s.baseUrl}
}

func (s *Session) url(path string) string {
	return s.baseUrl + path
}
