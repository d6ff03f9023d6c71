package wilma

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
)

const (
	loginTokenLength = 300
	loginSubmitValue = "Kirjaudu sisään"
)

var sessionCookieRegex = regexp.MustCompile(cookieSessionID + `=([a-f0-9]{32})(?:;|\s|$)`)

type tokenResponse struct {
	Wilma2LoginID string `json:"Wilma2LoginID"`
}

func (c *Client) getLoginToken(ctx context.Context, s *Session) (string, error) {
	res, err := c.follow.R().
		SetContext(ctx).
		Get(s.url("/token"))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenUnavailable, err)
	}
	if !res.IsSuccess() {
		c.tel.ReportBroken(report_client_authenticate, fmt.Errorf("token request: status %d", res.StatusCode()))
		return "", fmt.Errorf("%w: status %d", ErrTokenUnavailable, res.StatusCode())
	}

	var token tokenResponse
	err = json.Unmarshal(res.Body(), &token)
	if err != nil {
		c.tel.ReportBroken(report_client_authenticate, fmt.Errorf("unmarshal token: %w", err))
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if len(token.Wilma2LoginID) != loginTokenLength {
		c.tel.ReportBroken(
			report_client_authenticate,
			fmt.Errorf("token has length %d, expected %d", len(token.Wilma2LoginID), loginTokenLength),
		)
		return "", fmt.Errorf("%w: length %d", ErrInvalidToken, len(token.Wilma2LoginID))
	}
	return token.Wilma2LoginID, nil
}

// resolveLocation resolves a Location header against the url of the
// request that produced it.
func resolveLocation(requestUrl, location string) string {
	base, err := url.Parse(requestUrl)
	if err != nil {
		return location
	}
	ref, err := url.Parse(location)
	if err != nil {
		return location
	}
	return base.ResolveReference(ref).String()
}

func findSessionCookie(res *http.Response) (string, bool) {
	for _, header := range res.Header.Values("Set-Cookie") {
		groups := sessionCookieRegex.FindStringSubmatch(header)
		if len(groups) >= 2 {
			return groups[1], true
		}
	}
	return "", false
}

// Authenticate signs the session in with a username and password, on
// success the session carries the Wilma2SID cookie. Any previous state of
// the session is dropped first, so a failed attempt leaves it signed out.
// Failed attempts are not retried.
func (c *Client) Authenticate(ctx context.Context, s *Session, username, password string) error {
	loginError := func(err error) error {
		return fmt.Errorf("wilma: login failed: %w", err)
	}

	s.Logout()

	token, err := c.getLoginToken(ctx, s)
	if err != nil {
		return loginError(err)
	}

	loginUrl := s.url("/login")
	res, err := c.manual.R().
		SetContext(ctx).
		SetCookie(&http.Cookie{Name: cookieLoginID, Value: token}).
		SetFormData(map[string]string{
			"Login":     username,
			"Password":  password,
			"Submit":    loginSubmitValue,
			"SESSIONID": token,
		}).
		Post(loginUrl)
	if err != nil {
		return loginError(fmt.Errorf("%w: %w", ErrTransport, err))
	}
	if res.StatusCode() != http.StatusSeeOther {
		c.tel.ReportBroken(report_client_authenticate, fmt.Errorf("login response: status %d", res.StatusCode()))
		return loginError(fmt.Errorf("%w: status %d", ErrTransport, res.StatusCode()))
	}

	location := resolveLocation(loginUrl, res.Header().Get("Location"))
	switch location {
	case s.url("/?checkcookie"):
	case s.url("/?loginfailed"):
		c.tel.ReportWarning(report_client_authenticate, "invalid credentials", "username", username)
		return loginError(ErrInvalidCredentials)
	default:
		c.tel.ReportBroken(report_client_authenticate, fmt.Errorf("unexpected redirect to %q", location))
		return loginError(fmt.Errorf("%w: %s", ErrUnexpectedRedirect, location))
	}

	sessionId, ok := findSessionCookie(res.RawResponse)
	if !ok {
		c.tel.ReportBroken(report_client_authenticate, ErrSessionCookieMissing)
		return loginError(ErrSessionCookieMissing)
	}

	s.SessionID = sessionId
	s.Username = username
	return nil
}

// Login authenticates and then resolves the identity of the session.
func (c *Client) Login(ctx context.Context, s *Session, username, password string) (Identity, error) {
	err := c.Authenticate(ctx, s, username, password)
	if err != nil {
		return Identity{}, err
	}
	return c.ResolveIdentity(ctx, s)
}
