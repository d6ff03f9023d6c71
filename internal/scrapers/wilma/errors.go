package wilma

import (
	"errors"
	"fmt"
)

var (
	ErrTokenUnavailable      = errors.New("login token unavailable")
	ErrInvalidToken          = errors.New("invalid login token")
	ErrTransport             = errors.New("unexpected login response")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUnexpectedRedirect    = errors.New("unexpected login redirect")
	ErrSessionCookieMissing  = errors.New("session cookie missing")
	ErrNotAuthenticated      = errors.New("not authenticated")
	ErrIdentifierMissing     = errors.New("student identifier missing")
	ErrNoEmbeddedData        = errors.New("no embedded schedule data")
	ErrMalformedEmbeddedData = errors.New("malformed embedded schedule data")
	ErrFetchFailed           = errors.New("fetch failed")
)

const snippetLength = 200

// MalformedDataError is returned when the embedded schedule object could not
// be parsed, it matches ErrMalformedEmbeddedData.
type MalformedDataError struct {
	// Snippet is the start of the captured text, at most 200 bytes.
	Snippet string
	Err     error
}

func newMalformedDataError(captured string, err error) *MalformedDataError {
	return &MalformedDataError{
		Snippet: truncate(captured, snippetLength),
		Err:     err,
	}
}

func (e *MalformedDataError) Error() string {
	return fmt.Sprintf("%s: %v (near %q)", ErrMalformedEmbeddedData.Error(), e.Err, e.Snippet)
}

func (e *MalformedDataError) Unwrap() []error {
	return []error{ErrMalformedEmbeddedData, e.Err}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

const (
	messageInvalidCredentials = "The username or password is incorrect, please try again."
	messageNotAuthenticated   = "Your session has expired, please sign in again."
	messageUnavailable        = "Wilma is unavailable right now, please try again later."
)

// UserMessage converts an error returned by this package into a string that
// is safe to show to an end user, it never contains portal content.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return messageInvalidCredentials
	case errors.Is(err, ErrNotAuthenticated):
		return messageNotAuthenticated
	default:
		return messageUnavailable
	}
}
