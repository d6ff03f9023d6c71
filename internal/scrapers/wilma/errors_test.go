package wilma

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserMessage(t *testing.T) {
	require.Equal(t, "", UserMessage(nil))
	require.Equal(t, messageInvalidCredentials, UserMessage(fmt.Errorf("wilma: login failed: %w", ErrInvalidCredentials)))
	require.Equal(t, messageNotAuthenticated, UserMessage(fmt.Errorf("wilma: get schedule: %w", ErrNotAuthenticated)))

	malformed := newMalformedDataError("<div>portal markup</div>", errors.New("bad literal"))
	require.Equal(t, messageUnavailable, UserMessage(malformed))
	require.NotContains(t, UserMessage(malformed), "portal markup")

	for _, err := range []error{
		ErrTokenUnavailable,
		ErrInvalidToken,
		ErrTransport,
		ErrUnexpectedRedirect,
		ErrSessionCookieMissing,
		ErrIdentifierMissing,
		ErrNoEmbeddedData,
		ErrFetchFailed,
	} {
		require.Equal(t, messageUnavailable, UserMessage(err), err.Error())
	}
}

func TestMalformedDataError(t *testing.T) {
	cause := errors.New("bad literal")
	err := fmt.Errorf("wilma: get schedule: %w", newMalformedDataError("{ a: }", cause))

	require.ErrorIs(t, err, ErrMalformedEmbeddedData)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), `"{ a: }"`)
}
