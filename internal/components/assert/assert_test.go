package assert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type thing struct{}

func TestNotNil(t *testing.T) {
	require.Panics(t, func() { NotNil(nil) })

	var typed *thing
	require.Panics(t, func() { NotNil(typed) })

	require.NotPanics(t, func() { NotNil(&thing{}) })
	require.NotPanics(t, func() { NotNil(thing{}) })
}

func TestNotEmptyStr(t *testing.T) {
	require.Panics(t, func() { NotEmptyStr("") })
	require.NotPanics(t, func() { NotEmptyStr("x") })
}
