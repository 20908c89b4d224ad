package assert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type client struct{}

func TestNotNil(t *testing.T) {
	var nilClient *client
	var nilFunc func()

	require.PanicsWithValue(t, "expected api to be not nil", func() { NotNil(nil, "api") })
	require.Panics(t, func() { NotNil(nilClient, "client") })
	require.Panics(t, func() { NotNil(nilFunc, "makeTx") })
	require.NotPanics(t, func() { NotNil(&client{}, "client") })
	require.NotPanics(t, func() { NotNil(client{}, "client") })
}

func TestNotEmptyStr(t *testing.T) {
	require.PanicsWithValue(t, "expected project to be non-empty", func() { NotEmptyStr("", "project") })
	require.NotPanics(t, func() { NotEmptyStr("project-1", "project") })
}
