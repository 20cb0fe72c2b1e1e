package clierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := Input(nil, "nothing staged", "stage changes with git add")
	wrapped := fmt.Errorf("collect: %w", base)

	require.Equal(t, KindInput, KindOf(wrapped))
	require.True(t, Is(wrapped, KindInput))
	require.False(t, Is(wrapped, KindProtocol))
	require.Contains(t, wrapped.Error(), "nothing staged")
	require.Equal(t, []string{"stage changes with git add"}, Hints(wrapped))
}

func TestErrorIncludesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Transport(cause, "retries exhausted")

	require.Equal(t, "retries exhausted: connection refused", err.Error())
	require.ErrorIs(t, err, cause)
}

func TestExitCode(t *testing.T) {
	require.Equal(t, 0, ExitCode(nil))
	require.Equal(t, 1, ExitCode(Config(nil, "bad config")))
	require.Equal(t, 1, ExitCode(errors.New("plain")))
	require.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}

func TestKindString(t *testing.T) {
	require.Equal(t, "environment", KindEnvironment.String())
	require.Equal(t, "unknown", Kind(42).String())
}
