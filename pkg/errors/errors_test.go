package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapFormatsCause(t *testing.T) {
	err := Wrap("invalid_input", "day_of_week is required", nil)
	require.Equal(t, "day_of_week is required", err.Error())

	cause := errors.New("connection refused")
	err = Wrap("predictor_error", "predictor request failed", cause)
	require.Equal(t, "predictor request failed: connection refused", err.Error())
	require.ErrorIs(t, err, cause)
}

func TestIsCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("assess: %w", Wrap("invalid_input", "bad factor", nil))
	require.True(t, IsCode(err, "invalid_input"))
	require.False(t, IsCode(err, "not_found"))
	require.Equal(t, "invalid_input", CodeOf(err))
	require.Equal(t, "", CodeOf(errors.New("plain")))
}
