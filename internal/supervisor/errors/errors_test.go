package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLaunchError(t *testing.T) {
	err := NewLaunchError("chromium", 1, "cannot open display", ErrEarlyExit)
	wrapped := fmt.Errorf("Controller.Start: %w", err)

	assert.ErrorIs(t, wrapped, ErrEarlyExit)
	var launchErr *LaunchError
	assert.True(t, errors.As(wrapped, &launchErr))
	assert.Equal(t, 1, launchErr.ExitCode)
	assert.Contains(t, err.Error(), "cannot open display")

	noStderr := NewLaunchError("chromium", -1, "", ErrBrowserNotFound)
	assert.Equal(t, "launch chromium failed: browser executable not found", noStderr.Error())
}
