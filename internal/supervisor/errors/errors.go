package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrBrowserNotFound     = errors.New("browser executable not found")
	ErrXServerUnavailable  = errors.New("X server not available")
	ErrEarlyExit           = errors.New("browser exited during startup")
	ErrForceKill           = errors.New("browser did not stop gracefully and was killed")
	ErrConfigNotFound      = errors.New("kiosk config file not found")
	ErrConfigInvalid       = errors.New("kiosk config invalid")
	ErrAlreadyRunning      = errors.New("supervisor already running")
	ErrNoFailoverInterface = errors.New("no failover interface available")
	ErrBrowserStalled      = errors.New("browser is not responding")
)

// LaunchError is returned when the browser could not be brought up.
type LaunchError struct {
	Browser  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *LaunchError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("launch %s failed (exit code %d): %v: %s", e.Browser, e.ExitCode, e.Err, e.Stderr)
	}
	return fmt.Sprintf("launch %s failed: %v", e.Browser, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

func NewLaunchError(browser string, exitCode int, stderr string, err error) error {
	return &LaunchError{
		Browser:  browser,
		ExitCode: exitCode,
		Stderr:   stderr,
		Err:      err,
	}
}
