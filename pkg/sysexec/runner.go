package sysexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// DefaultTimeout bounds helper commands (xset, xdotool, nmcli, ip) that
// would otherwise hang the calling loop.
const DefaultTimeout = 5 * time.Second

// waitDelay bounds how long Run waits for output pipes held open by a
// background child after the command itself has exited or been killed.
const waitDelay = 2 * time.Second

type CommandRunner interface {
	// Run executes name with args and returns the combined output.
	// A non-zero exit is returned as *ExitError.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	// Start launches name detached from the caller; the process is reaped in
	// the background and its result is ignored.
	Start(name string, args ...string) error
	LookPath(name string) (string, error)
}

type ExitError struct {
	Command  string
	ExitCode int
	Output   string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q exited with code %d: %s", e.Command, e.ExitCode, e.Output)
}

type commandRunner struct {
	timeout time.Duration
	env     []string
}

func (r *commandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}
	cmd.WaitDelay = waitDelay
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	if errors.Is(err, exec.ErrWaitDelay) {
		// The command exited 0; only a detached child kept the pipe.
		err = nil
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out.Bytes(), &ExitError{
				Command:  name,
				ExitCode: exitErr.ExitCode(),
				Output:   string(bytes.TrimSpace(out.Bytes())),
			}
		}
		return out.Bytes(), fmt.Errorf("CommandRunner.Run %s: %w", name, err)
	}
	return out.Bytes(), nil
}

func (r *commandRunner) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("CommandRunner.Start %s: %w", name, err)
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func (r *commandRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// NewCommandRunner returns a runner that applies timeout to every Run call
// and appends env (KEY=VALUE) to the inherited environment.
func NewCommandRunner(timeout time.Duration, env ...string) CommandRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &commandRunner{
		timeout: timeout,
		env:     env,
	}
}
