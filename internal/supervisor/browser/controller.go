package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"piview/internal/supervisor/config"
	apperrors "piview/internal/supervisor/errors"
	"piview/internal/supervisor/model"
	"piview/pkg/sysexec"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

const (
	defaultXWait     = 30 * time.Second
	defaultEarlyExit = time.Second
	killGracePeriod  = 2 * time.Second
	// Descendants that outlive the leader can keep the stderr pipe open;
	// Wait gives up on the pipe after this long.
	pipeWaitDelay = 2 * time.Second
)

var fallbackBrowsers = []string{"chromium-browser", "chromium", "google-chrome", "chrome"}

type Controller interface {
	// Start repairs the profile and launches the browser for cfg.
	Start(ctx context.Context, cfg *config.KioskConfig) (*ProcessHandle, error)
	// Stop terminates the browser process group, escalating to a kill after
	// timeout. It returns an error wrapping ErrForceKill on the kill path.
	Stop(h *ProcessHandle, timeout time.Duration) error
	// OnExit delivers the exit event once the process has been reaped.
	OnExit(h *ProcessHandle) <-chan model.ExitEvent
}

type XWaiter interface {
	WaitReady(ctx context.Context, max time.Duration) error
}

type ControllerOption func(*processController)

func WithXWaiter(x XWaiter) ControllerOption {
	return func(c *processController) { c.x = x }
}

func WithEnv(env ...string) ControllerOption {
	return func(c *processController) { c.env = env }
}

func WithLaunchTimeout(d time.Duration) ControllerOption {
	return func(c *processController) {
		if d > 0 {
			c.launchTimeout = d
		}
	}
}

type processController struct {
	runner        sysexec.CommandRunner
	x             XWaiter
	env           []string
	logger        *zap.Logger
	launchTimeout time.Duration
	earlyExit     time.Duration
}

func NewController(runner sysexec.CommandRunner, logger *zap.Logger, opts ...ControllerOption) Controller {
	c := &processController{
		runner:        runner,
		logger:        logger,
		launchTimeout: defaultXWait + defaultEarlyExit,
		earlyExit:     defaultEarlyExit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *processController) resolveBrowser(name string) (string, error) {
	if path, err := c.runner.LookPath(name); err == nil {
		return path, nil
	}
	for _, candidate := range fallbackBrowsers {
		if candidate == filepath.Base(name) {
			continue
		}
		if path, err := c.runner.LookPath(candidate); err == nil {
			c.logger.Warn("configured browser not found, using fallback", zap.String("configured", name), zap.String("browser", path))
			return path, nil
		}
	}
	return "", apperrors.NewLaunchError(name, -1, "", apperrors.ErrBrowserNotFound)
}

func (c *processController) Start(ctx context.Context, cfg *config.KioskConfig) (*ProcessHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, c.launchTimeout)
	defer cancel()

	if c.x != nil {
		if err := c.x.WaitReady(ctx, defaultXWait); err != nil {
			return nil, apperrors.NewLaunchError(cfg.Browser, -1, "", fmt.Errorf("%w: %v", apperrors.ErrXServerUnavailable, err))
		}
	}

	path, err := c.resolveBrowser(cfg.Browser)
	if err != nil {
		return nil, fmt.Errorf("Controller.Start: %w", err)
	}

	previous, err := RepairProfile(cfg.UserDataDir())
	if err != nil {
		c.logger.Warn("failed to repair browser profile", zap.Error(err))
	} else if previous != "" && previous != ExitTypeNormal {
		// The browser prompt is suppressed; the real outcome is kept here.
		c.logger.Warn("previous browser session did not exit cleanly", zap.String("exit_type", previous), zap.String("profile", cfg.UserDataDir()))
	}

	args := BuildArgs(cfg)
	cmd := exec.Command(path, args...)
	cmd.Env = append(os.Environ(), c.env...)
	cmd.Stdout = io.Discard
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.WaitDelay = pipeWaitDelay

	h := newProcessHandle(0, time.Now())
	cmd.Stderr = h.stderr
	if err = cmd.Start(); err != nil {
		return nil, apperrors.NewLaunchError(path, -1, "", err)
	}
	h.pid = cmd.Process.Pid
	h.cmd = cmd
	go c.wait(h)

	c.logger.Info("browser launched", zap.String("browser", path), zap.Int("pid", h.pid), zap.String("url", cfg.URL), zap.Strings("args", args))

	timer := time.NewTimer(c.earlyExit)
	defer timer.Stop()
	select {
	case <-h.Done():
		ev := h.Exit()
		return nil, apperrors.NewLaunchError(path, ev.Code, h.StderrTail(), apperrors.ErrEarlyExit)
	case <-timer.C:
		return h, nil
	case <-ctx.Done():
		_ = c.Stop(h, killGracePeriod)
		return nil, apperrors.NewLaunchError(path, -1, h.StderrTail(), ctx.Err())
	}
}

func (c *processController) wait(h *ProcessHandle) {
	err := h.cmd.Wait()
	ev := model.ExitEvent{Uptime: time.Since(h.started)}
	if state := h.cmd.ProcessState; state != nil {
		ev.Code = state.ExitCode()
		if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			ev.Signal = ws.Signal().String()
		}
	}
	var exitErr *exec.ExitError
	switch {
	case err == nil, errors.As(err, &exitErr):
	case errors.Is(err, exec.ErrWaitDelay):
		c.logger.Debug("browser stderr still held by a descendant", zap.Int("pid", h.pid))
	default:
		ev.Err = err
	}
	h.finish(ev)
}

func (c *processController) Stop(h *ProcessHandle, timeout time.Duration) error {
	h.stopRequested.Store(true)
	select {
	case <-h.Done():
		return nil
	default:
	}

	if err := signalGroup(h.pid, unix.SIGTERM); err != nil {
		c.logger.Debug("failed to signal browser group", zap.Int("pid", h.pid), zap.Error(err))
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-h.Done():
		return nil
	case <-timer.C:
	}

	c.logger.Warn("browser did not stop in time, killing", zap.Int("pid", h.pid), zap.Duration("timeout", timeout))
	_ = signalGroup(h.pid, unix.SIGKILL)
	select {
	case <-h.Done():
		return fmt.Errorf("Controller.Stop pid %d: %w", h.pid, apperrors.ErrForceKill)
	case <-time.After(killGracePeriod):
		return fmt.Errorf("Controller.Stop pid %d not reaped after kill: %w", h.pid, apperrors.ErrForceKill)
	}
}

// signalGroup signals the whole process group, falling back to the leader
// when the group is gone.
func signalGroup(pid int, sig unix.Signal) error {
	if err := unix.Kill(-pid, sig); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return unix.Kill(pid, sig)
		}
		return err
	}
	return nil
}

func (c *processController) OnExit(h *ProcessHandle) <-chan model.ExitEvent {
	ch := make(chan model.ExitEvent, 1)
	go func() {
		ch <- h.Exit()
	}()
	return ch
}
