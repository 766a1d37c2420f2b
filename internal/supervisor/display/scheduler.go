package display

import (
	"context"
	"sync"
	"time"

	"piview/internal/supervisor/config"
	"piview/internal/supervisor/model"
	"piview/internal/supervisor/state"
	"piview/pkg/sysexec"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const resyncEvery = time.Minute

type Restarter interface {
	RequestRestart(reason model.RestartReason) bool
}

// Scheduler runs the periodic display jobs: screen keepalive and page
// auto-refresh. Job intervals follow the current config.
type Scheduler struct {
	store     *config.Store
	record    *state.Record
	runner    sysexec.CommandRunner
	restarter Restarter
	logger    *zap.Logger
	cron      *cron.Cron

	mu             sync.Mutex
	ctx            context.Context
	keepaliveID    cron.EntryID
	keepaliveEvery time.Duration
	refreshID      cron.EntryID
	refreshEvery   time.Duration
	noXdotool      bool
}

func NewScheduler(store *config.Store, record *state.Record, runner sysexec.CommandRunner, restarter Restarter, logger *zap.Logger) *Scheduler {
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		store:     store,
		record:    record,
		runner:    runner,
		restarter: restarter,
		logger:    logger,
		cron:      cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		ctx:       context.Background(),
	}
}

func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.PreventBlanking(ctx)
	s.Sync()
	s.cron.Schedule(cron.Every(resyncEvery), cron.FuncJob(s.Sync))
	s.cron.Start()

	<-ctx.Done()
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(5 * time.Second):
		s.logger.Warn("display jobs did not finish before shutdown")
	}
	return nil
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// Sync registers the jobs, re-registering any whose interval changed.
func (s *Scheduler) Sync() {
	cfg := s.store.Current()
	s.mu.Lock()
	defer s.mu.Unlock()

	if every := cfg.KeepaliveEvery(); every != s.keepaliveEvery {
		if s.keepaliveID != 0 {
			s.cron.Remove(s.keepaliveID)
		}
		s.keepaliveID = s.cron.Schedule(cron.Every(every), cron.FuncJob(func() { s.Keepalive(s.context()) }))
		s.keepaliveEvery = every
		s.logger.Info("screen keepalive scheduled", zap.Duration("every", every))
	}
	if every := cfg.RefreshEvery(); every != s.refreshEvery {
		if s.refreshID != 0 {
			s.cron.Remove(s.refreshID)
		}
		s.refreshID = s.cron.Schedule(cron.Every(every), cron.FuncJob(func() { s.Refresh(s.context()) }))
		s.refreshEvery = every
		s.logger.Info("page refresh scheduled", zap.Duration("every", every))
	}
}

// PreventBlanking turns off the X screensaver and DPMS and asks the firmware
// to keep HDMI powered. Every failure is ignored: the tools differ between
// images and none of them is essential.
func (s *Scheduler) PreventBlanking(ctx context.Context) {
	s.quiet(ctx, "xset", "s", "off", "-dpms", "s", "noblank")
	s.quiet(ctx, "tvservice", "-p")
}

// Keepalive nudges the pointer by one pixel and back and resets the
// screensaver timer.
func (s *Scheduler) Keepalive(ctx context.Context) {
	s.quiet(ctx, "xdotool", "mousemove_relative", "--", "1", "0")
	s.quiet(ctx, "xdotool", "mousemove_relative", "--", "-1", "0")
	s.quiet(ctx, "xset", "s", "reset")
	s.PreventBlanking(ctx)
}

func (s *Scheduler) quiet(ctx context.Context, name string, args ...string) {
	if _, err := s.runner.Run(ctx, name, args...); err != nil {
		s.logger.Debug("keepalive command failed", zap.String("command", name), zap.Error(err))
	}
}

// Refresh reloads the page with F5. A browser that cannot be driven is
// restarted instead; while no browser runs there is nothing to refresh.
func (s *Scheduler) Refresh(ctx context.Context) {
	if s.record.BrowserPID() == 0 {
		return
	}
	if s.xdotoolMissing() {
		return
	}
	if _, err := s.runner.Run(ctx, "xdotool", "key", "F5"); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("page refresh failed, restarting browser", zap.Error(err))
		s.restarter.RequestRestart(model.RestartReason{Message: "page refresh failed"})
		return
	}
	s.logger.Debug("page refreshed")
}

func (s *Scheduler) xdotoolMissing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.noXdotool {
		return true
	}
	if _, err := s.runner.LookPath("xdotool"); err != nil {
		s.logger.Warn("xdotool not installed, page auto-refresh disabled")
		s.noXdotool = true
		return true
	}
	return false
}

// cronLogger routes cron's own messages into zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
