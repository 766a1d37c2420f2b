package browser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"piview/internal/supervisor/config"
	apperrors "piview/internal/supervisor/errors"
	"piview/internal/supervisor/model"
	"piview/internal/supervisor/report"
	"piview/internal/supervisor/state"

	"go.uber.org/zap"
)

// FailureLedger is the part of the ledger the keeper reports to.
type FailureLedger interface {
	RecordFailure(kind model.FailureKind) int
	RecordRestart() int
	Evaluate(ctx context.Context, reason string) bool
}

// Keeper keeps exactly one browser running. It relaunches after unexpected
// exits with a linear backoff capped at max_restart_backoff, and escalates to
// the ledger once more than max_browser_restarts happen within the restart
// window. Config is re-read before every launch.
type Keeper struct {
	controller  Controller
	store       *config.Store
	record      *state.Record
	ledger      FailureLedger
	publisher   report.Publisher
	logger      *zap.Logger
	stopTimeout time.Duration

	restartCh chan model.RestartReason

	// loop state, only touched by Run
	window    []time.Time
	attempt   int
	exhausted bool

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func NewKeeper(controller Controller, store *config.Store, record *state.Record, ledger FailureLedger, publisher report.Publisher, logger *zap.Logger, stopTimeout time.Duration) *Keeper {
	if publisher == nil {
		publisher = report.NopPublisher{}
	}
	return &Keeper{
		controller:  controller,
		store:       store,
		record:      record,
		ledger:      ledger,
		publisher:   publisher,
		logger:      logger,
		stopTimeout: stopTimeout,
		restartCh:   make(chan model.RestartReason, 1),
		sleep:       sleepCtx,
		now:         time.Now,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RequestRestart asks the keeper to replace the running browser. It returns
// false if a restart is already pending.
func (k *Keeper) RequestRestart(reason model.RestartReason) bool {
	select {
	case k.restartCh <- reason:
		return true
	default:
		return false
	}
}

func (k *Keeper) drainRestarts() {
	for {
		select {
		case <-k.restartCh:
		default:
			return
		}
	}
}

type watchResult int

const (
	resultShutdown watchResult = iota
	resultExited
	resultRestart
)

// Run supervises the browser until ctx is cancelled; the browser is stopped
// before Run returns.
func (k *Keeper) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		cfg, err := k.store.Reload()
		if err != nil {
			k.logger.Warn("kiosk config reload failed, keeping previous config", zap.Error(err))
		}
		k.drainRestarts()

		h, err := k.controller.Start(ctx, cfg)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			k.logLaunchFailure(err)
			if k.unexpected(ctx, cfg, model.FailureLaunch, err.Error()) != nil {
				return nil
			}
			continue
		}

		k.record.BrowserStarted(h.PID(), h.StartedAt(), cfg.URL)
		k.publisher.Publish(model.Event{
			Type:    model.EventBrowserStarted,
			Status:  k.record.Status(),
			Message: cfg.URL,
			Fields:  map[string]string{"pid": strconv.Itoa(h.PID())},
		})

		result, exit, reason := k.watch(ctx, h, cfg)
		k.record.BrowserStopped()

		switch result {
		case resultShutdown:
			return nil
		case resultRestart:
			if k.deliberate(ctx, cfg, reason) != nil {
				return nil
			}
		case resultExited:
			kind := model.FailureCrashExit
			if exit.Uptime < cfg.StartupGrace() {
				kind = model.FailureLaunch
			}
			k.logExit(h, exit, kind)
			if k.unexpected(ctx, cfg, kind, fmt.Sprintf("browser exited with code %d %s", exit.Code, exit.Signal)) != nil {
				return nil
			}
		}
	}
}

func (k *Keeper) watch(ctx context.Context, h *ProcessHandle, cfg *config.KioskConfig) (watchResult, model.ExitEvent, model.RestartReason) {
	exitCh := k.controller.OnExit(h)
	stable := time.NewTimer(k.stableAfter(cfg))
	defer stable.Stop()
	for {
		select {
		case <-ctx.Done():
			k.logger.Info("stopping browser for shutdown", zap.Int("pid", h.PID()))
			if err := k.controller.Stop(h, k.stopTimeout); err != nil {
				k.logger.Warn("browser stop on shutdown", zap.Error(err))
			}
			return resultShutdown, model.ExitEvent{}, model.RestartReason{}
		case exit := <-exitCh:
			return resultExited, exit, model.RestartReason{}
		case reason := <-k.restartCh:
			k.logger.Info("restarting browser", zap.String("kind", string(reason.Kind)), zap.String("reason", reason.Message), zap.Int("pid", h.PID()))
			if err := k.controller.Stop(h, k.stopTimeout); err != nil {
				k.logger.Warn("browser stop for restart", zap.Error(err))
			}
			return resultRestart, model.ExitEvent{}, reason
		case <-stable.C:
			k.markStable(cfg)
		}
	}
}

// stableAfter is how long a browser has to stay up before the backoff and
// the exhausted flag are cleared.
func (k *Keeper) stableAfter(cfg *config.KioskConfig) time.Duration {
	d := 2 * cfg.HealthCheckEvery()
	if grace := cfg.StartupGrace(); d < grace {
		d = grace
	}
	return d
}

func (k *Keeper) markStable(cfg *config.KioskConfig) {
	k.attempt = 0
	k.pruneWindow(cfg)
	if k.exhausted && len(k.window) <= cfg.MaxBrowserRestarts {
		k.exhausted = false
		k.record.SetRestartsExhausted(false)
		k.logger.Info("browser stable again, restart budget restored", zap.Int("restarts_in_window", len(k.window)))
	}
}

func (k *Keeper) pruneWindow(cfg *config.KioskConfig) {
	cutoff := k.now().Add(-cfg.RestartWindowDuration())
	i := 0
	for i < len(k.window) && k.window[i].Before(cutoff) {
		i++
	}
	k.window = k.window[i:]
}

// unexpected handles a launch failure or an unrequested exit and waits out
// the backoff. The ledger only hears about it once the restart budget of the
// window is spent. It returns ctx.Err() if shutdown interrupted the wait.
func (k *Keeper) unexpected(ctx context.Context, cfg *config.KioskConfig, kind model.FailureKind, msg string) error {
	k.pruneWindow(cfg)
	k.window = append(k.window, k.now())
	restarts := k.record.IncRestart()
	k.ledger.RecordRestart()

	if len(k.window) > cfg.MaxBrowserRestarts {
		if !k.exhausted {
			k.exhausted = true
			k.record.SetRestartsExhausted(true)
			k.logger.Error("browser restart limit exceeded",
				zap.Int("restarts_in_window", len(k.window)),
				zap.Int("max_browser_restarts", cfg.MaxBrowserRestarts),
				zap.Duration("window", cfg.RestartWindowDuration()),
			)
		}
		kind = model.FailureRestartsExhausted
		k.ledger.RecordFailure(kind)
		k.ledger.Evaluate(ctx, "browser restarts exhausted")
	}

	k.attempt++
	delay := k.backoff(cfg)
	k.publisher.Publish(model.Event{
		Type:    model.EventBrowserRestart,
		Status:  k.record.Status(),
		Message: msg,
		Fields: map[string]string{
			"kind":    string(kind),
			"attempt": strconv.Itoa(k.attempt),
			"delay":   delay.String(),
		},
	})
	k.logger.Info("relaunching browser after backoff",
		zap.String("kind", string(kind)),
		zap.Int("attempt", k.attempt),
		zap.Duration("delay", delay),
		zap.Int("restart_count", restarts),
	)
	return k.sleep(ctx, delay)
}

// deliberate handles a restart the supervisor asked for. Kinds that are not
// counted (memory, network) do not move the ledger.
func (k *Keeper) deliberate(ctx context.Context, cfg *config.KioskConfig, reason model.RestartReason) error {
	restarts := k.record.IncRestart()
	k.ledger.RecordRestart()
	if reason.Kind != "" && reason.Kind.Counted() {
		k.ledger.RecordFailure(reason.Kind)
		k.ledger.Evaluate(ctx, string(reason.Kind))
	}
	k.publisher.Publish(model.Event{
		Type:    model.EventBrowserRestart,
		Status:  k.record.Status(),
		Message: reason.Message,
		Fields: map[string]string{
			"kind":          string(reason.Kind),
			"restart_count": strconv.Itoa(restarts),
		},
	})
	return k.sleep(ctx, cfg.RetryDelay())
}

func (k *Keeper) backoff(cfg *config.KioskConfig) time.Duration {
	if k.exhausted {
		return cfg.MaxBackoff()
	}
	d := cfg.RetryDelay() * time.Duration(k.attempt)
	if maxDelay := cfg.MaxBackoff(); d > maxDelay {
		d = maxDelay
	}
	return d
}

func (k *Keeper) logLaunchFailure(err error) {
	var launchErr *apperrors.LaunchError
	if errors.As(err, &launchErr) {
		k.logger.Error("browser launch failed",
			zap.String("browser", launchErr.Browser),
			zap.Int("exit_code", launchErr.ExitCode),
			zap.String("stderr", launchErr.Stderr),
			zap.Error(err),
		)
		return
	}
	k.logger.Error("browser launch failed", zap.Error(err))
}

func (k *Keeper) logExit(h *ProcessHandle, exit model.ExitEvent, kind model.FailureKind) {
	fields := []zap.Field{
		zap.Int("pid", exit.PID),
		zap.Int("exit_code", exit.Code),
		zap.String("signal", exit.Signal),
		zap.Bool("crashed", exit.Crashed),
		zap.Duration("uptime", exit.Uptime),
		zap.String("kind", string(kind)),
	}
	if kind == model.FailureLaunch {
		fields = append(fields, zap.String("stderr", h.StderrTail()))
		k.logger.Error("browser exited during startup", fields...)
	} else {
		k.logger.Error("browser exited unexpectedly", fields...)
	}
	k.publisher.Publish(model.Event{
		Type:    model.EventBrowserExited,
		Status:  k.record.Status(),
		Message: string(kind),
		Fields: map[string]string{
			"exit_code": strconv.Itoa(exit.Code),
			"signal":    exit.Signal,
		},
	})
}
