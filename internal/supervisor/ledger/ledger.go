package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"piview/internal/supervisor/config"
	"piview/internal/supervisor/model"
	"piview/internal/supervisor/report"
	"piview/internal/supervisor/state"
	"piview/pkg/sysexec"

	"go.uber.org/zap"
)

const defaultAlertTimeout = 10 * time.Second

type Rebooter interface {
	// Reboot asks the OS to reboot and returns without waiting for it.
	Reboot() error
}

type Alerter interface {
	RebootImminent(ctx context.Context, rec model.HealthRecord, reason string) error
}

// Ledger accumulates failures for the whole run and owns the reboot latch.
// The consecutive counter is reset only by RecordSuccess; the restart counter
// never resets.
type Ledger struct {
	mu          sync.Mutex
	consecutive int
	restarts    int
	fired       atomic.Bool

	store     *config.Store
	record    *state.Record
	rebooter  Rebooter
	alerter   Alerter
	publisher report.Publisher
	logger    *zap.Logger

	alertTimeout time.Duration
}

func NewLedger(store *config.Store, record *state.Record, rebooter Rebooter, alerter Alerter, publisher report.Publisher, logger *zap.Logger) *Ledger {
	if publisher == nil {
		publisher = report.NopPublisher{}
	}
	return &Ledger{
		store:        store,
		record:       record,
		rebooter:     rebooter,
		alerter:      alerter,
		publisher:    publisher,
		logger:       logger,
		alertTimeout: defaultAlertTimeout,
	}
}

// RecordFailure registers a failure and returns the consecutive count.
// Kinds that are recovered locally are logged but not counted.
func (l *Ledger) RecordFailure(kind model.FailureKind) int {
	l.mu.Lock()
	if !kind.Counted() {
		n := l.consecutive
		l.mu.Unlock()
		l.logger.Info("failure recorded", zap.String("kind", string(kind)), zap.Int("consecutive_failures", n), zap.Bool("counted", false))
		return n
	}
	l.consecutive++
	n := l.consecutive
	l.mu.Unlock()

	l.record.SetConsecutiveFailures(n)
	cfg := l.store.Current()
	l.logger.Warn("failure recorded",
		zap.String("kind", string(kind)),
		zap.Int("consecutive_failures", n),
		zap.Int("reboot_threshold", cfg.AutoRebootAfterFailures),
		zap.Bool("auto_reboot_enabled", cfg.AutoRebootEnabled),
	)
	return n
}

func (l *Ledger) RecordSuccess() {
	l.mu.Lock()
	prev := l.consecutive
	l.consecutive = 0
	l.mu.Unlock()

	l.record.SetConsecutiveFailures(0)
	if prev > 0 {
		l.logger.Info("consecutive failures reset", zap.Int("previous", prev))
	}
}

// RecordRestart counts a browser restart and returns the lifetime total.
func (l *Ledger) RecordRestart() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.restarts++
	return l.restarts
}

func (l *Ledger) Consecutive() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.consecutive
}

func (l *Ledger) Restarts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.restarts
}

// ShouldReboot returns true exactly once per run: the first call that sees
// the threshold crossed with the policy enabled takes the latch.
func (l *Ledger) ShouldReboot() bool {
	cfg := l.store.Current()
	if !cfg.AutoRebootEnabled {
		return false
	}
	if l.Consecutive() < cfg.AutoRebootAfterFailures {
		return false
	}
	return l.fired.CompareAndSwap(false, true)
}

func (l *Ledger) Fired() bool {
	return l.fired.Load()
}

// Evaluate consults the reboot policy and, when it fires, moves the record to
// Rebooting, flushes logs and requests the reboot. It reports whether a
// reboot was requested by this call.
func (l *Ledger) Evaluate(ctx context.Context, reason string) bool {
	if !l.ShouldReboot() {
		cfg := l.store.Current()
		if !cfg.AutoRebootEnabled && !l.Fired() && l.Consecutive() >= cfg.AutoRebootAfterFailures {
			l.logger.Warn("reboot threshold reached but auto reboot is disabled",
				zap.Int("consecutive_failures", l.Consecutive()),
				zap.String("reason", reason),
			)
		}
		return false
	}

	l.record.SetRebooting()
	rec := l.record.Snapshot()
	l.logger.Error("reboot threshold reached, rebooting system",
		zap.String("reason", reason),
		zap.Int("consecutive_failures", rec.ConsecutiveFailures),
		zap.Int("restart_count", rec.RestartCount),
	)
	l.publisher.Publish(model.Event{
		Type:    model.EventRebootDecision,
		Status:  model.StatusRebooting,
		Message: reason,
		Fields: map[string]string{
			"consecutive_failures": fmt.Sprint(rec.ConsecutiveFailures),
		},
	})

	if l.alerter != nil {
		alertCtx, cancel := context.WithTimeout(ctx, l.alertTimeout)
		if err := l.alerter.RebootImminent(alertCtx, rec, reason); err != nil {
			l.logger.Warn("failed to send reboot alert", zap.Error(fmt.Errorf("Ledger.Evaluate: %w", err)))
		}
		cancel()
	}

	_ = l.logger.Sync()
	if err := l.rebooter.Reboot(); err != nil {
		// The latch stays taken; with heartbeats withheld the external
		// watchdog performs the reboot instead.
		l.logger.Error("reboot request failed", zap.Error(fmt.Errorf("Ledger.Evaluate: %w", err)))
	}
	return true
}

type commandRebooter struct {
	runner sysexec.CommandRunner
	name   string
	args   []string
}

func (r *commandRebooter) Reboot() error {
	if err := r.runner.Start(r.name, r.args...); err != nil {
		return fmt.Errorf("Rebooter.Reboot: %w", err)
	}
	return nil
}

// NewCommandRebooter runs command (e.g. "systemctl reboot") detached.
func NewCommandRebooter(runner sysexec.CommandRunner, command string) Rebooter {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		fields = []string{"systemctl", "reboot"}
	}
	return &commandRebooter{
		runner: runner,
		name:   fields[0],
		args:   fields[1:],
	}
}
