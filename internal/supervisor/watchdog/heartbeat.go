package watchdog

import (
	"context"
	"time"

	"piview/internal/supervisor/config"
	"piview/internal/supervisor/model"
	"piview/internal/supervisor/state"

	"go.uber.org/zap"
)

const minInterval = time.Second

// Heartbeat signals liveness while the record reports Healthy or Degraded and
// the health monitor is still completing checks. Anything else stops the
// beats so the external watchdog resets the machine on its own.
type Heartbeat struct {
	store    *config.Store
	record   *state.Record
	notifier Notifier
	logger   *zap.Logger
	systemd  time.Duration

	withheld string
	armed    bool

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewHeartbeat builds the loop. systemd is the service manager's watchdog
// timeout (see SystemdInterval), zero when unset.
func NewHeartbeat(store *config.Store, record *state.Record, notifier Notifier, logger *zap.Logger, systemd time.Duration) *Heartbeat {
	return &Heartbeat{
		store:    store,
		record:   record,
		notifier: notifier,
		logger:   logger,
		systemd:  systemd,
		sleep:    sleepCtx,
		now:      time.Now,
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

// Interval is a third of the freeze threshold, and at most half of the
// service manager's timeout.
func (h *Heartbeat) Interval() time.Duration {
	d := h.store.Current().FreezeThreshold() / 3
	if h.systemd > 0 && h.systemd/2 < d {
		d = h.systemd / 2
	}
	if d < minInterval {
		d = minInterval
	}
	return d
}

func (h *Heartbeat) Run(ctx context.Context) error {
	if err := h.notifier.Ready(); err != nil {
		h.logger.Warn("failed to send ready notification", zap.Error(err))
	}
	if h.systemd > 0 && !h.store.Current().WatchdogEnabled {
		h.logger.Warn("service manager watchdog is active but watchdog_enabled is false",
			zap.Duration("systemd_timeout", h.systemd),
		)
	}
	for {
		if err := h.sleep(ctx, h.Interval()); err != nil {
			h.shutdown()
			return nil
		}
		h.Tick()
	}
}

func (h *Heartbeat) shutdown() {
	if err := h.notifier.Stopping(); err != nil {
		h.logger.Warn("failed to send stopping notification", zap.Error(err))
	}
	// A pending reboot keeps the hardware timer armed in case the reboot
	// command hangs.
	if h.record.Status() == model.StatusRebooting {
		return
	}
	if err := h.notifier.Close(); err != nil {
		h.logger.Warn("failed to close watchdog", zap.Error(err))
	}
}

// Tick sends one beat if the record allows it and reports whether it did.
func (h *Heartbeat) Tick() bool {
	cfg := h.store.Current()
	if !cfg.WatchdogEnabled {
		h.disarm()
		return false
	}
	now := h.now()
	rec := h.record.Snapshot()

	if reason := h.withhold(rec, now, cfg.FreezeThreshold()); reason != "" {
		if h.withheld != reason {
			h.logger.Warn("watchdog heartbeat withheld",
				zap.String("reason", reason),
				zap.String("status", rec.Status.String()),
			)
			h.withheld = reason
		}
		return false
	}
	if h.withheld != "" {
		h.logger.Info("watchdog heartbeat resumed", zap.String("status", rec.Status.String()))
		h.withheld = ""
	}

	if err := h.notifier.Beat(); err != nil {
		h.logger.Warn("watchdog heartbeat failed", zap.Error(err))
		return false
	}
	h.armed = true
	h.record.SetWatchdogBeat(now)
	h.logger.Debug("watchdog heartbeat sent")
	return true
}

// disarm closes the notifier once after watchdog_enabled was turned off, so
// an armed device timer does not reset the machine. A pending reboot keeps
// it armed.
func (h *Heartbeat) disarm() {
	if !h.armed || h.record.Status() == model.StatusRebooting {
		return
	}
	h.armed = false
	if err := h.notifier.Close(); err != nil {
		h.logger.Warn("failed to disarm watchdog", zap.Error(err))
		return
	}
	h.logger.Info("watchdog disabled by config, disarmed")
}

func (h *Heartbeat) withhold(rec model.HealthRecord, now time.Time, freeze time.Duration) string {
	if rec.Status != model.StatusHealthy && rec.Status != model.StatusDegraded {
		return "status"
	}
	last := time.Unix(rec.LastCheckTs, 0)
	if rec.LastCheckTs == 0 || now.Sub(last) > freeze {
		return "health checks stalled"
	}
	return ""
}
