package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"piview/internal/supervisor/browser"
	"piview/internal/supervisor/config"
	apperrors "piview/internal/supervisor/errors"
	"piview/internal/supervisor/model"
	"piview/internal/supervisor/report"
	"piview/internal/supervisor/state"

	"go.uber.org/zap"
)

type Restarter interface {
	RequestRestart(reason model.RestartReason) bool
}

type Ledger interface {
	RecordFailure(kind model.FailureKind) int
	RecordSuccess()
	Evaluate(ctx context.Context, reason string) bool
}

type XChecker interface {
	Check(ctx context.Context) error
}

type SnapshotSink interface {
	Snapshot(rec model.HealthRecord, interval time.Duration)
}

type MonitorOption func(*Monitor)

func WithXChecker(x XChecker) MonitorOption {
	return func(m *Monitor) { m.x = x }
}

func WithSnapshotSink(sink SnapshotSink) MonitorOption {
	return func(m *Monitor) { m.sink = sink }
}

// WithSnapshotFile makes every tick write the record to path.
func WithSnapshotFile(path string) MonitorOption {
	return func(m *Monitor) { m.snapshotPath = path }
}

// WithDiskPath sets the directory whose filesystem is checked for free space.
func WithDiskPath(path string) MonitorOption {
	return func(m *Monitor) { m.diskPath = path }
}

// Monitor aggregates browser liveness, memory, responsiveness and target
// reachability into the record's status once per health_check_interval.
type Monitor struct {
	store     *config.Store
	record    *state.Record
	prober    Prober
	inspector browser.Inspector
	restarter Restarter
	ledger    Ledger
	publisher report.Publisher
	logger    *zap.Logger

	x            XChecker
	sink         SnapshotSink
	snapshotPath string
	diskPath     string

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func NewMonitor(store *config.Store, record *state.Record, prober Prober, inspector browser.Inspector, restarter Restarter, ledger Ledger, publisher report.Publisher, logger *zap.Logger, opts ...MonitorOption) *Monitor {
	if publisher == nil {
		publisher = report.NopPublisher{}
	}
	m := &Monitor{
		store:     store,
		record:    record,
		prober:    prober,
		inspector: inspector,
		restarter: restarter,
		ledger:    ledger,
		publisher: publisher,
		logger:    logger,
		sleep:     sleepCtx,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
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

func (m *Monitor) Run(ctx context.Context) error {
	for {
		if err := m.sleep(ctx, m.store.Current().HealthCheckEvery()); err != nil {
			return nil
		}
		m.Tick(ctx)
	}
}

// Tick runs one health evaluation and returns the status it computed.
func (m *Monitor) Tick(ctx context.Context) model.Status {
	cfg := m.store.Current()
	status := model.StatusHealthy
	var restart *model.RestartReason

	pid := m.record.BrowserPID()
	if pid == 0 {
		// Between a crash and the relaunch the keeper still owns recovery;
		// a dead browser is a failure only once its restart budget is spent.
		if m.record.Snapshot().RestartsExhausted {
			status = model.StatusFailing
			m.logger.Warn("browser not running, restarts exhausted")
		} else {
			status = model.StatusDegraded
			m.logger.Info("browser not running, relaunch pending")
		}
	} else {
		status, restart = m.checkProcess(ctx, cfg, pid)
	}

	if !m.probe(ctx, cfg, status) {
		status = model.StatusFailing
		if restart == nil && pid != 0 {
			restart = &model.RestartReason{Kind: model.FailureNetworkUnreachable, Message: "target unreachable after all retries"}
		}
	}
	if ctx.Err() != nil {
		return m.record.Status()
	}

	m.setStatus(status)
	switch status {
	case model.StatusHealthy:
		m.ledger.RecordSuccess()
		m.record.MarkSuccess(m.now())
	case model.StatusFailing:
		m.ledger.RecordFailure(model.FailureHealthCheck)
		m.ledger.Evaluate(ctx, "health check failing")
	}
	if restart != nil {
		m.restarter.RequestRestart(*restart)
	}

	m.ancillary(ctx, cfg)
	return status
}

func (m *Monitor) checkProcess(ctx context.Context, cfg *config.KioskConfig, pid int) (model.Status, *model.RestartReason) {
	status := model.StatusHealthy
	var restart *model.RestartReason

	mem, err := m.inspector.MemoryMB(pid)
	if err != nil {
		m.logger.Debug("failed to sample browser memory", zap.Int("pid", pid), zap.Error(err))
	} else {
		m.record.SetMemory(mem)
		if mem > float64(cfg.MemoryLimitMB) {
			status = model.StatusDegraded
			restart = &model.RestartReason{
				Kind:    model.FailureMemoryExceeded,
				Message: fmt.Sprintf("browser memory %.0fMB over limit %dMB", mem, cfg.MemoryLimitMB),
			}
			m.logger.Warn("browser memory over limit",
				zap.String("kind", string(model.FailureMemoryExceeded)),
				zap.Float64("memory_mb", mem),
				zap.Int("memory_limit_mb", cfg.MemoryLimitMB),
			)
		}
	}

	if err = m.inspector.Responsive(ctx, pid, cfg.RemoteDebuggingPort); err != nil {
		if errors.Is(err, apperrors.ErrBrowserStalled) {
			m.logger.Error("browser stalled", zap.String("kind", string(model.FailureStallTimeout)), zap.Int("pid", pid), zap.Error(err))
			return model.StatusFailing, &model.RestartReason{Kind: model.FailureStallTimeout, Message: err.Error()}
		}
		m.logger.Debug("failed to inspect browser", zap.Int("pid", pid), zap.Error(err))
	}
	return status, restart
}

// probe tries the target up to max_connection_retries times. The first
// failed attempt publishes Degraded; a single summary line is logged when
// every attempt failed.
func (m *Monitor) probe(ctx context.Context, cfg *config.KioskConfig, current model.Status) bool {
	attempts := cfg.MaxConnectionRetries
	var last ProbeResult
	for attempt := 1; attempt <= attempts; attempt++ {
		res, err := m.prober.Probe(ctx, cfg.URL, cfg.IgnoreSSLErrors)
		if err != nil {
			m.logger.Error("cannot probe target", zap.String("url", cfg.URL), zap.Error(fmt.Errorf("Monitor.probe: %w", err)))
			return false
		}
		if res.Reachable() {
			return true
		}
		last = res
		m.logger.Debug("probe attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("status_code", res.StatusCode),
			zap.Bool("dns_failed", res.DNSFailed),
			zap.Error(res.Err),
		)
		if attempt == 1 {
			m.setStatus(model.Max(current, model.StatusDegraded))
		}
		if attempt < attempts {
			if m.sleep(ctx, cfg.RetryDelay()) != nil {
				return false
			}
		}
	}

	fields := []zap.Field{
		zap.String("kind", string(model.FailureNetworkUnreachable)),
		zap.String("url", cfg.URL),
		zap.Int("attempts", attempts),
		zap.Int("status_code", last.StatusCode),
		zap.Bool("dns_failed", last.DNSFailed),
		zap.Bool("connection_refused", last.Refused),
	}
	if last.Err != nil {
		fields = append(fields, zap.Error(last.Err))
	}
	m.logger.Warn("target unreachable", fields...)
	return false
}

func (m *Monitor) setStatus(s model.Status) {
	prev, cur := m.record.SetMonitorStatus(s)
	if prev == cur {
		return
	}
	m.logger.Info("status transition", zap.String("from", prev.String()), zap.String("to", cur.String()))
	m.publisher.Publish(model.Event{
		Type:    model.EventStatusTransition,
		Status:  cur,
		Message: prev.String() + " -> " + cur.String(),
	})
}

func (m *Monitor) ancillary(ctx context.Context, cfg *config.KioskConfig) {
	if m.x != nil {
		if err := m.x.Check(ctx); err != nil {
			m.logger.Warn("X server check failed", zap.Error(err))
		}
	}
	if m.diskPath != "" {
		free, err := FreeMB(m.diskPath)
		if err != nil {
			m.logger.Debug("failed to read free disk space", zap.Error(err))
		} else {
			m.record.SetDiskFree(free)
			if free < int64(cfg.DiskSpaceWarningMB) {
				m.logger.Warn("low disk space", zap.String("path", m.diskPath), zap.Int64("free_mb", free), zap.Int("warning_mb", cfg.DiskSpaceWarningMB))
			}
		}
	}

	m.record.MarkChecked(m.now())
	rec := m.record.Snapshot()
	if m.snapshotPath != "" {
		if err := state.WriteSnapshotFile(m.snapshotPath, rec); err != nil {
			m.logger.Warn("failed to write health snapshot", zap.Error(err))
		}
	}
	if m.sink != nil {
		m.sink.Snapshot(rec, cfg.HealthCheckEvery())
	}
}
