package network

import (
	"context"
	"time"

	"piview/internal/supervisor/config"
	apperrors "piview/internal/supervisor/errors"
	"piview/internal/supervisor/model"
	"piview/internal/supervisor/report"
	"piview/internal/supervisor/state"

	"go.uber.org/zap"
)

// failoverAfter is the number of consecutive failed probes that counts as a
// sustained outage.
const failoverAfter = 2

// Monitor probes the primary link and moves traffic to the wireless
// interface while the primary is down.
type Monitor struct {
	store     *config.Store
	record    *state.Record
	checker   Checker
	backend   Backend
	publisher report.Publisher
	logger    *zap.Logger
	sysRoot   string

	failures int
	current  model.NetworkState
	wifi     string
}

func NewMonitor(store *config.Store, record *state.Record, checker Checker, backend Backend, publisher report.Publisher, logger *zap.Logger, sysRoot string) *Monitor {
	if publisher == nil {
		publisher = report.NopPublisher{}
	}
	if sysRoot == "" {
		sysRoot = DefaultSysClassNet
	}
	return &Monitor{
		store:     store,
		record:    record,
		checker:   checker,
		backend:   backend,
		publisher: publisher,
		logger:    logger,
		sysRoot:   sysRoot,
		current:   model.NetworkUnknown,
	}
}

func (m *Monitor) Run(ctx context.Context) error {
	m.Tick(ctx)
	for {
		t := time.NewTimer(m.store.Current().NetworkCheckEvery())
		select {
		case <-ctx.Done():
			t.Stop()
			m.shutdown()
			return nil
		case <-t.C:
			m.Tick(ctx)
		}
	}
}

// shutdown puts the primary route back so the next boot starts clean.
func (m *Monitor) shutdown() {
	if m.current != model.NetworkFailover {
		return
	}
	ifaces := Discover(m.sysRoot, m.store.Current().FailoverWifiInterface)
	if ifaces.Ethernet == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.backend.Restore(ctx, ifaces.Ethernet); err != nil {
		m.logger.Warn("failed to restore primary route on shutdown", zap.Error(err))
	}
}

// Tick runs one probe and returns the resulting network state.
func (m *Monitor) Tick(ctx context.Context) model.NetworkState {
	cfg := m.store.Current()
	ifaces := Discover(m.sysRoot, cfg.FailoverWifiInterface)

	err := m.checker.Check(ctx, cfg.NetworkCheckAddress, ifaces.Ethernet)
	if ctx.Err() != nil {
		return m.current
	}
	if err == nil {
		m.failures = 0
		if m.current == model.NetworkFailover {
			if rerr := m.backend.Restore(ctx, ifaces.Ethernet); rerr != nil {
				m.logger.Error("failed to restore primary route", zap.String("interface", ifaces.Ethernet), zap.Error(rerr))
				return m.current
			}
			m.logger.Info("primary link recovered, failover ended", zap.String("interface", ifaces.Ethernet), zap.String("failover_interface", m.wifi))
			m.publish(model.EventNetworkRestored, "primary link recovered", ifaces.Ethernet)
		}
		m.set(model.NetworkPrimary)
		return m.current
	}

	m.failures++
	m.logger.Debug("primary link probe failed", zap.String("interface", ifaces.Ethernet), zap.Int("consecutive", m.failures), zap.Error(err))
	if m.failures < failoverAfter || m.current == model.NetworkFailover {
		return m.current
	}
	if !cfg.NetworkFailoverEnabled {
		if m.current != model.NetworkDown {
			m.logger.Warn("primary link down, failover disabled", zap.String("interface", ifaces.Ethernet), zap.Error(err))
		}
		m.set(model.NetworkDown)
		return m.current
	}
	if ifaces.Wifi == "" || ifaces.Ethernet == "" {
		if m.current != model.NetworkDown {
			m.logger.Warn("primary link down, cannot fail over",
				zap.String("interface", ifaces.Ethernet),
				zap.Error(apperrors.ErrNoFailoverInterface),
			)
		}
		m.set(model.NetworkDown)
		return m.current
	}

	m.logger.Warn("primary link down, failing over", zap.String("interface", ifaces.Ethernet), zap.String("failover_interface", ifaces.Wifi), zap.Error(err))
	if berr := m.backend.BringUp(ctx, ifaces.Wifi, cfg.FailoverWifiSSID); berr != nil {
		m.logger.Error("failed to bring up failover interface", zap.String("interface", ifaces.Wifi), zap.Error(berr))
		m.set(model.NetworkDown)
		return m.current
	}
	if derr := m.backend.Demote(ctx, ifaces.Ethernet); derr != nil {
		// Failover still helps when the wired route is already gone.
		m.logger.Warn("failed to lower primary route priority", zap.String("interface", ifaces.Ethernet), zap.Error(derr))
	}
	m.wifi = ifaces.Wifi
	m.set(model.NetworkFailover)
	m.publish(model.EventNetworkFailover, "primary link down", ifaces.Wifi)
	return m.current
}

func (m *Monitor) set(s model.NetworkState) {
	m.current = s
	if prev := m.record.SetNetwork(s); prev != s {
		m.logger.Info("network state changed", zap.String("from", string(prev)), zap.String("to", string(s)))
	}
}

func (m *Monitor) publish(typ model.EventType, msg, iface string) {
	m.publisher.Publish(model.Event{
		Type:    typ,
		Status:  m.record.Status(),
		Message: msg,
		Fields:  map[string]string{"interface": iface},
	})
}
