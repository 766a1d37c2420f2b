package watchdog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"piview/internal/supervisor/config"
	"piview/internal/supervisor/model"
	"piview/internal/supervisor/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

var tickTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newHeartbeat(t *testing.T, notifier Notifier, mutate func(cfg *config.KioskConfig), systemd time.Duration) (*Heartbeat, *state.Record) {
	t.Helper()
	cfg := config.DefaultKioskConfig("https://dash.example")
	cfg.WatchdogEnabled = true
	cfg.WatchdogFreezeThreshold = 60
	if mutate != nil {
		mutate(&cfg)
	}
	rec := state.NewRecord("run", cfg.URL)
	h := NewHeartbeat(config.NewStaticStore("", &cfg), rec, notifier, zap.NewNop(), systemd)
	h.now = func() time.Time { return tickTime }
	return h, rec
}

func TestHeartbeat_Tick(t *testing.T) {
	testCases := []struct {
		name      string
		disabled  bool
		prepare   func(rec *state.Record)
		beatErr   error
		expectsGo bool
		expBeat   bool
	}{
		{
			name: "healthy with a fresh check",
			prepare: func(rec *state.Record) {
				rec.SetMonitorStatus(model.StatusHealthy)
				rec.MarkChecked(tickTime.Add(-10 * time.Second))
			},
			expectsGo: true,
			expBeat:   true,
		},
		{
			name: "degraded still beats",
			prepare: func(rec *state.Record) {
				rec.SetMonitorStatus(model.StatusDegraded)
				rec.MarkChecked(tickTime)
			},
			expectsGo: true,
			expBeat:   true,
		},
		{
			name:     "disabled",
			disabled: true,
			prepare: func(rec *state.Record) {
				rec.SetMonitorStatus(model.StatusHealthy)
				rec.MarkChecked(tickTime)
			},
		},
		{
			name:    "starting",
			prepare: func(rec *state.Record) { rec.MarkChecked(tickTime) },
		},
		{
			name: "failing",
			prepare: func(rec *state.Record) {
				rec.SetMonitorStatus(model.StatusFailing)
				rec.MarkChecked(tickTime)
			},
		},
		{
			name: "restarts exhausted",
			prepare: func(rec *state.Record) {
				rec.SetMonitorStatus(model.StatusHealthy)
				rec.SetRestartsExhausted(true)
				rec.MarkChecked(tickTime)
			},
		},
		{
			name: "rebooting",
			prepare: func(rec *state.Record) {
				rec.SetMonitorStatus(model.StatusHealthy)
				rec.MarkChecked(tickTime)
				rec.SetRebooting()
			},
		},
		{
			name: "health checks stalled",
			prepare: func(rec *state.Record) {
				rec.SetMonitorStatus(model.StatusHealthy)
				rec.MarkChecked(tickTime.Add(-2 * time.Minute))
			},
		},
		{
			name:    "no check completed yet",
			prepare: func(rec *state.Record) { rec.SetMonitorStatus(model.StatusHealthy) },
		},
		{
			name: "notifier error",
			prepare: func(rec *state.Record) {
				rec.SetMonitorStatus(model.StatusHealthy)
				rec.MarkChecked(tickTime)
			},
			beatErr:   errors.New("write /dev/watchdog: bad file descriptor"),
			expectsGo: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			notifier := NewMockNotifier(ctrl)
			if tc.expectsGo {
				notifier.EXPECT().Beat().Return(tc.beatErr)
			}
			h, rec := newHeartbeat(t, notifier, func(cfg *config.KioskConfig) {
				cfg.WatchdogEnabled = !tc.disabled
			}, 0)
			tc.prepare(rec)

			assert.Equal(t, tc.expBeat, h.Tick())
			if tc.expBeat {
				assert.Equal(t, tickTime.Unix(), rec.Snapshot().WatchdogLastBeatTs)
			} else {
				assert.Zero(t, rec.Snapshot().WatchdogLastBeatTs)
			}
		})
	}
}

func TestHeartbeat_StopsOnceFailing(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := NewMockNotifier(ctrl)
	notifier.EXPECT().Beat().Return(nil).Times(2)
	h, rec := newHeartbeat(t, notifier, nil, 0)
	rec.SetMonitorStatus(model.StatusHealthy)
	rec.MarkChecked(tickTime)

	assert.True(t, h.Tick())
	assert.True(t, h.Tick())
	rec.SetMonitorStatus(model.StatusFailing)
	for i := 0; i < 3; i++ {
		assert.False(t, h.Tick())
	}
}

func TestHeartbeat_DisablingDisarmsDevice(t *testing.T) {
	dir := t.TempDir()
	device := filepath.Join(dir, "watchdog")
	require.NoError(t, os.WriteFile(device, nil, 0o600))

	cfgPath := filepath.Join(dir, "config.json")
	cfg := config.DefaultKioskConfig("https://dash.example")
	cfg.WatchdogEnabled = true
	require.NoError(t, config.SaveKioskConfig(cfgPath, &cfg))
	store, err := config.NewStore(cfgPath)
	require.NoError(t, err)

	rec := state.NewRecord("run", cfg.URL)
	rec.SetMonitorStatus(model.StatusHealthy)
	rec.MarkChecked(tickTime)
	h := NewHeartbeat(store, rec, NewDeviceNotifier(device), zap.NewNop(), 0)
	h.now = func() time.Time { return tickTime }

	assert.True(t, h.Tick())
	assert.True(t, h.Tick())

	cfg.WatchdogEnabled = false
	require.NoError(t, config.SaveKioskConfig(cfgPath, &cfg))
	_, err = store.Reload()
	require.NoError(t, err)

	assert.False(t, h.Tick())
	assert.False(t, h.Tick())

	b, err := os.ReadFile(device)
	require.NoError(t, err)
	assert.Equal(t, "\x00\x00V", string(b), "magic close written exactly once")

	cfg.WatchdogEnabled = true
	require.NoError(t, config.SaveKioskConfig(cfgPath, &cfg))
	_, err = store.Reload()
	require.NoError(t, err)
	assert.True(t, h.Tick(), "re-enabling arms the device again")
}

func TestHeartbeat_DisablingKeepsDeviceArmedWhileRebooting(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := NewMockNotifier(ctrl)
	notifier.EXPECT().Beat().Return(nil)
	notifier.EXPECT().Close().Times(0)

	enabled := config.DefaultKioskConfig("https://dash.example")
	enabled.WatchdogEnabled = true
	disabled := enabled
	disabled.WatchdogEnabled = false

	rec := state.NewRecord("run", enabled.URL)
	rec.SetMonitorStatus(model.StatusHealthy)
	rec.MarkChecked(tickTime)
	h := NewHeartbeat(config.NewStaticStore("", &enabled), rec, notifier, zap.NewNop(), 0)
	h.now = func() time.Time { return tickTime }
	assert.True(t, h.Tick())

	rec.SetRebooting()
	h.store = config.NewStaticStore("", &disabled)
	assert.False(t, h.Tick())
}

func TestHeartbeat_Interval(t *testing.T) {
	testCases := []struct {
		name    string
		freeze  int
		systemd time.Duration
		exp     time.Duration
	}{
		{name: "third of the freeze threshold", freeze: 60, exp: 20 * time.Second},
		{name: "bounded by the service manager", freeze: 60, systemd: 10 * time.Second, exp: 5 * time.Second},
		{name: "service manager timeout is longer", freeze: 30, systemd: time.Minute, exp: 10 * time.Second},
		{name: "floor of one second", freeze: 2, exp: time.Second},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := newHeartbeat(t, nil, func(cfg *config.KioskConfig) {
				cfg.WatchdogFreezeThreshold = tc.freeze
			}, tc.systemd)
			assert.Equal(t, tc.exp, h.Interval())
			assert.Less(t, h.Interval(), time.Duration(tc.freeze)*time.Second)
		})
	}
}

func TestHeartbeat_Run(t *testing.T) {
	testCases := []struct {
		name      string
		rebooting bool
		setup     func(n *MockNotifier)
	}{
		{
			name: "clean shutdown closes the watchdog",
			setup: func(n *MockNotifier) {
				gomock.InOrder(
					n.EXPECT().Ready().Return(nil),
					n.EXPECT().Beat().Return(nil),
					n.EXPECT().Stopping().Return(nil),
					n.EXPECT().Close().Return(nil),
				)
			},
		},
		{
			name:      "pending reboot leaves the watchdog armed",
			rebooting: true,
			setup: func(n *MockNotifier) {
				gomock.InOrder(
					n.EXPECT().Ready().Return(nil),
					n.EXPECT().Stopping().Return(nil),
				)
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			notifier := NewMockNotifier(ctrl)
			tc.setup(notifier)
			h, rec := newHeartbeat(t, notifier, nil, 0)
			rec.SetMonitorStatus(model.StatusHealthy)
			rec.MarkChecked(tickTime)
			if tc.rebooting {
				rec.SetRebooting()
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			var sleeps []time.Duration
			h.sleep = func(ctx context.Context, d time.Duration) error {
				sleeps = append(sleeps, d)
				if len(sleeps) > 1 {
					cancel()
					return ctx.Err()
				}
				return nil
			}

			assert.NoError(t, h.Run(ctx))
			assert.Equal(t, []time.Duration{20 * time.Second, 20 * time.Second}, sleeps)
		})
	}
}
