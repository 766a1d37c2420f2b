package display

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"piview/internal/supervisor/config"
	"piview/internal/supervisor/model"
	"piview/internal/supervisor/state"
	"piview/pkg/sysexec"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type fakeRestarter struct {
	mu      sync.Mutex
	reasons []model.RestartReason
}

func (r *fakeRestarter) RequestRestart(reason model.RestartReason) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, reason)
	return true
}

func newScheduler(t *testing.T, runner sysexec.CommandRunner, pid int) (*Scheduler, *fakeRestarter) {
	t.Helper()
	cfg := config.DefaultKioskConfig("https://dash.example")
	rec := state.NewRecord("run", cfg.URL)
	if pid != 0 {
		rec.BrowserStarted(pid, time.Now(), cfg.URL)
	}
	restarter := &fakeRestarter{}
	return NewScheduler(config.NewStaticStore("", &cfg), rec, runner, restarter, zap.NewNop()), restarter
}

func TestScheduler_Keepalive(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := sysexec.NewMockCommandRunner(ctrl)
	gomock.InOrder(
		runner.EXPECT().Run(gomock.Any(), "xdotool", "mousemove_relative", "--", "1", "0").Return(nil, nil),
		runner.EXPECT().Run(gomock.Any(), "xdotool", "mousemove_relative", "--", "-1", "0").Return(nil, nil),
		runner.EXPECT().Run(gomock.Any(), "xset", "s", "reset").Return(nil, errors.New("no display")),
		runner.EXPECT().Run(gomock.Any(), "xset", "s", "off", "-dpms", "s", "noblank").Return(nil, nil),
		runner.EXPECT().Run(gomock.Any(), "tvservice", "-p").Return(nil, errors.New("executable file not found")),
	)
	s, restarter := newScheduler(t, runner, 0)

	s.Keepalive(context.Background())
	assert.Empty(t, restarter.reasons, "keepalive failures never restart the browser")
}

func TestScheduler_Refresh(t *testing.T) {
	testCases := []struct {
		name       string
		pid        int
		calls      int
		setupMocks func(r *sysexec.MockCommandRunner)
		expRestart bool
	}{
		{
			name:       "no browser running",
			setupMocks: func(r *sysexec.MockCommandRunner) {},
		},
		{
			name: "reload with F5",
			pid:  42,
			setupMocks: func(r *sysexec.MockCommandRunner) {
				r.EXPECT().LookPath("xdotool").Return("/usr/bin/xdotool", nil)
				r.EXPECT().Run(gomock.Any(), "xdotool", "key", "F5").Return(nil, nil)
			},
		},
		{
			name: "F5 fails",
			pid:  42,
			setupMocks: func(r *sysexec.MockCommandRunner) {
				r.EXPECT().LookPath("xdotool").Return("/usr/bin/xdotool", nil)
				r.EXPECT().Run(gomock.Any(), "xdotool", "key", "F5").Return(nil, &sysexec.ExitError{Command: "xdotool", ExitCode: 1})
			},
			expRestart: true,
		},
		{
			name:  "xdotool not installed",
			pid:   42,
			calls: 2,
			setupMocks: func(r *sysexec.MockCommandRunner) {
				r.EXPECT().LookPath("xdotool").Return("", errors.New("not found"))
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			runner := sysexec.NewMockCommandRunner(ctrl)
			tc.setupMocks(runner)
			s, restarter := newScheduler(t, runner, tc.pid)

			// A missing xdotool is only looked up once.
			for i := 0; i < max(tc.calls, 1); i++ {
				s.Refresh(context.Background())
			}

			if tc.expRestart {
				require.Len(t, restarter.reasons, 1)
				assert.Equal(t, model.RestartReason{Message: "page refresh failed"}, restarter.reasons[0])
				return
			}
			assert.Empty(t, restarter.reasons)
		})
	}
}

func TestScheduler_Sync(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := config.DefaultKioskConfig("https://dash.example")
	require.NoError(t, config.SaveKioskConfig(path, &cfg))
	store, err := config.NewStore(path)
	require.NoError(t, err)

	s := NewScheduler(store, state.NewRecord("run", cfg.URL), nil, &fakeRestarter{}, zap.NewNop())
	s.Sync()
	assert.Len(t, s.cron.Entries(), 2)
	refreshID := s.refreshID
	keepaliveID := s.keepaliveID

	s.Sync()
	assert.Len(t, s.cron.Entries(), 2)
	assert.Equal(t, refreshID, s.refreshID)

	cfg.RefreshInterval = 300
	require.NoError(t, config.SaveKioskConfig(path, &cfg))
	_, err = store.Reload()
	require.NoError(t, err)

	s.Sync()
	assert.Len(t, s.cron.Entries(), 2)
	assert.NotEqual(t, refreshID, s.refreshID)
	assert.Equal(t, keepaliveID, s.keepaliveID)
	assert.Equal(t, 5*time.Minute, s.refreshEvery)
}

func TestScheduler_RunStops(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := sysexec.NewMockCommandRunner(ctrl)
	runner.EXPECT().Run(gomock.Any(), "xset", "s", "off", "-dpms", "s", "noblank").Return(nil, nil)
	runner.EXPECT().Run(gomock.Any(), "tvservice", "-p").Return(nil, nil)
	s, _ := newScheduler(t, runner, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	require.Eventually(t, func() bool { return len(s.cron.Entries()) == 3 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(6 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
