package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"piview/internal/supervisor/config"
	apperrors "piview/internal/supervisor/errors"
	"piview/internal/supervisor/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSafeLoop(t *testing.T) {
	testCases := []struct {
		name string
		fail func(n int32) error
	}{
		{
			name: "panic",
			fail: func(n int32) error { panic(fmt.Sprintf("boom %d", n)) },
		},
		{
			name: "error",
			fail: func(n int32) error { return errors.New("broken") },
		},
		{
			name: "early return",
			fail: func(n int32) error { return nil },
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			var runs atomic.Int32
			l := loop{name: tc.name, run: func(ctx context.Context) error {
				n := runs.Add(1)
				if n < 3 {
					return tc.fail(n)
				}
				<-ctx.Done()
				return nil
			}}

			done := make(chan error, 1)
			go func() { done <- safeLoop(ctx, l, zap.NewNop(), time.Millisecond) }()
			require.Eventually(t, func() bool { return runs.Load() == 3 }, time.Second, time.Millisecond)
			cancel()
			assert.NoError(t, <-done)
		})
	}
}

func TestSafeLoop_CancelDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := loop{name: "broken", run: func(ctx context.Context) error {
		cancel()
		return errors.New("broken")
	}}
	assert.NoError(t, safeLoop(ctx, l, zap.NewNop(), time.Hour))
}

func TestAcquireLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "supervisor.lock")
	first, err := acquireLock(path)
	require.NoError(t, err)

	_, err = acquireLock(path)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyRunning)

	require.NoError(t, first.release())
	second, err := acquireLock(path)
	require.NoError(t, err)
	assert.NoError(t, second.release())
	assert.NoError(t, second.release())
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func testConfig(t *testing.T) (config.AppConfig, int) {
	t.Helper()
	dir := t.TempDir()
	kiosk := config.DefaultKioskConfig("http://127.0.0.1:1/")
	kiosk.Browser = filepath.Join(dir, "no-such-browser")
	kiosk.HealthEndpointPort = freePort(t)
	kiosk.KioskFlags = []string{"--kiosk", "--user-data-dir=" + filepath.Join(dir, "profile")}
	kiosk.NetworkCheckAddress = "127.0.0.1:1"
	path := filepath.Join(dir, "config.json")
	require.NoError(t, config.SaveKioskConfig(path, &kiosk))

	var cfg config.AppConfig
	cfg.Server.KioskConfigPath = path
	cfg.Server.LockFile = filepath.Join(dir, "supervisor.lock")
	cfg.Server.SnapshotPath = filepath.Join(dir, "health.json")
	cfg.Server.LogFile = filepath.Join(dir, "piview.log")
	cfg.Server.HealthBindAddress = "127.0.0.1"
	cfg.Server.HealthMaxConns = 4
	cfg.Server.HealthRateLimit = 50
	cfg.Server.RebootCommand = "true"
	cfg.Browser.StopTimeout = time.Second
	cfg.Browser.LaunchTimeout = 2 * time.Second
	cfg.Browser.Display = ":99"
	cfg.Browser.XAuthority = filepath.Join(dir, "xauth")
	cfg.Redis.KeyPrefix = "kiosk:health:"
	return cfg, kiosk.HealthEndpointPort
}

func TestNew_Errors(t *testing.T) {
	t.Run("missing kiosk config", func(t *testing.T) {
		cfg, _ := testConfig(t)
		cfg.Server.KioskConfigPath = filepath.Join(t.TempDir(), "absent.json")
		_, err := New(Options{Config: cfg, Logger: zap.NewNop()})
		assert.ErrorIs(t, err, apperrors.ErrConfigNotFound)
	})
	t.Run("second instance", func(t *testing.T) {
		cfg, _ := testConfig(t)
		first, err := New(Options{Config: cfg, Logger: zap.NewNop()})
		require.NoError(t, err)
		defer first.close()

		_, err = New(Options{Config: cfg, Logger: zap.NewNop()})
		assert.ErrorIs(t, err, apperrors.ErrAlreadyRunning)
	})
}

func TestApp_RunServesHealthAndStops(t *testing.T) {
	cfg, port := testConfig(t)
	a, err := New(Options{Config: cfg, Logger: zap.NewNop()})
	require.NoError(t, err)
	assert.Equal(t, model.StatusStarting, a.Record().Status())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/health", port)
	var body model.HealthRecord
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return json.NewDecoder(resp.Body).Decode(&body) == nil
	}, 10*time.Second, 50*time.Millisecond)
	assert.Equal(t, "http://127.0.0.1:1/", body.URL)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(20 * time.Second):
		t.Fatal("supervisor did not stop")
	}

	// The instance lock is released on exit.
	l, err := acquireLock(cfg.Server.LockFile)
	require.NoError(t, err)
	assert.NoError(t, l.release())
}
