package state

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"piview/internal/supervisor/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_EffectiveStatus(t *testing.T) {
	testCases := []struct {
		name      string
		setup     func(r *Record)
		expStatus model.Status
	}{
		{
			name:      "starts in Starting",
			setup:     func(r *Record) {},
			expStatus: model.StatusStarting,
		},
		{
			name: "monitor status is published",
			setup: func(r *Record) {
				r.SetMonitorStatus(model.StatusDegraded)
			},
			expStatus: model.StatusDegraded,
		},
		{
			name: "exhausted restarts raise Healthy to Failing",
			setup: func(r *Record) {
				r.SetMonitorStatus(model.StatusHealthy)
				r.SetRestartsExhausted(true)
			},
			expStatus: model.StatusFailing,
		},
		{
			name: "clearing exhaustion drops the floor",
			setup: func(r *Record) {
				r.SetMonitorStatus(model.StatusHealthy)
				r.SetRestartsExhausted(true)
				r.SetRestartsExhausted(false)
			},
			expStatus: model.StatusHealthy,
		},
		{
			name: "rebooting is terminal",
			setup: func(r *Record) {
				r.SetRebooting()
				r.SetMonitorStatus(model.StatusHealthy)
			},
			expStatus: model.StatusRebooting,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRecord("run", "https://dash.example")
			tc.setup(r)
			assert.Equal(t, tc.expStatus, r.Status())
			assert.Equal(t, tc.expStatus, r.Snapshot().Status)
		})
	}
}

func TestRecord_SetMonitorStatusTransitions(t *testing.T) {
	r := NewRecord("run", "")
	prev, cur := r.SetMonitorStatus(model.StatusHealthy)
	assert.Equal(t, model.StatusStarting, prev)
	assert.Equal(t, model.StatusHealthy, cur)

	assert.True(t, r.SetRebooting())
	assert.False(t, r.SetRebooting())

	prev, cur = r.SetMonitorStatus(model.StatusHealthy)
	assert.Equal(t, model.StatusRebooting, prev)
	assert.Equal(t, model.StatusRebooting, cur)
}

func TestRecord_BrowserFields(t *testing.T) {
	r := NewRecord("run", "https://a.example")
	started := time.Unix(1700000000, 0)
	r.BrowserStarted(4242, started, "https://b.example")
	r.SetMemory(312.5)

	snap := r.Snapshot()
	assert.True(t, snap.BrowserRunning)
	assert.Equal(t, 4242, snap.BrowserPID)
	assert.Equal(t, started.Unix(), snap.BrowserStartedTs)
	assert.Equal(t, "https://b.example", snap.URL)
	assert.Equal(t, 312.5, snap.MemoryMB)
	assert.Equal(t, 4242, r.BrowserPID())

	r.BrowserStopped()
	snap = r.Snapshot()
	assert.False(t, snap.BrowserRunning)
	assert.Zero(t, snap.BrowserPID)
	assert.Zero(t, snap.MemoryMB)
	assert.Zero(t, r.BrowserPID())
}

func TestRecord_ConcurrentSnapshotsAreConsistent(t *testing.T) {
	r := NewRecord("run", "")
	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			r.BrowserStarted(i+1, time.Now(), "")
			r.IncRestart()
			r.BrowserStopped()
		}
	}()

	for i := 0; i < 1000; i++ {
		snap := r.Snapshot()
		if !snap.BrowserRunning {
			assert.Zero(t, snap.BrowserPID)
		} else {
			assert.NotZero(t, snap.BrowserPID)
		}
	}
	close(stop)
	wg.Wait()
}

func TestWriteSnapshotFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "piview-health.json")
	r := NewRecord("run-1", "https://dash.example")
	r.SetMonitorStatus(model.StatusDegraded)
	r.SetNetwork(model.NetworkFailover)
	r.SetConsecutiveFailures(2)

	require.NoError(t, WriteSnapshotFile(path, r.Snapshot()))
	rec, err := ReadSnapshotFile(path)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDegraded, rec.Status)
	assert.Equal(t, model.NetworkFailover, rec.NetworkState)
	assert.Equal(t, 2, rec.ConsecutiveFailures)
	assert.Equal(t, "run-1", rec.RunID)
}
