package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"piview/internal/supervisor/model"
)

// Record is the single synchronization point for the shared HealthRecord.
// Writers own disjoint field groups: the browser keeper owns the process
// fields, the network monitor the network state, the health monitor the
// aggregated status. Readers get a copy taken under the same lock.
type Record struct {
	mu sync.RWMutex

	monitorStatus     model.Status
	rebooting         bool
	restartsExhausted bool

	lastSuccess         time.Time
	lastCheck           time.Time
	consecutiveFailures int
	restartCount        int
	memoryMB            float64
	network             model.NetworkState
	watchdogLastBeat    time.Time
	diskFreeMB          int64

	browserRunning bool
	browserPID     int
	browserStarted time.Time

	url   string
	runID string
	now   func() time.Time
}

func NewRecord(runID string, url string) *Record {
	return &Record{
		monitorStatus: model.StatusStarting,
		network:       model.NetworkUnknown,
		runID:         runID,
		url:           url,
		now:           time.Now,
	}
}

// effective must be called with mu held.
func (r *Record) effective() model.Status {
	if r.rebooting {
		return model.StatusRebooting
	}
	s := r.monitorStatus
	if r.restartsExhausted {
		s = model.Max(s, model.StatusFailing)
	}
	return s
}

func (r *Record) Status() model.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.effective()
}

// Snapshot returns a consistent copy of every field.
func (r *Record) Snapshot() model.HealthRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec := model.HealthRecord{
		Status:              r.effective(),
		LastSuccessTs:       model.Unix(r.lastSuccess),
		ConsecutiveFailures: r.consecutiveFailures,
		RestartCount:        r.restartCount,
		MemoryMB:            r.memoryMB,
		NetworkState:        r.network,
		WatchdogLastBeatTs:  model.Unix(r.watchdogLastBeat),
		BrowserRunning:      r.browserRunning,
		RestartsExhausted:   r.restartsExhausted,
		LastCheckTs:         model.Unix(r.lastCheck),
		DiskFreeMB:          r.diskFreeMB,
		URL:                 r.url,
		RunID:               r.runID,
		UpdatedTs:           r.now().Unix(),
	}
	if r.browserRunning {
		rec.BrowserPID = r.browserPID
		rec.BrowserStartedTs = model.Unix(r.browserStarted)
	}
	return rec
}

// SetMonitorStatus records the status computed by the health monitor and
// returns the effective status before and after the change. Once rebooting,
// the status is frozen.
func (r *Record) SetMonitorStatus(s model.Status) (prev, cur model.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev = r.effective()
	if !r.rebooting {
		r.monitorStatus = s
	}
	return prev, r.effective()
}

// SetRebooting enters the terminal Rebooting state. It reports whether this
// call made the transition.
func (r *Record) SetRebooting() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rebooting {
		return false
	}
	r.rebooting = true
	return true
}

func (r *Record) BrowserStarted(pid int, at time.Time, url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.browserRunning = true
	r.browserPID = pid
	r.browserStarted = at
	if url != "" {
		r.url = url
	}
}

func (r *Record) BrowserStopped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.browserRunning = false
	r.browserPID = 0
	r.memoryMB = 0
}

// BrowserPID returns the running browser pid, or 0.
func (r *Record) BrowserPID() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.browserRunning {
		return 0
	}
	return r.browserPID
}

func (r *Record) IncRestart() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.restartCount++
	return r.restartCount
}

// SetRestartsExhausted raises a Failing floor while set; the keeper clears it
// after a stable run.
func (r *Record) SetRestartsExhausted(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.restartsExhausted = v
}

func (r *Record) SetMemory(mb float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memoryMB = mb
}

func (r *Record) SetNetwork(s model.NetworkState) model.NetworkState {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.network
	r.network = s
	return prev
}

func (r *Record) SetWatchdogBeat(at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchdogLastBeat = at
}

func (r *Record) SetConsecutiveFailures(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consecutiveFailures = n
}

func (r *Record) MarkSuccess(at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastSuccess = at
}

func (r *Record) MarkChecked(at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastCheck = at
}

// LastCheck returns when the health monitor last completed a tick.
func (r *Record) LastCheck() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastCheck
}

func (r *Record) SetDiskFree(mb int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diskFreeMB = mb
}

// WriteSnapshotFile atomically replaces path with rec as JSON, so a reader
// never sees a partial file.
func WriteSnapshotFile(path string, rec model.HealthRecord) error {
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("WriteSnapshotFile: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".piview-health-*.json")
	if err != nil {
		return fmt.Errorf("WriteSnapshotFile: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err = tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("WriteSnapshotFile: %w", err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("WriteSnapshotFile: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("WriteSnapshotFile: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("WriteSnapshotFile: %w", err)
	}
	return nil
}

// ReadSnapshotFile reads a snapshot written by WriteSnapshotFile.
func ReadSnapshotFile(path string) (model.HealthRecord, error) {
	var rec model.HealthRecord
	b, err := os.ReadFile(path)
	if err != nil {
		return rec, fmt.Errorf("ReadSnapshotFile: %w", err)
	}
	if err = json.Unmarshal(b, &rec); err != nil {
		return rec, fmt.Errorf("ReadSnapshotFile: %w", err)
	}
	return rec, nil
}
