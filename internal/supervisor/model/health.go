package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the overall supervisor status. Higher values take precedence.
type Status int

const (
	StatusStarting Status = iota
	StatusHealthy
	StatusDegraded
	StatusFailing
	StatusRebooting
)

func (s Status) String() string {
	switch s {
	case StatusStarting:
		return "Starting"
	case StatusHealthy:
		return "Healthy"
	case StatusDegraded:
		return "Degraded"
	case StatusFailing:
		return "Failing"
	case StatusRebooting:
		return "Rebooting"
	default:
		return "Unknown"
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	parsed, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Status) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

func ParseStatus(name string) (Status, error) {
	for s := StatusStarting; s <= StatusRebooting; s++ {
		if s.String() == name {
			return s, nil
		}
	}
	return StatusStarting, fmt.Errorf("unknown status %q", name)
}

// Max returns the status with the higher precedence.
func Max(a, b Status) Status {
	if a > b {
		return a
	}
	return b
}

type NetworkState string

const (
	NetworkUnknown  NetworkState = "unknown"
	NetworkPrimary  NetworkState = "primary"
	NetworkFailover NetworkState = "failover"
	NetworkDown     NetworkState = "down"
)

// HealthRecord is the snapshot served by the health endpoint and written to
// the snapshot file. Timestamps are unix seconds, zero when never set.
type HealthRecord struct {
	Status              Status       `json:"status" yaml:"status"`
	LastSuccessTs       int64        `json:"last_success_ts" yaml:"last_success_ts"`
	ConsecutiveFailures int          `json:"consecutive_failures" yaml:"consecutive_failures"`
	RestartCount        int          `json:"restart_count" yaml:"restart_count"`
	MemoryMB            float64      `json:"memory_mb" yaml:"memory_mb"`
	NetworkState        NetworkState `json:"network_state" yaml:"network_state"`
	WatchdogLastBeatTs  int64        `json:"watchdog_last_beat_ts" yaml:"watchdog_last_beat_ts"`

	BrowserRunning    bool   `json:"browser_running" yaml:"browser_running"`
	BrowserPID        int    `json:"browser_pid,omitempty" yaml:"browser_pid,omitempty"`
	BrowserStartedTs  int64  `json:"browser_started_ts,omitempty" yaml:"browser_started_ts,omitempty"`
	RestartsExhausted bool   `json:"restarts_exhausted" yaml:"restarts_exhausted"`
	LastCheckTs       int64  `json:"last_check_ts" yaml:"last_check_ts"`
	DiskFreeMB        int64  `json:"disk_free_mb" yaml:"disk_free_mb"`
	URL               string `json:"url" yaml:"url"`
	RunID             string `json:"run_id" yaml:"run_id"`
	UpdatedTs         int64  `json:"updated_ts" yaml:"updated_ts"`
}

// Unix converts t to unix seconds, keeping the zero time as 0.
func Unix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
