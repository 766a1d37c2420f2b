package model

import "time"

// FailureKind classifies a failure observed by the supervisor.
type FailureKind string

const (
	FailureLaunch             FailureKind = "LaunchFailure"
	FailureCrashExit          FailureKind = "CrashExit"
	FailureStallTimeout       FailureKind = "StallTimeout"
	FailureNetworkUnreachable FailureKind = "NetworkUnreachable"
	FailureMemoryExceeded     FailureKind = "MemoryExceeded"
	FailureRebootTriggered    FailureKind = "RebootTriggered"
	FailureHealthCheck        FailureKind = "HealthCheckFailing"
	FailureRestartsExhausted  FailureKind = "RestartsExhausted"
)

// Counted reports whether the kind moves the consecutive failure counter.
// Memory reclamation and plain network loss are recovered locally.
func (k FailureKind) Counted() bool {
	switch k {
	case FailureMemoryExceeded, FailureNetworkUnreachable, FailureRebootTriggered:
		return false
	default:
		return true
	}
}

// ExitEvent describes how a browser process ended.
type ExitEvent struct {
	PID       int           `json:"pid"`
	Code      int           `json:"code"`
	Signal    string        `json:"signal,omitempty"`
	Crashed   bool          `json:"crashed"`
	Requested bool          `json:"requested"`
	Uptime    time.Duration `json:"uptime"`
	Err       error         `json:"-"`
}

// RestartReason is why a running browser is deliberately restarted.
type RestartReason struct {
	Kind    FailureKind
	Message string
}

type EventType string

const (
	EventBrowserStarted   EventType = "browser_started"
	EventBrowserExited    EventType = "browser_exited"
	EventBrowserRestart   EventType = "browser_restart"
	EventStatusTransition EventType = "status_transition"
	EventNetworkFailover  EventType = "network_failover"
	EventNetworkRestored  EventType = "network_restored"
	EventRebootDecision   EventType = "reboot_decision"
	EventConfigReloaded   EventType = "config_reloaded"
)

// Event is a fleet-level record of something the supervisor did.
type Event struct {
	ID      string            `json:"id"`
	RunID   string            `json:"run_id"`
	Host    string            `json:"host"`
	Type    EventType         `json:"type"`
	Time    time.Time         `json:"time"`
	Status  Status            `json:"status"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}
