package metrics

import (
	"strings"
	"testing"
	"time"

	"piview/internal/supervisor/model"
	"piview/internal/supervisor/state"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	rec := state.NewRecord("run", "https://dash.example")
	rec.SetMonitorStatus(model.StatusDegraded)
	rec.SetNetwork(model.NetworkFailover)
	rec.BrowserStarted(42, time.Now(), "https://dash.example")
	rec.SetMemory(312.5)
	rec.IncRestart()
	rec.IncRestart()
	rec.SetConsecutiveFailures(3)

	expected := `
# HELP piview_browser_memory_megabytes Resident memory of the browser process tree
# TYPE piview_browser_memory_megabytes gauge
piview_browser_memory_megabytes 312.5
# HELP piview_browser_restarts_total Browser restarts since the supervisor started
# TYPE piview_browser_restarts_total counter
piview_browser_restarts_total 2
# HELP piview_consecutive_failures Consecutive counted failures since the last healthy check
# TYPE piview_consecutive_failures gauge
piview_consecutive_failures 3
# HELP piview_network_state Current network state, 1 for the active one
# TYPE piview_network_state gauge
piview_network_state{state="down"} 0
piview_network_state{state="failover"} 1
piview_network_state{state="primary"} 0
piview_network_state{state="unknown"} 0
# HELP piview_status Current supervisor status, 1 for the active one
# TYPE piview_status gauge
piview_status{status="Degraded"} 1
piview_status{status="Failing"} 0
piview_status{status="Healthy"} 0
piview_status{status="Rebooting"} 0
piview_status{status="Starting"} 0
`
	err := testutil.CollectAndCompare(NewCollector(rec), strings.NewReader(expected),
		"piview_browser_memory_megabytes",
		"piview_browser_restarts_total",
		"piview_consecutive_failures",
		"piview_network_state",
		"piview_status",
	)
	require.NoError(t, err)
	assert.Equal(t, 17, testutil.CollectAndCount(NewCollector(rec)))
}

func TestCollector_FollowsRecord(t *testing.T) {
	rec := state.NewRecord("run", "https://dash.example")
	c := NewCollector(rec)

	rec.SetMonitorStatus(model.StatusHealthy)
	rec.SetRebooting()

	expected := `
# HELP piview_status Current supervisor status, 1 for the active one
# TYPE piview_status gauge
piview_status{status="Degraded"} 0
piview_status{status="Failing"} 0
piview_status{status="Healthy"} 0
piview_status{status="Rebooting"} 1
piview_status{status="Starting"} 0
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "piview_status"))
}

func TestNewRegistry(t *testing.T) {
	rec := state.NewRecord("run", "https://dash.example")
	reg, hm := NewRegistry(rec, func() int64 { return 7 })
	hm.Observe("GET", "/health", "200", 3*time.Millisecond)
	hm.Observe("GET", "/health", "503", time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, n := range []string{
		"piview_status",
		"piview_http_requests_total",
		"piview_http_request_duration_seconds",
		"piview_report_events_dropped_total",
		"go_goroutines",
	} {
		assert.True(t, names[n], n)
	}

	expected := `
# HELP piview_report_events_dropped_total Fleet events dropped because the report buffer was full
# TYPE piview_report_events_dropped_total counter
piview_report_events_dropped_total 7
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "piview_report_events_dropped_total"))
	assert.Equal(t, 2, testutil.CollectAndCount(hm.requests))
}
