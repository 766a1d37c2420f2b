package metrics

import (
	"piview/internal/supervisor/model"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "piview"

type SnapshotSource interface {
	Snapshot() model.HealthRecord
}

var (
	statuses = []model.Status{
		model.StatusStarting,
		model.StatusHealthy,
		model.StatusDegraded,
		model.StatusFailing,
		model.StatusRebooting,
	}
	networkStates = []model.NetworkState{
		model.NetworkUnknown,
		model.NetworkPrimary,
		model.NetworkFailover,
		model.NetworkDown,
	}
)

// Collector exports the health record at scrape time, so the values always
// match what /health returns.
type Collector struct {
	source SnapshotSource

	status              *prometheus.Desc
	network             *prometheus.Desc
	consecutiveFailures *prometheus.Desc
	restarts            *prometheus.Desc
	restartsExhausted   *prometheus.Desc
	memory              *prometheus.Desc
	browserRunning      *prometheus.Desc
	lastSuccess         *prometheus.Desc
	lastBeat            *prometheus.Desc
	diskFree            *prometheus.Desc
}

func NewCollector(source SnapshotSource) *Collector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, nil)
	}
	return &Collector{
		source:              source,
		status:              desc("status", "Current supervisor status, 1 for the active one", "status"),
		network:             desc("network_state", "Current network state, 1 for the active one", "state"),
		consecutiveFailures: desc("consecutive_failures", "Consecutive counted failures since the last healthy check"),
		restarts:            desc("browser_restarts_total", "Browser restarts since the supervisor started"),
		restartsExhausted:   desc("browser_restarts_exhausted", "1 when the restart window is exhausted"),
		memory:              desc("browser_memory_megabytes", "Resident memory of the browser process tree"),
		browserRunning:      desc("browser_running", "1 while a browser process is running"),
		lastSuccess:         desc("last_success_timestamp_seconds", "Unix time of the last healthy check"),
		lastBeat:            desc("watchdog_last_beat_timestamp_seconds", "Unix time of the last watchdog heartbeat"),
		diskFree:            desc("disk_free_megabytes", "Free space on the log filesystem"),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.status
	ch <- c.network
	ch <- c.consecutiveFailures
	ch <- c.restarts
	ch <- c.restartsExhausted
	ch <- c.memory
	ch <- c.browserRunning
	ch <- c.lastSuccess
	ch <- c.lastBeat
	ch <- c.diskFree
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	rec := c.source.Snapshot()

	for _, s := range statuses {
		ch <- prometheus.MustNewConstMetric(c.status, prometheus.GaugeValue, flag(rec.Status == s), s.String())
	}
	for _, s := range networkStates {
		ch <- prometheus.MustNewConstMetric(c.network, prometheus.GaugeValue, flag(rec.NetworkState == s), string(s))
	}
	ch <- prometheus.MustNewConstMetric(c.consecutiveFailures, prometheus.GaugeValue, float64(rec.ConsecutiveFailures))
	ch <- prometheus.MustNewConstMetric(c.restarts, prometheus.CounterValue, float64(rec.RestartCount))
	ch <- prometheus.MustNewConstMetric(c.restartsExhausted, prometheus.GaugeValue, flag(rec.RestartsExhausted))
	ch <- prometheus.MustNewConstMetric(c.memory, prometheus.GaugeValue, rec.MemoryMB)
	ch <- prometheus.MustNewConstMetric(c.browserRunning, prometheus.GaugeValue, flag(rec.BrowserRunning))
	ch <- prometheus.MustNewConstMetric(c.lastSuccess, prometheus.GaugeValue, float64(rec.LastSuccessTs))
	ch <- prometheus.MustNewConstMetric(c.lastBeat, prometheus.GaugeValue, float64(rec.WatchdogLastBeatTs))
	ch <- prometheus.MustNewConstMetric(c.diskFree, prometheus.GaugeValue, float64(rec.DiskFreeMB))
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
