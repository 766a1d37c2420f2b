package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"piview/internal/supervisor/model"
	"piview/internal/supervisor/state"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	defaultSnapshotPath = "/tmp/piview-health.json"
	snapshotPathEnv     = "HEALTH_SNAPSHOT_PATH"
	// A snapshot older than this is flagged in human output.
	staleAfter = 2 * time.Minute
)

type statusOptions struct {
	url     string
	file    string
	json    bool
	yaml    bool
	check   bool
	timeout time.Duration
	now     func() time.Time
}

func newStatusCommand() *cobra.Command {
	opts := &statusOptions{now: time.Now}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the supervisor health snapshot",
		Long: `Show the kiosk health snapshot.

By default the snapshot file written by the supervisor is read. With --url
the health endpoint is queried instead.

Examples:
  kiosk-status status
  kiosk-status status --json
  kiosk-status status --url http://kiosk-01:8088/health --check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	file := os.Getenv(snapshotPathEnv)
	if file == "" {
		file = defaultSnapshotPath
	}
	cmd.Flags().StringVar(&opts.url, "url", "", "health endpoint url, e.g. http://127.0.0.1:8088/health")
	cmd.Flags().StringVar(&opts.file, "file", file, "snapshot file written by the supervisor")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the snapshot as JSON")
	cmd.Flags().BoolVar(&opts.yaml, "yaml", false, "print the snapshot as YAML")
	cmd.Flags().BoolVar(&opts.check, "check", false, "exit non-zero when the kiosk is Failing or Rebooting")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "health endpoint request timeout")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml")
	return cmd
}

func runStatus(ctx context.Context, w io.Writer, opts *statusOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		rec model.HealthRecord
		err error
	)
	if opts.url != "" {
		rec, err = fetchHealth(ctx, opts.url, opts.timeout)
	} else {
		rec, err = state.ReadSnapshotFile(opts.file)
	}
	if err != nil {
		return err
	}

	switch {
	case opts.json:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(rec)
	case opts.yaml:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		err = enc.Encode(rec)
		if err == nil {
			err = enc.Close()
		}
	default:
		err = printHuman(w, rec, opts.now())
	}
	if err != nil {
		return fmt.Errorf("runStatus: %w", err)
	}

	if opts.check && rec.Status >= model.StatusFailing {
		return ErrUnhealthy
	}
	return nil
}

// fetchHealth reads the snapshot from the health endpoint. A 503 still
// carries the snapshot body.
func fetchHealth(ctx context.Context, url string, timeout time.Duration) (model.HealthRecord, error) {
	var rec model.HealthRecord
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return rec, fmt.Errorf("fetchHealth: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return rec, fmt.Errorf("fetchHealth: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return rec, fmt.Errorf("fetchHealth: unexpected status %s", resp.Status)
	}
	if err = json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return rec, fmt.Errorf("fetchHealth: %w", err)
	}
	return rec, nil
}

func printHuman(w io.Writer, rec model.HealthRecord, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	status := rec.Status.String()
	if rec.UpdatedTs > 0 && now.Sub(time.Unix(rec.UpdatedTs, 0)) > staleAfter {
		status += " (stale snapshot)"
	}
	browser := "stopped"
	if rec.BrowserRunning {
		browser = fmt.Sprintf("running (pid %d, up %s)", rec.BrowserPID, since(rec.BrowserStartedTs, now))
	}
	restarts := fmt.Sprintf("%d", rec.RestartCount)
	if rec.RestartsExhausted {
		restarts += " (exhausted)"
	}

	fmt.Fprintf(tw, "Status:\t%s\n", status)
	fmt.Fprintf(tw, "URL:\t%s\n", rec.URL)
	fmt.Fprintf(tw, "Browser:\t%s\n", browser)
	fmt.Fprintf(tw, "Memory:\t%.1f MB\n", rec.MemoryMB)
	fmt.Fprintf(tw, "Restarts:\t%s\n", restarts)
	fmt.Fprintf(tw, "Consecutive failures:\t%d\n", rec.ConsecutiveFailures)
	fmt.Fprintf(tw, "Network:\t%s\n", rec.NetworkState)
	fmt.Fprintf(tw, "Last success:\t%s\n", timestamp(rec.LastSuccessTs, now))
	fmt.Fprintf(tw, "Last check:\t%s\n", timestamp(rec.LastCheckTs, now))
	fmt.Fprintf(tw, "Watchdog beat:\t%s\n", timestamp(rec.WatchdogLastBeatTs, now))
	fmt.Fprintf(tw, "Disk free:\t%d MB\n", rec.DiskFreeMB)
	if rec.RunID != "" {
		fmt.Fprintf(tw, "Run:\t%s\n", rec.RunID)
	}
	return tw.Flush()
}

func timestamp(ts int64, now time.Time) string {
	if ts == 0 {
		return "never"
	}
	t := time.Unix(ts, 0)
	return fmt.Sprintf("%s (%s ago)", t.Format(time.RFC3339), since(ts, now))
}

func since(ts int64, now time.Time) string {
	if ts == 0 {
		return "unknown"
	}
	d := now.Sub(time.Unix(ts, 0)).Truncate(time.Second)
	if d < 0 {
		d = 0
	}
	return d.String()
}
