package browser

import (
	"context"
	"errors"
	"fmt"

	"piview/internal/supervisor/config"
	"piview/pkg/sysexec"
)

// KillStale terminates browsers left behind by a previous supervisor run.
// They run in their own process group and survive the supervisor, so they
// are matched by the profile directory on their command line.
func KillStale(ctx context.Context, runner sysexec.CommandRunner, cfg *config.KioskConfig) (bool, error) {
	_, err := runner.Run(ctx, "pkill", "-TERM", "-f", "--", "--user-data-dir="+cfg.UserDataDir())
	if err == nil {
		return true, nil
	}
	var exitErr *sysexec.ExitError
	// pkill exits with 1 when nothing matched.
	if errors.As(err, &exitErr) && exitErr.ExitCode == 1 {
		return false, nil
	}
	return false, fmt.Errorf("KillStale: %w", err)
}
