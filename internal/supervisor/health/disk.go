package health

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// FreeMB returns the space available to unprivileged users on the
// filesystem holding path.
func FreeMB(path string) (int64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, fmt.Errorf("FreeMB %s: %w", path, err)
	}
	return int64(st.Bavail * uint64(st.Bsize) / (1024 * 1024)), nil
}
