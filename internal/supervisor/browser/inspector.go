package browser

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	apperrors "piview/internal/supervisor/errors"

	"github.com/prometheus/procfs"
)

const devtoolsTimeout = 3 * time.Second

// Inspector looks at a running browser from the outside.
type Inspector interface {
	// MemoryMB returns the resident memory of pid and all its descendants.
	MemoryMB(pid int) (float64, error)
	// Responsive returns an error wrapping ErrBrowserStalled when the
	// browser is alive but not making progress.
	Responsive(ctx context.Context, pid int, debugPort int) error
}

type procInspector struct {
	fs     procfs.FS
	client *http.Client
}

func NewInspector(procRoot string) (Inspector, error) {
	if procRoot == "" {
		procRoot = procfs.DefaultMountPoint
	}
	fs, err := procfs.NewFS(procRoot)
	if err != nil {
		return nil, fmt.Errorf("NewInspector: %w", err)
	}
	return &procInspector{
		fs:     fs,
		client: &http.Client{Timeout: devtoolsTimeout},
	}, nil
}

func (i *procInspector) MemoryMB(pid int) (float64, error) {
	root, err := i.fs.Proc(pid)
	if err != nil {
		return 0, fmt.Errorf("Inspector.MemoryMB: %w", err)
	}
	rootStat, err := root.Stat()
	if err != nil {
		return 0, fmt.Errorf("Inspector.MemoryMB: %w", err)
	}
	total := rootStat.ResidentMemory()

	procs, err := i.fs.AllProcs()
	if err != nil {
		return float64(total) / (1024 * 1024), nil
	}
	children := make(map[int][]int)
	rss := make(map[int]int, len(procs))
	for _, p := range procs {
		st, err := p.Stat()
		if err != nil {
			continue
		}
		children[st.PPID] = append(children[st.PPID], p.PID)
		rss[p.PID] = st.ResidentMemory()
	}
	queue := append([]int(nil), children[pid]...)
	seen := map[int]bool{pid: true}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if seen[next] {
			continue
		}
		seen[next] = true
		total += rss[next]
		queue = append(queue, children[next]...)
	}
	return float64(total) / (1024 * 1024), nil
}

func (i *procInspector) Responsive(ctx context.Context, pid int, debugPort int) error {
	p, err := i.fs.Proc(pid)
	if err != nil {
		return fmt.Errorf("Inspector.Responsive: %w", err)
	}
	st, err := p.Stat()
	if err != nil {
		return fmt.Errorf("Inspector.Responsive: %w", err)
	}
	switch st.State {
	case "Z":
		return fmt.Errorf("Inspector.Responsive pid %d is a zombie: %w", pid, apperrors.ErrBrowserStalled)
	case "T", "t":
		return fmt.Errorf("Inspector.Responsive pid %d is stopped: %w", pid, apperrors.ErrBrowserStalled)
	}
	if debugPort <= 0 {
		return nil
	}

	url := "http://127.0.0.1:" + strconv.Itoa(debugPort) + "/json/version"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("Inspector.Responsive: %w", err)
	}
	resp, err := i.client.Do(req)
	if err != nil {
		return fmt.Errorf("Inspector.Responsive devtools: %w: %v", apperrors.ErrBrowserStalled, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Inspector.Responsive devtools status %d: %w", resp.StatusCode, apperrors.ErrBrowserStalled)
	}
	return nil
}
