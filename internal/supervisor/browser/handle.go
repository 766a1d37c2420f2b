package browser

import (
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"piview/internal/supervisor/model"
)

// ProcessHandle is the running browser. It is owned by the controller that
// created it; other components only see the pid through the shared record.
type ProcessHandle struct {
	pid     int
	started time.Time
	cmd     *exec.Cmd
	stderr  *tailBuffer

	stopRequested atomic.Bool
	done          chan struct{}
	once          sync.Once
	exit          model.ExitEvent
}

func newProcessHandle(pid int, started time.Time) *ProcessHandle {
	return &ProcessHandle{
		pid:     pid,
		started: started,
		stderr:  newTailBuffer(stderrTailSize),
		done:    make(chan struct{}),
	}
}

func (h *ProcessHandle) PID() int {
	return h.pid
}

func (h *ProcessHandle) StartedAt() time.Time {
	return h.started
}

// Done is closed once the process has been reaped.
func (h *ProcessHandle) Done() <-chan struct{} {
	return h.done
}

// Exit is valid after Done is closed.
func (h *ProcessHandle) Exit() model.ExitEvent {
	<-h.done
	return h.exit
}

func (h *ProcessHandle) StderrTail() string {
	return h.stderr.String()
}

func (h *ProcessHandle) finish(ev model.ExitEvent) {
	h.once.Do(func() {
		ev.PID = h.pid
		ev.Requested = h.stopRequested.Load()
		ev.Crashed = !ev.Requested && (ev.Code != 0 || ev.Signal != "")
		h.exit = ev
		close(h.done)
	})
}

const stderrTailSize = 4096

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
