package watchdog

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Notifier is one external liveness channel.
type Notifier interface {
	Ready() error
	Beat() error
	Stopping() error
	Close() error
}

type systemdNotifier struct {
	notify func(state string) (bool, error)
}

// NewSystemdNotifier talks to the service manager through NOTIFY_SOCKET.
// Without the socket every call is a no-op.
func NewSystemdNotifier() Notifier {
	return &systemdNotifier{
		notify: func(state string) (bool, error) {
			return daemon.SdNotify(false, state)
		},
	}
}

func (n *systemdNotifier) send(state string) error {
	if _, err := n.notify(state); err != nil {
		return fmt.Errorf("systemdNotifier.send %s: %w", state, err)
	}
	return nil
}

func (n *systemdNotifier) Ready() error    { return n.send(daemon.SdNotifyReady) }
func (n *systemdNotifier) Beat() error     { return n.send(daemon.SdNotifyWatchdog) }
func (n *systemdNotifier) Stopping() error { return n.send(daemon.SdNotifyStopping) }
func (n *systemdNotifier) Close() error    { return nil }

// SystemdInterval returns the service manager's watchdog timeout, zero when
// the unit has no WatchdogSec.
func SystemdInterval() time.Duration {
	d, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		return 0
	}
	return d
}

// deviceNotifier keeps a hardware watchdog device such as /dev/watchdog open.
// The kernel arms the timer on open; every write resets it.
type deviceNotifier struct {
	path string

	mu   sync.Mutex
	file *os.File
}

func NewDeviceNotifier(path string) Notifier {
	return &deviceNotifier{path: path}
}

func (n *deviceNotifier) open() error {
	if n.file != nil {
		return nil
	}
	f, err := os.OpenFile(n.path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	n.file = f
	return nil
}

// Ready does not open the device: arming happens on the first beat, once the
// supervisor has something healthy to report.
func (n *deviceNotifier) Ready() error { return nil }

func (n *deviceNotifier) Beat() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.open(); err != nil {
		return fmt.Errorf("deviceNotifier.Beat: %w", err)
	}
	if _, err := n.file.Write([]byte{0}); err != nil {
		return fmt.Errorf("deviceNotifier.Beat: %w", err)
	}
	return nil
}

func (n *deviceNotifier) Stopping() error { return nil }

// Close writes the magic character so a clean shutdown disarms the timer.
func (n *deviceNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.file == nil {
		return nil
	}
	_, werr := n.file.Write([]byte("V"))
	cerr := n.file.Close()
	n.file = nil
	if err := errors.Join(werr, cerr); err != nil {
		return fmt.Errorf("deviceNotifier.Close: %w", err)
	}
	return nil
}

// fileNotifier touches a file; an external software watchdog compares its
// mtime against its own threshold.
type fileNotifier struct {
	path string
	now  func() time.Time
}

func NewFileNotifier(path string) Notifier {
	return &fileNotifier{path: path, now: time.Now}
}

func (n *fileNotifier) Ready() error { return nil }

func (n *fileNotifier) Beat() error {
	t := n.now()
	if err := os.Chtimes(n.path, t, t); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("fileNotifier.Beat: %w", err)
		}
		f, err := os.OpenFile(n.path, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("fileNotifier.Beat: %w", err)
		}
		if err = f.Close(); err != nil {
			return fmt.Errorf("fileNotifier.Beat: %w", err)
		}
		if err = os.Chtimes(n.path, t, t); err != nil {
			return fmt.Errorf("fileNotifier.Beat: %w", err)
		}
	}
	return nil
}

func (n *fileNotifier) Stopping() error { return nil }
func (n *fileNotifier) Close() error    { return nil }

type multiNotifier []Notifier

// Multi fans every call out to all notifiers and joins their errors.
func Multi(notifiers ...Notifier) Notifier {
	return multiNotifier(notifiers)
}

func (m multiNotifier) each(call func(Notifier) error) error {
	var errs []error
	for _, n := range m {
		if err := call(n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multiNotifier) Ready() error    { return m.each(Notifier.Ready) }
func (m multiNotifier) Beat() error     { return m.each(Notifier.Beat) }
func (m multiNotifier) Stopping() error { return m.each(Notifier.Stopping) }
func (m multiNotifier) Close() error    { return m.each(Notifier.Close) }
