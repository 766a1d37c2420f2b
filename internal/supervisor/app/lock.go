package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	apperrors "piview/internal/supervisor/errors"

	"golang.org/x/sys/unix"
)

// instanceLock guarantees a single supervisor, and therefore a single
// browser, per machine.
type instanceLock struct {
	file *os.File
}

func acquireLock(path string) (*instanceLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("acquireLock: %w", err)
	}
	if err = unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("acquireLock %s: %w", path, apperrors.ErrAlreadyRunning)
		}
		return nil, fmt.Errorf("acquireLock: %w", err)
	}
	if err = f.Truncate(0); err == nil {
		_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	}
	return &instanceLock{file: f}, nil
}

func (l *instanceLock) release() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	err := l.file.Close()
	l.file = nil
	return err
}
