package logger

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

// ReopenableWriteSyncer is a zapcore.WriteSyncer over a file that can be
// reopened after an external logrotate (SIGHUP) or rotated by size.
type ReopenableWriteSyncer struct {
	file    string
	cur     atomic.Value
	mu      sync.Mutex
	size    int64
	maxSize atomic.Int64
}

func NewReopenableWriteSyncer(file string) (*ReopenableWriteSyncer, error) {
	ws := &ReopenableWriteSyncer{
		file: file,
	}
	if err := ws.Reload(); err != nil {
		return nil, err
	}
	return ws, nil
}

func (ws *ReopenableWriteSyncer) getFile() *os.File {
	return ws.cur.Load().(*os.File)
}

// SetMaxSize enables size based rotation. Zero or a negative value disables it.
func (ws *ReopenableWriteSyncer) SetMaxSize(bytes int64) {
	ws.maxSize.Store(bytes)
}

func (ws *ReopenableWriteSyncer) Reload() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.reopen()
}

func (ws *ReopenableWriteSyncer) reopen() error {
	file, err := os.OpenFile(ws.file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}
	ws.size = info.Size()
	old := ws.cur.Swap(file)
	if old != nil {
		return old.(*os.File).Close()
	}
	return nil
}

// rotate renames the current file to <file>.1, replacing any older backup.
func (ws *ReopenableWriteSyncer) rotate() error {
	if err := os.Rename(ws.file, ws.file+".1"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ReopenableWriteSyncer.rotate: %w", err)
	}
	return ws.reopen()
}

// Sync and Close hold the lock so a concurrent rotation cannot close the
// file underneath them.
func (ws *ReopenableWriteSyncer) Sync() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.getFile().Sync()
}

func (ws *ReopenableWriteSyncer) Close() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.getFile().Close()
}

func (ws *ReopenableWriteSyncer) Write(p []byte) (n int, err error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if max := ws.maxSize.Load(); max > 0 && ws.size > 0 && ws.size+int64(len(p)) > max {
		if err = ws.rotate(); err != nil {
			return 0, err
		}
	}
	n, err = ws.getFile().Write(p)
	ws.size += int64(n)
	return n, err
}
