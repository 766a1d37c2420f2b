package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher notices operator edits of the kiosk config file. It validates the
// edited file but does not swap the Store; the change is applied at the next
// browser restart, which onChange is expected to request.
type Watcher struct {
	store    *Store
	logger   *zap.Logger
	debounce time.Duration
	onChange func(cfg *KioskConfig)
}

func NewWatcher(store *Store, logger *zap.Logger, onChange func(cfg *KioskConfig)) *Watcher {
	return &Watcher{
		store:    store,
		logger:   logger,
		debounce: defaultDebounce,
		onChange: onChange,
	}
}

func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("Watcher.Run: %w", err)
	}
	defer fsw.Close()

	// Watch the directory: editors and atomic writers replace the file.
	dir := filepath.Dir(w.store.Path())
	if err = fsw.Add(dir); err != nil {
		return fmt.Errorf("Watcher.Run: %w", err)
	}
	target := filepath.Clean(w.store.Path())

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		case <-fire:
			fire = nil
			w.check()
		}
	}
}

func (w *Watcher) check() {
	cfg, err := LoadKioskConfig(w.store.Path())
	if err != nil {
		w.logger.Error("edited kiosk config rejected, keeping current config", zap.Error(err))
		return
	}
	if cfg.LaunchEquivalent(w.store.Current()) {
		w.logger.Info("kiosk config changed, applying at next browser restart")
		return
	}
	w.logger.Info("kiosk config changed, restarting browser to apply", zap.String("url", cfg.URL))
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
