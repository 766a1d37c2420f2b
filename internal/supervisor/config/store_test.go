package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStore_Reload(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `{"url": "https://one.example"}`)

	store, err := NewStore(path)
	require.NoError(t, err)
	assert.Equal(t, "https://one.example", store.Current().URL)

	writeConfig(t, dir, `{"url": "https://two.example"}`)
	cfg, err := store.Reload()
	require.NoError(t, err)
	assert.Equal(t, "https://two.example", cfg.URL)
	assert.Equal(t, "https://two.example", store.Current().URL)

	writeConfig(t, dir, `{"url": `)
	cfg, err = store.Reload()
	assert.Error(t, err)
	assert.Equal(t, "https://two.example", cfg.URL, "previous snapshot must be kept")
	assert.Equal(t, "https://two.example", store.Current().URL)
}

func TestStore_Static(t *testing.T) {
	cfg := DefaultKioskConfig("https://dash.example")
	store := NewStaticStore("", &cfg)
	reloaded, err := store.Reload()
	require.NoError(t, err)
	assert.Same(t, &cfg, reloaded)
}

func TestWatcher_RequestsRestartOnLaunchChange(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `{"url": "https://one.example"}`)
	store, err := NewStore(path)
	require.NoError(t, err)

	var mu sync.Mutex
	var changed []*KioskConfig
	w := NewWatcher(store, zap.NewNop(), func(cfg *KioskConfig) {
		mu.Lock()
		changed = append(changed, cfg)
		mu.Unlock()
	})
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, SaveKioskConfig(path, func() *KioskConfig {
		c := DefaultKioskConfig("https://two.example")
		return &c
	}()))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changed) == 1 && changed[0].URL == "https://two.example"
	}, 3*time.Second, 20*time.Millisecond)

	// the store is only swapped at the restart boundary
	assert.Equal(t, "https://one.example", store.Current().URL)

	cancel()
	assert.NoError(t, <-done)
}

func TestWatcher_IgnoresInvalidEdit(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `{"url": "https://one.example"}`)
	store, err := NewStore(path)
	require.NoError(t, err)

	calls := 0
	w := NewWatcher(store, zap.NewNop(), func(cfg *KioskConfig) { calls++ })
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"url": 12`), 0o644))
	w.check()
	assert.Equal(t, 0, calls)
}
