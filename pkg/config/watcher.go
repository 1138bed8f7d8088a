package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/avoronov/slotbot/pkg/logger"
	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the configuration file when it changes on disk and
// delivers the result to a callback. It lets operators adjust the admin
// list or log level without restarting the bot.
type Watcher struct {
	fsw      *fsnotify.Watcher
	path     string
	onChange func(*Config)
	log      logger.Logger

	debounce time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	closed bool

	stopChan chan struct{}
}

// WatchFile starts watching the given config file.
//
// The parent directory is watched rather than the file itself, because
// most editors replace files on save. Reload events are debounced; a
// file that fails to load or validate is logged and ignored, keeping
// the previous configuration active.
func WatchFile(path string, onChange func(*Config), log logger.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			log.Error("failed to close watcher after add error", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &Watcher{
		fsw:      fsw,
		path:     path,
		onChange: onChange,
		log:      log,
		debounce: 200 * time.Millisecond,
		stopChan: make(chan struct{}),
	}

	go w.loop()

	log.Info("config watcher started", "path", path)
	return w, nil
}

// Close stops the watcher and releases its resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.stopChan)
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.stopChan:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watcher error", "error", err)
		}
	}
}

// scheduleReload resets the debounce timer so a burst of editor events
// produces a single reload.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := LoadFromFile(w.path)
	if err != nil {
		w.log.Warn("config reload failed, keeping previous configuration",
			"path", w.path,
			"error", err)
		return
	}

	w.log.Info("configuration reloaded", "path", w.path)
	w.onChange(cfg)
}
