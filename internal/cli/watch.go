// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// configReloadDebounce collapses the burst of events an editor save produces.
const configReloadDebounce = 250 * time.Millisecond

// =============================================================================
// CONFIG WATCHER
// =============================================================================

// configWatcher calls onChange after the config file is written or replaced.
// The parent directory is watched so atomic saves (write temp, rename over)
// are seen.
type configWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	onChange func()

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
	done   chan struct{}
}

// watchConfig starts watching path. The caller must call Close.
func watchConfig(path string, debounce time.Duration, onChange func()) (*configWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	cw := &configWatcher{
		watcher:  watcher,
		path:     path,
		debounce: debounce,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go cw.processEvents()
	return cw, nil
}

func (cw *configWatcher) processEvents() {
	defer close(cw.done)
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != cw.path {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {
				cw.schedule()
			}

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("CONFIG_WATCH_ERROR | path=%s error=%v", cw.path, err)
		}
	}
}

// schedule (re)arms the debounce timer.
func (cw *configWatcher) schedule() {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if cw.closed {
		return
	}
	if cw.timer != nil {
		cw.timer.Stop()
	}
	cw.timer = time.AfterFunc(cw.debounce, cw.fire)
}

func (cw *configWatcher) fire() {
	cw.mu.Lock()
	closed := cw.closed
	cw.mu.Unlock()
	if !closed {
		cw.onChange()
	}
}

// Close stops watching. A pending reload is dropped.
func (cw *configWatcher) Close() error {
	cw.mu.Lock()
	if cw.closed {
		cw.mu.Unlock()
		return nil
	}
	cw.closed = true
	if cw.timer != nil {
		cw.timer.Stop()
	}
	cw.mu.Unlock()

	err := cw.watcher.Close()
	<-cw.done
	return err
}
