package app

import (
	"os"
	"time"
)

// MapWatcher watches a flatmap manifest file for changes and triggers a
// callback when it is rewritten. This is useful during map authoring: the
// viewer reloads the map as the generation pipeline rewrites it.
type MapWatcher struct {
	path          string
	lastMod       time.Time
	checkInterval time.Duration
	stopCh        chan struct{}
	onChange      func() // Called when the manifest changes on disk
}

// NewMapWatcher creates a watcher for the given manifest path. Returns nil
// if the file cannot be stat'd.
func NewMapWatcher(path string, checkInterval time.Duration) *MapWatcher {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}

	return &MapWatcher{
		path:          path,
		lastMod:       info.ModTime(),
		checkInterval: checkInterval,
		stopCh:        make(chan struct{}),
	}
}

// OnChange sets the callback to invoke when the manifest changes. The
// callback is called from a background goroutine - use appropriate
// synchronization if updating UI.
func (w *MapWatcher) OnChange(callback func()) {
	w.onChange = callback
}

// Start begins watching for manifest changes in a background goroutine.
func (w *MapWatcher) Start() {
	// Create a fresh stop channel in case we're restarting
	w.stopCh = make(chan struct{})
	go w.watchLoop()
}

// Stop stops the watcher goroutine.
func (w *MapWatcher) Stop() {
	close(w.stopCh)
}

// watchLoop periodically checks if the manifest has been modified. Unlike a
// one-shot watcher, authoring pipelines rewrite the manifest repeatedly, so
// the loop keeps running after a change.
func (w *MapWatcher) watchLoop() {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			if w.checkForUpdate() && w.onChange != nil {
				w.onChange()
			}
		}
	}
}

// checkForUpdate returns true if the manifest changed since the last check,
// and advances the baseline so each rewrite fires once.
func (w *MapWatcher) checkForUpdate() bool {
	info, err := os.Stat(w.path)
	if err != nil {
		return false
	}
	if !info.ModTime().After(w.lastMod) {
		return false
	}
	w.lastMod = info.ModTime()
	return true
}

// Path returns the watched manifest path.
func (w *MapWatcher) Path() string {
	return w.path
}
