package codebase

import (
	"os"
	"slices"
	"sync"
	"time"
)

// FileWatcher polls the codebase root for added, modified and removed
// .proto files and keeps the codebase in sync.
type FileWatcher struct {
	codebase     *Codebase
	stopCh       chan struct{}
	stopOnce     sync.Once
	pollInterval time.Duration
	modTimes     map[string]time.Time
	onChange     func(changed []string)
}

func NewFileWatcher(c *Codebase) *FileWatcher {
	return &FileWatcher{
		codebase:     c,
		stopCh:       make(chan struct{}),
		pollInterval: 1 * time.Second,
		modTimes:     make(map[string]time.Time),
	}
}

func (w *FileWatcher) SetInterval(d time.Duration) {
	w.pollInterval = d
}

// OnChange registers fn to be called after every scan that saw changes.
// Removed files are included in changed.
func (w *FileWatcher) OnChange(fn func(changed []string)) {
	w.onChange = fn
}

func (w *FileWatcher) Start() {
	go w.run()
}

func (w *FileWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

func (w *FileWatcher) run() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.Scan()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Scan()
		}
	}
}

// Scan compares the files on disk with the last scan, updates the codebase
// and returns the paths that changed.
func (w *FileWatcher) Scan() []string {
	currentFiles := make(map[string]bool)
	var changed []string

	_ = w.codebase.walk(func(path string, info os.FileInfo) {
		currentFiles[path] = true

		lastMod, known := w.modTimes[path]
		if !known || info.ModTime().After(lastMod) {
			w.modTimes[path] = info.ModTime()
			if err := w.codebase.ScanFile(path); err == nil {
				changed = append(changed, path)
			}
		}
	})

	for path := range w.modTimes {
		if !currentFiles[path] {
			delete(w.modTimes, path)
			w.codebase.RemoveFile(path)
			changed = append(changed, path)
		}
	}

	slices.Sort(changed)
	if len(changed) > 0 && w.onChange != nil {
		w.onChange(changed)
	}
	return changed
}
