package imaging

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher evicts cached art when the file behind it changes on disk.
// Directories are watched rather than files so that editors which replace a
// file by rename are still seen.
type Watcher struct {
	fs       *fsnotify.Watcher
	cache    *ImageCache
	logger   *log.Logger
	onChange func(path string)

	mu   sync.Mutex
	dirs map[string]bool
}

// NewWatcher creates a watcher that evicts from cache. onChange, if non-nil,
// is called with the cleaned path of every changed file after eviction.
func NewWatcher(cache *ImageCache, logger *log.Logger, onChange func(path string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{
		fs:       fw,
		cache:    cache,
		logger:   logger,
		onChange: onChange,
		dirs:     make(map[string]bool),
	}, nil
}

// Watch starts watching the directory holding path.
func (w *Watcher) Watch(path string) error {
	dir := filepath.Dir(filepath.Clean(path))

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dirs[dir] {
		return nil
	}
	if err := w.fs.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.dirs[dir] = true
	return nil
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Write) ||
				event.Has(fsnotify.Remove) ||
				event.Has(fsnotify.Rename) {
				w.invalidate(event.Name)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Printf("Watcher error: %v", err)

		case <-ctx.Done():
			return nil
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) invalidate(name string) {
	path := filepath.Clean(name)
	w.cache.Evict(path)
	if w.onChange != nil {
		w.onChange(path)
	}
}
