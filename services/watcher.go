package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"resonance/types"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a folder must stay quiet before it is rescanned
const DefaultDebounce = 2 * time.Second

// JobEnqueuer accepts scan requests; ScanQueue satisfies it
type JobEnqueuer interface {
	AddJob(rootPath string) types.ScanJob
}

// FolderWatcher rescans library folders when audio files appear in them
type FolderWatcher interface {
	Watch(root string) error
	Roots() []string
	Run(ctx context.Context)
	Close() error
}

// folderWatcher implements FolderWatcher on top of fsnotify
type folderWatcher struct {
	watcher  *fsnotify.Watcher
	queue    JobEnqueuer
	debounce time.Duration

	mu      sync.Mutex
	roots   []string
	watched map[string]bool
	timers  map[string]*time.Timer
}

// NewFolderWatcher creates a watcher that enqueues rescans on queue
func NewFolderWatcher(queue JobEnqueuer, debounce time.Duration) (FolderWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &folderWatcher{
		watcher:  watcher,
		queue:    queue,
		debounce: debounce,
		watched:  make(map[string]bool),
		timers:   make(map[string]*time.Timer),
	}, nil
}

// Watch adds root and every directory below it
func (w *folderWatcher) Watch(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve path %s: %w", root, err)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return fmt.Errorf("cannot watch %s: not a directory", abs)
	}

	w.mu.Lock()
	known := false
	for _, r := range w.roots {
		if r == abs {
			known = true
			break
		}
	}
	if !known {
		w.roots = append(w.roots, abs)
	}
	w.mu.Unlock()

	return w.addRecursive(abs)
}

// Roots returns the watched library folders
func (w *folderWatcher) Roots() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.roots...)
}

func (w *folderWatcher) addWatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watched[path] {
		return nil
	}
	if err := w.watcher.Add(path); err != nil {
		return err
	}
	w.watched[path] = true
	return nil
}

func (w *folderWatcher) removeWatch(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watched[path] {
		_ = w.watcher.Remove(path)
		delete(w.watched, path)
	}
}

func (w *folderWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.addWatch(path); err != nil {
			log.Printf("Warning: failed to watch %s: %v", path, err)
		}
		return nil
	})
}

// ownerOf returns the watched root containing path, preferring the deepest one
func (w *folderWatcher) ownerOf(path string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	owner := ""
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if len(root) > len(owner) {
			owner = root
		}
	}
	return owner, owner != ""
}

// trigger (re)starts the quiet period for root
func (w *folderWatcher) trigger(root string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[root]; ok {
		timer.Stop()
	}
	w.timers[root] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, root)
		w.mu.Unlock()

		job := w.queue.AddJob(root)
		log.Printf("Detected new audio in %s, queued scan job %s", root, job.ID)
	})
}

// Run dispatches filesystem events until ctx is done or the watcher is closed
func (w *folderWatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Warning: watch error: %v", err)
		}
	}
}

func (w *folderWatcher) handle(event fsnotify.Event) {
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				log.Printf("Warning: failed to watch new directory %s: %v", event.Name, err)
			}
			// files copied in together with the directory raise no events of their own
			if root, ok := w.ownerOf(event.Name); ok {
				w.trigger(root)
			}
			return
		}
	}

	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		w.removeWatch(event.Name)
	}

	// only arrivals trigger a rescan; the library never shrinks
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 || !IsAudioFile(event.Name) {
		return
	}
	if _, err := os.Stat(event.Name); err != nil {
		return
	}
	if root, ok := w.ownerOf(event.Name); ok {
		w.trigger(root)
	}
}

// Close stops the watcher and drops pending rescans
func (w *folderWatcher) Close() error {
	w.mu.Lock()
	for root, timer := range w.timers {
		timer.Stop()
		delete(w.timers, root)
	}
	w.mu.Unlock()

	return w.watcher.Close()
}
