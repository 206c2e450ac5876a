package indexer

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"gengraph/pkg/graph"
	"gengraph/pkg/parser"
)

// WatchOptions controls file watching behavior.
type WatchOptions struct {
	// DebounceMs groups rapid successive changes to one file into a
	// single reanalysis. 0 uses the default.
	DebounceMs int

	// ExcludeDirs prunes directories from watching, by name.
	ExcludeDirs []string
}

// DefaultWatchOptions matches the default scan exclusions.
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		DebounceMs:  200,
		ExcludeDirs: DefaultScanOptions().ExcludeDirs,
	}
}

// Watcher watches a tree for source changes and reanalyzes changed files
// incrementally through the Indexer.
type Watcher struct {
	watcher  *fsnotify.Watcher
	indexer  *Indexer
	options  WatchOptions
	onUpdate func(*graph.ContextDocument)
	logger   *slog.Logger

	excluded map[string]struct{}

	debounceMu     sync.Mutex
	debounceTimers map[string]*time.Timer

	mu       sync.Mutex
	stopChan chan struct{}
	stopped  bool
}

// NewWatcher creates a watcher over the given indexer. onUpdate receives a
// freshly assembled document after each reanalysis; it may be nil.
func NewWatcher(indexer *Indexer, options WatchOptions, onUpdate func(*graph.ContextDocument), logger *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if options.DebounceMs == 0 {
		options.DebounceMs = 200
	}
	if logger == nil {
		logger = slog.Default()
	}

	excluded := make(map[string]struct{}, len(options.ExcludeDirs))
	for _, name := range options.ExcludeDirs {
		excluded[name] = struct{}{}
	}

	return &Watcher{
		watcher:        fsWatcher,
		indexer:        indexer,
		options:        options,
		onUpdate:       onUpdate,
		logger:         logger,
		excluded:       excluded,
		debounceTimers: make(map[string]*time.Timer),
		stopChan:       make(chan struct{}),
	}, nil
}

// Start watches root and all its non-excluded subdirectories, then
// processes events in a background goroutine.
func (w *Watcher) Start(root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if _, pruned := w.excluded[d.Name()]; pruned && path != root {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set up watches under %s: %w", root, err)
	}

	w.logger.Info("file watcher started", "root", root)
	go w.eventLoop()

	return nil
}

// Stop stops the watcher. Idempotent.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopChan)

	w.debounceMu.Lock()
	for _, timer := range w.debounceTimers {
		timer.Stop()
	}
	w.debounceTimers = make(map[string]*time.Timer)
	w.debounceMu.Unlock()

	err := w.watcher.Close()
	w.logger.Info("file watcher stopped")
	return err
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if _, pruned := w.excluded[filepath.Base(filepath.Dir(path))]; pruned {
		return
	}

	// New directories need watches of their own.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if _, pruned := w.excluded[filepath.Base(path)]; !pruned {
				if err := w.watcher.Add(path); err != nil {
					w.logger.Warn("failed to watch new directory", "path", path, "error", err)
				}
			}
			return
		}
	}

	if parser.DetectLanguage(path) == parser.LanguageUnknown {
		return
	}

	w.logger.Debug("file event", "op", event.Op.String(), "file", path)

	switch {
	case event.Op&fsnotify.Write != 0, event.Op&fsnotify.Create != 0:
		w.debounceReanalyze(path)

	case event.Op&fsnotify.Remove != 0, event.Op&fsnotify.Rename != 0:
		w.indexer.RemoveFile(path)
		w.notify()
	}
}

// debounceReanalyze schedules a reanalysis after the debounce window,
// replacing any pending timer for the same file.
func (w *Watcher) debounceReanalyze(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, exists := w.debounceTimers[path]; exists {
		timer.Stop()
	}

	w.debounceTimers[path] = time.AfterFunc(
		time.Duration(w.options.DebounceMs)*time.Millisecond,
		func() {
			w.reanalyze(path)

			w.debounceMu.Lock()
			delete(w.debounceTimers, path)
			w.debounceMu.Unlock()
		},
	)
}

func (w *Watcher) reanalyze(path string) {
	if err := w.indexer.ReanalyzeFile(path); err != nil {
		w.logger.Warn("failed to reanalyze file", "file", path, "error", err)
		return
	}

	w.logger.Debug("file reanalyzed", "file", path)
	w.notify()
}

func (w *Watcher) notify() {
	if w.onUpdate == nil {
		return
	}
	w.onUpdate(w.indexer.Document())
}
