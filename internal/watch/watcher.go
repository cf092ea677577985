package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"filegrip/internal/eventbus"
	"filegrip/internal/logger"
	"filegrip/internal/walker"
)

// DefaultDebounce is how long the watcher waits for the tree to settle
const DefaultDebounce = 250 * time.Millisecond

// Watcher monitors a search root and publishes a debounced FilesChangedEvent
// when anything under it changes. Ignored directories are never watched.
type Watcher struct {
	fsw      *fsnotify.Watcher
	root     string
	policy   walker.Policy
	bus      eventbus.EventBus
	debounce time.Duration
	excluded map[string]struct{}
}

// Option configures a Watcher
type Option func(*Watcher)

// WithExcludedPaths drops events for the given files, such as the active log
// file, whose writes would otherwise retrigger the watcher forever.
func WithExcludedPaths(paths ...string) Option {
	return func(w *Watcher) {
		for _, p := range paths {
			if p == "" {
				continue
			}
			if abs, err := filepath.Abs(p); err == nil {
				p = abs
			}
			w.excluded[filepath.Clean(p)] = struct{}{}
		}
	}
}

// New creates a watcher for root. debounce <= 0 uses DefaultDebounce.
func New(root string, policy walker.Policy, bus eventbus.EventBus, debounce time.Duration, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		fsw:      fsw,
		root:     filepath.Clean(root),
		policy:   policy,
		bus:      bus,
		debounce: debounce,
		excluded: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches until ctx is done. It always closes the underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	log := logger.Named("watch").WithField("root", w.root)

	if err := w.addWatches(w.root); err != nil {
		return fmt.Errorf("failed to add watches starting from %s: %w", w.root, err)
	}
	log.Debug("watching")

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.handle(event) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Warnf("file watcher error: %v", err)

		case <-timer.C:
			w.flush(pending)
			clear(pending)
		}
	}
}

// handle reports whether event should trigger a refresh. New directories
// are watched as they appear.
func (w *Watcher) handle(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if _, ok := w.excluded[filepath.Clean(event.Name)]; ok {
		return false
	}
	if w.ignored(event.Name) {
		return false
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
			if err := w.addWatches(event.Name); err != nil {
				logger.Named("watch").WithField("dir", event.Name).Warnf("failed to watch new directory: %v", err)
			}
		}
	}
	return true
}

// ignored checks every path element below the root against the policy
func (w *Watcher) ignored(path string) bool {
	if w.policy == nil {
		return false
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return true
	}
	if rel == "." {
		return false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for i, name := range parts {
		last := i == len(parts)-1
		if !last && w.policy.ShouldSkip(name, true) {
			return true
		}
		if last {
			isDir := false
			if info, err := os.Lstat(path); err == nil {
				isDir = info.IsDir()
			}
			if w.policy.ShouldSkip(name, isDir) {
				return true
			}
		}
	}
	return false
}

func (w *Watcher) addWatches(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.policy != nil && w.policy.ShouldSkip(d.Name(), true) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			logger.Named("watch").WithField("dir", path).Debugf("failed to add watch: %v", err)
		}
		return nil
	})
}

func (w *Watcher) flush(pending map[string]struct{}) {
	if len(pending) == 0 {
		return
	}
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	logger.Named("watch").WithField("paths", len(paths)).Debug("files changed")
	if w.bus != nil {
		w.bus.Publish(eventbus.FilesChangedEvent{Root: w.root, Paths: paths})
	}
}
