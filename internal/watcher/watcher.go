// Package watcher observes a directory tree for new or rewritten images
// and reports the ones that grow past the configured limits. It never
// modifies files; shrinking stays an explicit, interactive step.
package watcher

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/blackwell-systems/imgslim/internal/config"
	"github.com/blackwell-systems/imgslim/internal/output"
	"github.com/blackwell-systems/imgslim/internal/resample"
	"github.com/blackwell-systems/imgslim/internal/scanner"
)

// defaultSettle is how long a file must sit unchanged before it is
// inspected. Editors and exporters write large images in bursts; probing
// mid-write reads a truncated header.
const defaultSettle = 500 * time.Millisecond

// Watcher reports images that exceed the configured limits as they land
// in the watched tree.
type Watcher struct {
	root   string
	limits config.Limits
	out    io.Writer
	settle time.Duration

	fsw    *fsnotify.Watcher
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	pending map[string]time.Time
}

// New creates a Watcher for the tree rooted at root. Reports are written
// to out.
func New(root string, limits config.Limits, out io.Writer) (*Watcher, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("cannot watch %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		root:    root,
		limits:  limits,
		out:     out,
		settle:  defaultSettle,
		fsw:     fsw,
		stopCh:  make(chan struct{}),
		pending: make(map[string]time.Time),
	}, nil
}

// SetSettle adjusts how long a file must stay quiet before inspection.
// Must be called before Start. Primarily used for testing.
func (w *Watcher) SetSettle(d time.Duration) {
	w.settle = d
}

// Start watches every non-hidden directory under the root and begins
// reporting. Directories created later are picked up as they appear.
func (w *Watcher) Start() error {
	if err := w.watchTree(w.root, false); err != nil {
		return err
	}

	w.wg.Add(1)
	go w.run()

	return nil
}

// Stop halts the watcher after one final sweep of pending files.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	w.wg.Wait()
	return w.fsw.Close()
}

// run drains filesystem events and inspects pending files once their
// settle window has passed.
func (w *Watcher) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(w.out, "⚠ watch error: %v\n", err)
		case <-ticker.C:
			w.sweep(false)
		case <-w.stopCh:
			w.sweep(true)
			return
		}
	}
}

// handleEvent folds one filesystem event into the pending set. New
// directories are added to the watch; removed or renamed files are
// dropped.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if strings.HasPrefix(filepath.Base(path), ".") {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			// Files may land in the new directory before its watch is
			// active, so the walk enqueues anything already inside.
			if err := w.watchTree(path, true); err != nil {
				fmt.Fprintf(w.out, "⚠ watch error: %v\n", err)
			}
			return
		}
	}

	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		return
	}

	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if !scanner.IsImagePath(path) {
		return
	}

	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

// watchTree adds dir and every non-hidden directory below it to the
// watch. When enqueueFiles is set, images already present are marked
// pending as well.
func (w *Watcher) watchTree(dir string, enqueueFiles bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("cannot watch %s: %w", dir, err)
			}
			return nil
		}

		base := filepath.Base(path)
		if d.IsDir() {
			if path != dir && strings.HasPrefix(base, ".") {
				return fs.SkipDir
			}
			if err := w.fsw.Add(path); err != nil {
				fmt.Fprintf(w.out, "⚠ cannot watch %s: %v\n", path, err)
			}
			return nil
		}

		if !enqueueFiles || strings.HasPrefix(base, ".") || !scanner.IsImagePath(path) {
			return nil
		}
		w.mu.Lock()
		w.pending[path] = time.Now()
		w.mu.Unlock()
		return nil
	})
}

// sweep inspects pending files whose settle window has passed. force
// inspects everything regardless of age; used for the final flush.
func (w *Watcher) sweep(force bool) {
	now := time.Now()

	w.mu.Lock()
	var due []string
	for path, seen := range w.pending {
		if force || now.Sub(seen) >= w.settle {
			due = append(due, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	sort.Strings(due)
	for _, path := range due {
		w.inspect(path)
	}
}

// inspect checks one settled file against the limits and reports it when
// oversized.
func (w *Watcher) inspect(path string) {
	info, err := os.Stat(path)
	if err != nil {
		// Deleted before the settle window closed.
		return
	}

	width, height, err := resample.DecodeBounds(path)
	if err != nil {
		fmt.Fprintf(w.out, "⚠ cannot read %s: %v\n", w.rel(path), err)
		return
	}

	if info.Size() <= w.limits.SizeBytes && width <= w.limits.DimensionPX && height <= w.limits.DimensionPX {
		return
	}

	fmt.Fprintf(w.out, "⚠ %s is oversized: %dx%d, %s\n",
		w.rel(path), width, height, output.FormatBytes(info.Size()))
}

// rel shortens path for display. Falls back to the absolute path when it
// sits outside the root.
func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
