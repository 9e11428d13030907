// Package watch re-runs analysis when project files change. Events are
// debounced so a burst of saves triggers one re-analysis, and content
// checksums suppress events that did not change file contents (editors
// that touch files on save, atomic-rename writers).
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/cppdeps/internal/config"
	"github.com/standardbeagle/cppdeps/internal/debug"
	"github.com/standardbeagle/cppdeps/internal/types"
)

// EventType classifies a debounced file event.
type EventType int

const (
	EventCreate EventType = iota
	EventWrite
	EventRemove
	EventRename
)

// Watcher monitors the project root and invokes OnChange with the
// batched set of changed paths after the debounce window closes.
type Watcher struct {
	watcher   *fsnotify.Watcher
	cfg       *config.Config
	debouncer *eventDebouncer
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	// OnChange receives each debounced batch. Set before Start.
	OnChange func(changed map[string]EventType)

	// Last seen content checksum per path. Guarded by checksumMu;
	// flush runs on the debounce timer goroutine.
	checksums  map[string]uint64
	checksumMu sync.Mutex

	eventsProcessed int64
	lastEventTime   time.Time
	statsMu         sync.RWMutex
}

// New creates a watcher for cfg.Project.Root.
func New(cfg *config.Config) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		watcher:   fsWatcher,
		cfg:       cfg,
		ctx:       ctx,
		cancel:    cancel,
		checksums: make(map[string]uint64),
	}
	w.debouncer = newEventDebouncer(time.Duration(cfg.Watch.DebounceMs)*time.Millisecond, w)
	return w, nil
}

// Start adds directory watches and begins processing events.
func (w *Watcher) Start() error {
	if !w.cfg.Watch.Enabled {
		debug.LogAnalysis("watch: disabled in configuration")
		return nil
	}

	root := w.cfg.Project.Root
	debug.LogAnalysis("watch: starting for %s", root)

	if err := w.addWatches(root); err != nil {
		return err
	}

	w.wg.Add(2)
	go w.processEvents()
	go w.debouncer.run(w.ctx, &w.wg)
	return nil
}

// Stop cancels processing and waits for the goroutines to exit.
// Events pending in the debouncer at shutdown are dropped, and no
// OnChange call starts after Stop returns.
func (w *Watcher) Stop() error {
	w.cancel()
	w.debouncer.stop()
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

// addWatches walks root adding a watch per directory. Symlinked
// directories already visited are skipped to break cycles.
func (w *Watcher) addWatches(root string) error {
	visitedDirs := make(map[string]bool)

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}

		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		if visitedDirs[realPath] {
			return filepath.SkipDir
		}
		visitedDirs[realPath] = true

		if w.excludedDir(path) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			debug.LogAnalysis("watch: cannot watch %s: %v", path, err)
		}
		return nil
	})
}

// excludedDir reports whether a directory matches any exclusion
// pattern, by basename or by root-relative path.
func (w *Watcher) excludedDir(path string) bool {
	rel, err := filepath.Rel(w.cfg.Project.Root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range w.cfg.Exclude {
		dirPattern := strings.TrimSuffix(pattern, "/**")
		if matched, _ := doublestar.Match(dirPattern, filepath.Base(path)); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
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
			debug.LogAnalysis("watch: error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	info, err := os.Stat(path)
	if err != nil {
		if event.Op&fsnotify.Remove != 0 && w.relevantFile(path) {
			w.debouncer.addEvent(path, EventRemove)
		}
		return
	}

	if info.IsDir() {
		// New directories need their own watch; rescans pick up the
		// files inside them via the created files' own events.
		if event.Op&fsnotify.Create != 0 && !w.excludedDir(path) {
			if err := w.watcher.Add(path); err != nil {
				debug.LogAnalysis("watch: cannot watch new directory %s: %v", path, err)
			}
		}
		return
	}

	if !w.relevantFile(path) {
		return
	}

	var eventType EventType
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = EventCreate
	case event.Op&fsnotify.Write != 0:
		eventType = EventWrite
	case event.Op&fsnotify.Remove != 0:
		eventType = EventRemove
	case event.Op&fsnotify.Rename != 0:
		eventType = EventRename
	default:
		return
	}

	w.debouncer.addEvent(path, eventType)
}

// relevantFile reports whether path is a C/C++ file the analysis
// would catalog.
func (w *Watcher) relevantFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := types.ClassifyExtension(ext); !ok {
		return false
	}

	rel, err := filepath.Rel(w.cfg.Project.Root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range w.cfg.Exclude {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return false
		}
	}
	if len(w.cfg.Include) > 0 {
		for _, pattern := range w.cfg.Include {
			if matched, _ := doublestar.Match(pattern, rel); matched {
				return true
			}
		}
		return false
	}
	return true
}

// contentChanged hashes path and reports whether its contents differ
// from the last flush. Unreadable files count as changed so removals
// and permission flips still trigger re-analysis.
func (w *Watcher) contentChanged(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		w.checksumMu.Lock()
		delete(w.checksums, path)
		w.checksumMu.Unlock()
		return true
	}
	sum := xxhash.Sum64(data)

	w.checksumMu.Lock()
	defer w.checksumMu.Unlock()
	if prev, ok := w.checksums[path]; ok && prev == sum {
		return false
	}
	w.checksums[path] = sum
	return true
}

func (w *Watcher) incrementStats(events int64) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.eventsProcessed += events
	w.lastEventTime = time.Now()
}

// Stats is a snapshot of watch activity.
type Stats struct {
	EventsProcessed int64
	LastEventTime   time.Time
	IsActive        bool
}

func (w *Watcher) GetStats() Stats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	return Stats{
		EventsProcessed: w.eventsProcessed,
		LastEventTime:   w.lastEventTime,
		IsActive:        w.ctx.Err() == nil,
	}
}

// eventDebouncer batches events so rapid editor saves collapse into a
// single OnChange call.
type eventDebouncer struct {
	events   map[string]EventType
	mutex    sync.Mutex
	debounce time.Duration
	timer    *time.Timer
	owner    *Watcher
}

func newEventDebouncer(debounce time.Duration, owner *Watcher) *eventDebouncer {
	return &eventDebouncer{
		events:   make(map[string]EventType),
		debounce: debounce,
		owner:    owner,
	}
}

// addEvent stores the latest event for a path and restarts the window.
func (d *eventDebouncer) addEvent(path string, eventType EventType) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.events[path] = eventType
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.debounce, d.flush)
}

// run blocks until shutdown. Pending events are dropped rather than
// flushed; flushing here could call OnChange concurrently with the
// caller's own teardown.
func (d *eventDebouncer) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	<-ctx.Done()
}

// stop cancels any pending flush. Called from Watcher.Stop so a batch
// still waiting out its debounce window never reaches OnChange.
func (d *eventDebouncer) stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.events = make(map[string]EventType)
}

// flush hands the accumulated batch to OnChange, dropping writes whose
// contents did not actually change.
func (d *eventDebouncer) flush() {
	d.mutex.Lock()
	events := d.events
	d.events = make(map[string]EventType)
	d.mutex.Unlock()

	if d.owner.ctx.Err() != nil {
		return
	}
	if len(events) == 0 {
		return
	}

	changed := make(map[string]EventType, len(events))
	for path, eventType := range events {
		switch eventType {
		case EventWrite, EventCreate:
			if d.owner.contentChanged(path) {
				changed[path] = eventType
			}
		default:
			changed[path] = eventType
		}
	}

	if len(changed) == 0 {
		return
	}

	debug.LogAnalysis("watch: %d debounced events, %d with content changes", len(events), len(changed))
	d.owner.incrementStats(int64(len(changed)))
	if d.owner.OnChange != nil {
		d.owner.OnChange(changed)
	}
}
