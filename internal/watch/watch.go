// Package watch turns file-system events under a workspace root into
// change notifications for an analysis server.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MarkBennett/dart-sub004/internal/source"
)

// Op is the kind of a file change.
type Op uint8

const (
	OpCreate Op = iota
	OpWrite
	OpRemove
)

func (op Op) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Change is one debounced file event.
type Change struct {
	Source source.Source
	Op     Op
}

// Sink receives changes. engine.Server satisfies it.
type Sink interface {
	FileChanged(src source.Source) error
}

// Options configures a Watcher.
type Options struct {
	// Extension filters files; "" accepts every file.
	Extension string
	// Debounce is how long to wait for more events before flushing a
	// batch. Zero means 100ms.
	Debounce time.Duration
	// Ignore lists directory names that are never watched.
	Ignore []string
	// OnBatch is called with every flushed batch, after the sink.
	OnBatch func([]Change)
	// Logf reports watcher errors; nil drops them.
	Logf func(format string, args ...any)
}

// Watcher watches a directory tree recursively.
type Watcher struct {
	root string
	sink Sink
	opts Options
	fsw  *fsnotify.Watcher
}

// New creates a watcher over root. Call Run to start it.
func New(root string, sink Sink, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = 100 * time.Millisecond
	}
	if opts.Ignore == nil {
		opts.Ignore = []string{".git", ".dart_tool", "build", "node_modules"}
	}
	if opts.Logf == nil {
		opts.Logf = func(string, ...any) {}
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{root: root, sink: sink, opts: opts, fsw: fsw}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && w.ignored(p) {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

func (w *Watcher) ignored(p string) bool {
	base := filepath.Base(p)
	if strings.HasPrefix(base, ".") && base != "." {
		return true
	}
	for _, name := range w.opts.Ignore {
		if base == name {
			return true
		}
	}
	return false
}

func (w *Watcher) accepts(p string) bool {
	if w.opts.Extension == "" {
		return true
	}
	return filepath.Ext(p) == w.opts.Extension
}

// Run forwards events until ctx is done. Pending changes are flushed
// before it returns.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	var (
		batch []Change
		timer *time.Timer
		fire  <-chan time.Time
	)
	flush := func() {
		if timer != nil {
			timer.Stop()
			timer, fire = nil, nil
		}
		if len(batch) == 0 {
			return
		}
		changes := Coalesce(batch)
		batch = batch[:0]
		for _, c := range changes {
			if err := w.sink.FileChanged(c.Source); err != nil {
				w.opts.Logf("watch: %s: %v", c.Source, err)
			}
		}
		if w.opts.OnBatch != nil {
			w.opts.OnBatch(changes)
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				flush()
				return nil
			}
			c, keep := w.translate(ev)
			if !keep {
				continue
			}
			batch = append(batch, c)
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
				fire = timer.C
			}
		case <-fire:
			timer, fire = nil, nil
			flush()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				flush()
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.opts.Logf("watch: event queue overflow, some changes may be missed")
				continue
			}
			w.opts.Logf("watch: %v", err)
		}
	}
}

// translate maps an fsnotify event to a Change. New directories are added
// to the watch set and produce no change of their own.
func (w *Watcher) translate(ev fsnotify.Event) (Change, bool) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if !w.ignored(ev.Name) {
				if err := w.addTree(ev.Name); err != nil {
					w.opts.Logf("watch: %s: %v", ev.Name, err)
				}
			}
			return Change{}, false
		}
	}
	if !w.accepts(ev.Name) || w.ignored(filepath.Dir(ev.Name)) {
		return Change{}, false
	}
	c := Change{Source: source.New(ev.Name)}
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		c.Op = OpRemove
	case ev.Has(fsnotify.Create):
		c.Op = OpCreate
	case ev.Has(fsnotify.Write):
		c.Op = OpWrite
	default:
		return Change{}, false
	}
	return c, true
}

// Coalesce keeps one change per source, in path order. A create followed
// by a write stays a create; any sequence ending in remove is a remove; a
// remove followed by a create is a write.
func Coalesce(batch []Change) []Change {
	last := make(map[source.Source]Change, len(batch))
	for _, c := range batch {
		prev, seen := last[c.Source]
		switch {
		case !seen:
		case prev.Op == OpCreate && c.Op == OpWrite:
			c.Op = OpCreate
		case prev.Op == OpRemove && c.Op == OpCreate:
			c.Op = OpWrite
		}
		last[c.Source] = c
	}
	out := make([]Change, 0, len(last))
	for _, c := range last {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source.Path() < out[j].Source.Path() })
	return out
}
