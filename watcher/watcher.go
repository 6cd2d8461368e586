// Package watcher reloads data when the CSV exports change on disk.
package watcher

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups the burst of events a single save produces.
const DefaultDebounce = 500 * time.Millisecond

// Watcher calls onChange with the names of the exports that changed, at
// most once per debounce period.
type Watcher struct {
	dir      string
	debounce time.Duration
	onChange func(names []string)
	fw       *fsnotify.Watcher
}

// New watches dir. The caller must Close the watcher.
func New(dir string, debounce time.Duration, onChange func(names []string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{dir: dir, debounce: debounce, onChange: onChange, fw: fw}, nil
}

func isExport(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}

const relevantOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// Run delivers change notifications until ctx is done or the watcher is
// closed.
func (w *Watcher) Run(ctx context.Context) error {
	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()

		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&relevantOps == 0 || !isExport(ev.Name) {
				continue
			}
			pending[filepath.Base(ev.Name)] = true
			timer.Reset(w.debounce)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watcher error on %s: %v", w.dir, err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			sort.Strings(names)
			pending = make(map[string]bool)
			log.Printf("Exports changed in %s: %s", w.dir, strings.Join(names, ", "))
			w.onChange(names)
		}
	}
}

func (w *Watcher) Close() error {
	return w.fw.Close()
}
