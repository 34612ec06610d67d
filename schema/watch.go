package schema

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports schemas whose source definitions change on disk, so
// callers can regenerate them without polling IsOutdated.
type Watcher struct {
	fw     *fsnotify.Watcher
	events chan string
	done   chan struct{}
	byPath map[string]*Schema
}

// Watch starts watching the source files of the given schemas, resolved
// against basePath. Schemas without an ID are skipped.
func Watch(basePath string, schemas ...*Schema) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fw:     fw,
		events: make(chan string, 16),
		done:   make(chan struct{}),
		byPath: make(map[string]*Schema, len(schemas)),
	}
	for _, s := range schemas {
		path, _, err := s.Source()
		if err != nil {
			continue
		}
		if basePath != "" && !filepath.IsAbs(path) {
			path = filepath.Join(basePath, path)
		}
		if err := fw.Add(path); err != nil {
			fw.Close()
			return nil, err
		}
		w.byPath[path] = s
	}
	go w.loop()
	return w, nil
}

// Events returns the channel on which changed table names are delivered.
func (w *Watcher) Events() <-chan string {
	return w.events
}

// Close stops the watcher and closes the events channel.
func (w *Watcher) Close() error {
	err := w.fw.Close()
	<-w.done
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	defer close(w.events)
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			if s, ok := w.byPath[filepath.Clean(ev.Name)]; ok {
				// Drop the notification when the consumer lags; IsOutdated
				// remains the authoritative check.
				select {
				case w.events <- s.Table:
				default:
				}
			}
		case _, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			// Watch errors are not actionable here; the caller still owns
			// IsOutdated as the authoritative check.
		}
	}
}
