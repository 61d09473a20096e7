package document

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-extracts a document whenever it changes on disk.
type Watcher struct {
	extractor *Extractor
	path      string
	watcher   *fsnotify.Watcher
}

// NewWatcher starts watching path. The parent directory is watched so that
// editors which replace files on save are still observed.
func NewWatcher(extractor *Extractor, path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving document path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating document watcher: %w", err)
	}

	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching document dir: %w", err)
	}

	return &Watcher{
		extractor: extractor,
		path:      abs,
		watcher:   fw,
	}, nil
}

// Run blocks until ctx is done, calling onChange with the result of each
// re-extraction.
func (w *Watcher) Run(ctx context.Context, onChange func(Document, error)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			onChange(w.extractor.Extract(ctx, w.path))
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("document watcher error: %w", err)
		}
	}
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
