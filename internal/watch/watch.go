// Package watch auto-stages working files as they change, using a
// recursive fsnotify watcher over the repository's working tree.
package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Piyush29quanta/zit-my-git/internal/repo"
	"github.com/Piyush29quanta/zit-my-git/internal/workspace"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher stages every write to an eligible working file. Events are
// applied strictly one at a time, so the staging area never sees
// overlapping mutations from the watcher.
type Watcher struct {
	repo    *repo.Repo
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	done    chan struct{}
}

// New builds a watcher over every non-ignored directory under the
// repository root and starts its event loop.
func New(r *repo.Repo, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	w := &Watcher{
		repo:    r,
		watcher: fsw,
		logger:  logger,
		done:    make(chan struct{}),
	}

	if err := w.addDirs(r.Root()); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching working tree: %w", err)
	}

	go w.loop()
	return w, nil
}

func (w *Watcher) addDirs(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel != "." && workspace.ShouldIgnore(rel) {
			return fs.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	rel, err := filepath.Rel(w.repo.Root(), event.Name)
	if err != nil {
		w.logger.Error("resolving event path", zap.Error(err))
		return
	}
	if workspace.ShouldIgnore(rel) {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		// New directories join the watch set; their files arrive as
		// their own events.
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				w.logger.Error("watching new directory",
					zap.String("path", rel), zap.Error(err))
			}
			return
		}
	}

	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	if err := w.repo.Add(event.Name); err != nil {
		w.logger.Warn("auto-staging failed",
			zap.String("path", rel), zap.Error(err))
		return
	}
	w.logger.Info("auto-staged", zap.String("path", rel))
}

// Close stops the event loop and waits for it to drain.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
