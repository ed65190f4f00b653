package sync

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conorfennell/studydeck/internal/storage"
)

// Watch re-runs the sync whenever a note under a local source changes,
// until ctx is cancelled. Bursts of events are coalesced into one run after
// debounce. Git sources are only refreshed by explicit syncs. Sources added
// after Watch starts are not watched.
func (s *Syncer) Watch(ctx context.Context, debounce time.Duration) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	sources, err := s.db.GetAllSources()
	if err != nil {
		return err
	}
	watched := 0
	for _, src := range sources {
		if src.Type != storage.SourceLocal {
			continue
		}
		if err := addDirsRecursive(w, src.Path); err != nil {
			slog.Warn("watcher: cannot watch source", "path", src.Path, "error", err)
			continue
		}
		watched++
	}
	slog.Info("watcher: started", "sources", watched)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("watcher: stopped")
			return nil

		case <-timer.C:
			if _, err := s.Run(ctx); err != nil {
				slog.Error("watcher: sync failed", "error", err)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if err := addDirsRecursive(w, ev.Name); err != nil {
						slog.Warn("watcher: add new dir failed", "path", ev.Name, "error", err)
					}
					timer.Reset(debounce)
					continue
				}
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !noteExtensions[strings.ToLower(filepath.Ext(ev.Name))] {
				continue
			}
			slog.Debug("watcher: note changed", "path", ev.Name)
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher: error", "error", err)
		}
	}
}

// addDirsRecursive adds root and its subdirectories, skipping .git.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
