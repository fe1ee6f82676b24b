package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/loov/hrtime"

	"github.com/adinfit/glmaterial/material"
)

// Reloader recompiles material files when they change on disk. It watches
// the containing directories so editors that save by renaming still trigger
// a reload.
type Reloader struct {
	compiler *material.Compiler
	log      *slog.Logger
	watcher  *fsnotify.Watcher
	files    map[string]bool
}

func NewReloader(compiler *material.Compiler, log *slog.Logger, paths []string) (*Reloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("unable to create file watcher: %w", err)
	}

	r := &Reloader{
		compiler: compiler,
		log:      log,
		watcher:  watcher,
		files:    make(map[string]bool),
	}
	dirs := make(map[string]bool)
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			watcher.Close()
			return nil, err
		}
		r.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("unable to watch %q: %w", dir, err)
		}
	}
	return r, nil
}

// Poll handles pending file events without blocking. A failed reload is
// logged; shaders that failed keep their previous program.
func (r *Reloader) Poll() {
	changed := make(map[string]bool)
drain:
	for {
		select {
		case event, ok := <-r.watcher.Events:
			if !ok {
				break drain
			}
			if r.files[event.Name] && event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				changed[event.Name] = true
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				break drain
			}
			r.log.Error("file watcher failed", "err", err)
		default:
			break drain
		}
	}

	for path := range changed {
		start := hrtime.Now()
		if err := r.compiler.LoadMaterialFile(path); err != nil {
			r.log.Error("reload failed", "path", path, "fatal", material.IsFatal(err), "err", material.Message(err))
			continue
		}
		r.log.Info("reloaded", "path", path, "took", hrtime.Since(start))
	}
}

func (r *Reloader) Close() error { return r.watcher.Close() }
