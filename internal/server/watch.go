package server

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of events a single copy produces.
const watchDebounce = 300 * time.Millisecond

// startWatch refreshes the connector when path is written or recreated. The
// parent directory is watched so atomic renames onto path are seen.
func (s *Server) startWatch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("server: watch %q: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("server: watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return fmt.Errorf("server: watch %q: %w", filepath.Dir(abs), err)
	}
	s.watcher = w
	go s.watchLoop(w, abs)
	s.log.Info("server: watching extract", "path", abs)
	return nil
}

func (s *Server) watchLoop(w *fsnotify.Watcher, path string) {
	var timer *time.Timer
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				if timer != nil {
					timer.Stop()
				}
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if p, _ := filepath.Abs(ev.Name); p != path {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				s.log.Info("server: extract changed", "path", path)
				s.refreshJob()
			})
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.log.Warn("server: watcher error", "err", err)
		}
	}
}
