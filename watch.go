package main

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/ztrue/tracerr"
)

// watchFile calls rebuild once, then again whenever path is written, until
// ctx is done.
func watchFile(ctx context.Context, path string, rebuild func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return tracerr.Wrap(err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return tracerr.Wrap(err)
	}
	defer w.Close()

	// editors often save by replacing the file, which drops a watch on the
	// file itself
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return tracerr.Wrap(err)
	}

	rebuild()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			plog.Debugf("%s: %s", ev.Op, path)
			rebuild()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			plog.Warningf("watching %s: %v", path, err)
		}
	}
}
