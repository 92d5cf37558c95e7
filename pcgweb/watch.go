package pcgweb

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleTime lets editors finish writing before the settings file is read.
const settleTime = 100 * time.Millisecond

// WatchSettings reloads the server whenever the settings file at path is written,
// until ctx is cancelled. Settings that fail to decode or build are logged and
// the current scene is kept. The parent directory is watched so that editors
// replacing the file by rename are picked up.
func (s *Server) WatchSettings(ctx context.Context, path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	path = filepath.Clean(path)
	err = w.Add(filepath.Dir(path))
	if err != nil {
		return err
	}
	var reload <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			reload = time.After(settleTime)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Println("watching settings:", err)
		case <-reload:
			reload = nil
			cfg, err := LoadSettings(path)
			if err == nil {
				err = s.Reload(cfg)
			}
			if err != nil {
				s.logger.Println("reloading settings:", err)
				continue
			}
			s.logger.Println("reloaded settings from", path)
		}
	}
}
