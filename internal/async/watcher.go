package async

import (
	"github.com/fsnotify/fsnotify"
	"k8s.io/klog/v2"
)

// DirectoryWatcher watches a directory for new/renamed files and invokes onChange whenever one
// appears, used by Selfplayer to re-check for a new model generation as soon as the directory
// changes rather than waiting for the next poll interval (spec.md 4.8's DirectoryWatcher).
type DirectoryWatcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewDirectoryWatcher starts watching dir, calling onChange (on its own goroutine) for every
// Create, Write, or Rename event.
func NewDirectoryWatcher(dir string, onChange func()) (*DirectoryWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}

	dw := &DirectoryWatcher{watcher: w, done: make(chan struct{})}
	go dw.loop(onChange)
	return dw, nil
}

func (dw *DirectoryWatcher) loop(onChange func()) {
	defer close(dw.done)
	for {
		select {
		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				onChange()
			}
		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			klog.Warningf("async: directory watcher error: %v", err)
		}
	}
}

// Close stops the watcher and its goroutine.
func (dw *DirectoryWatcher) Close() error {
	err := dw.watcher.Close()
	<-dw.done
	return err
}
