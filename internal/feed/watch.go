package feed

import (
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reports changes to feed files. It watches the parent directories so
// files replaced by rename are still seen, and coalesces bursts of events.
type Watcher struct {
	paths    map[string]struct{}
	debounce time.Duration
	onChange func(path string)
	log      *zap.Logger

	fs       *fsnotify.Watcher
	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewWatcher creates a watcher for paths. onChange runs on the watcher goroutine
// once per burst, with the last path that changed.
func NewWatcher(paths []string, debounce time.Duration, onChange func(string), log *zap.Logger) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("no paths to watch")
	}
	if log == nil {
		log = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		paths:    make(map[string]struct{}, len(paths)),
		debounce: debounce,
		onChange: onChange,
		log:      log.Named("feed.watcher"),
		fs:       fsw,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fsw.Close()
			return nil, err
		}
		w.paths[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for d := range dirs {
		if err := fsw.Add(d); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Start begins watching in a goroutine. Calls after the first, or after Stop,
// do nothing.
func (w *Watcher) Start() {
	if w.started.CompareAndSwap(false, true) {
		go w.loop()
	}
}

// Stop terminates the watcher and waits for the goroutine to exit.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		err = w.fs.Close()
		if w.started.CompareAndSwap(false, true) {
			// never started, no loop to wait for
			close(w.done)
			return
		}
		<-w.done
	})
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending string
	)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if _, watched := w.paths[filepath.Clean(ev.Name)]; !watched {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			pending = ev.Name
			if w.debounce <= 0 {
				w.fire(pending)
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			w.fire(pending)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) fire(path string) {
	w.log.Info("feed file changed", zap.String("path", path))
	if w.onChange != nil {
		w.onChange(path)
	}
}
