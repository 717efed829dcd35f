// Package watch re-imports a file into a table when it changes on disk.
package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/golang/glog"

	"github.com/dshills/cellstore/internal/config"
	"github.com/dshills/cellstore/internal/csvio"
	"github.com/dshills/cellstore/internal/table"
)

// DefaultDebounce is used when a non-positive debounce is configured.
const DefaultDebounce = 100 * time.Millisecond

// ErrPathNotExist is returned when the watched file does not exist.
var ErrPathNotExist = errors.New("path does not exist")

// ReloadFunc loads the watched file.
type ReloadFunc func(ctx context.Context) error

// Watcher calls a ReloadFunc after writes to one file settle.
//
// The parent directory is watched so that editors which replace the file
// by renaming over it are seen as a create of the same name.
type Watcher struct {
	path     string
	debounce time.Duration
	reload   ReloadFunc
	onReload func(error)

	fsw     *fsnotify.Watcher
	reloads atomic.Int64
	errors  atomic.Int64
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period after the last event before reloading.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithOnReload registers fn to be called with the result of every reload.
func WithOnReload(fn func(error)) Option {
	return func(w *Watcher) { w.onReload = fn }
}

// New watches path and calls reload after it changes.
func New(path string, reload ReloadFunc, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrPathNotExist
		}
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     abs,
		debounce: DefaultDebounce,
		reload:   reload,
		fsw:      fsw,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// CSV watches a CSV file and replaces the contents of t on every change.
func CSV(t *table.Table, path string, csv config.CSVConfig, watch config.WatchConfig, opts ...Option) (*Watcher, error) {
	reload := func(ctx context.Context) error {
		return csvio.ImportFile(ctx, t, path, csv)
	}
	return New(path, reload, append([]Option{WithDebounce(watch.Debounce)}, opts...)...)
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Reloads returns the number of reloads run so far.
func (w *Watcher) Reloads() int64 {
	return w.reloads.Load()
}

// Errors returns the number of failed reloads and watcher errors.
func (w *Watcher) Errors() int64 {
	return w.errors.Load()
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	glog.Infof("watch: watching %s (debounce %s)", w.path, w.debounce)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			if glog.V(2) {
				glog.Infof("watch: %s", ev)
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.errors.Add(1)
			glog.Warningf("watch: %s: %v", w.path, err)

		case <-fire:
			fire = nil
			w.run(ctx)
		}
	}
}

// Close stops watching. A running Run returns.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}

func (w *Watcher) run(ctx context.Context) {
	err := w.reload(ctx)
	w.reloads.Add(1)
	if err != nil {
		w.errors.Add(1)
		glog.Errorf("watch: reloading %s: %v", w.path, err)
	} else {
		glog.V(1).Infof("watch: reloaded %s", w.path)
	}
	if w.onReload != nil {
		w.onReload(err)
	}
}
