package policy

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events editors emit on save.
const DefaultDebounce = 500 * time.Millisecond

// Holder publishes the current policy snapshot to concurrent readers.
type Holder struct {
	current atomic.Pointer[Policy]
}

// NewHolder returns a Holder serving p.
func NewHolder(p *Policy) *Holder {
	h := &Holder{}
	h.current.Store(p)
	return h
}

// Load returns the current snapshot. Callers keep using the returned pointer
// for the whole evaluation of one request.
func (h *Holder) Load() *Policy {
	return h.current.Load()
}

// Store replaces the current snapshot.
func (h *Holder) Store(p *Policy) {
	h.current.Store(p)
}

// Watcher reloads a policy file into a Holder when it changes on disk.
// Invalid documents are logged and the previous snapshot stays in place.
type Watcher struct {
	Path     string
	Holder   *Holder
	Logger   *slog.Logger
	Debounce time.Duration

	// OnReload, when set, is called after every reload attempt.
	OnReload func(err error)

	fsw    *fsnotify.Watcher
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewWatcher creates a watcher for the policy file at path.
func NewWatcher(path string, holder *Holder, logger *slog.Logger) *Watcher {
	return &Watcher{
		Path:     filepath.Clean(path),
		Holder:   holder,
		Logger:   logger,
		Debounce: DefaultDebounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start watches the file's directory, so that editors replacing the file by
// rename are seen too. It returns once the watch is registered.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create policy watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.Path)); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watch policy directory: %w", err)
	}
	w.fsw = fsw

	go w.run()
	w.Logger.Info("policy watcher started", "path", w.Path)
	return nil
}

// Stop ends the watch and blocks until the worker exits.
func (w *Watcher) Stop() {
	close(w.stopCh)
	<-w.doneCh
	_ = w.fsw.Close()
	w.Logger.Info("policy watcher stopped")
}

func (w *Watcher) run() {
	defer close(w.doneCh)

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
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.Path {
				continue
			}
			if !event.Has(fsnotify.Write | fsnotify.Create | fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.Logger.Warn("policy watcher error", "error", err)

		case <-fire:
			fire = nil
			w.reload()

		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) reload() {
	next, err := Load(w.Path)
	if err != nil {
		w.Logger.Warn("policy reload rejected, keeping previous policy", "path", w.Path, "error", err)
	} else if next.Equal(w.Holder.Load()) {
		w.Logger.Debug("policy unchanged", "path", w.Path)
	} else {
		w.Holder.Store(next)
		w.Logger.Info("policy reloaded",
			"path", w.Path,
			"public_paths", len(next.PublicPaths),
			"required_roles", next.RequiredRoles,
			"app_routes", len(next.AppRoutes),
		)
	}

	if w.OnReload != nil {
		w.OnReload(err)
	}
}
