package storage

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultPollInterval is the refresh period for poll-based watches
const DefaultPollInterval = 30 * time.Second

// ReadFunc fetches the current value of a watched path
type ReadFunc func(ctx context.Context) (any, error)

// Watcher re-reads one path whenever it is signalled and reports changed
// values. Signals are coalesced, so a burst of writes yields at most one
// extra read, and delivery happens on the watcher's own goroutine.
type Watcher struct {
	path   Path
	read   ReadFunc
	fn     WatchFunc
	dirty  chan struct{}
	stop   chan struct{}
	once   sync.Once
	active atomic.Bool
	onStop func()
}

func newWatcher(path Path, read ReadFunc, fn WatchFunc) *Watcher {
	return &Watcher{
		path:  path,
		read:  read,
		fn:    fn,
		dirty: make(chan struct{}, 1),
		stop:  make(chan struct{}),
	}
}

// Signal asks the watcher to re-read its path
func (w *Watcher) Signal() {
	select {
	case w.dirty <- struct{}{}:
	default:
	}
}

// Stop ends the watch. No callback starts after Stop returns.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		w.active.Store(false)
		close(w.stop)
		if w.onStop != nil {
			w.onStop()
		}
	})
}

func (w *Watcher) start(ctx context.Context) {
	w.active.Store(true)
	go w.run(ctx)
}

func (w *Watcher) run(ctx context.Context) {
	var last any
	delivered := false
	failing := false

	refresh := func() {
		value, err := w.read(ctx)
		if !w.active.Load() || ctx.Err() != nil {
			return
		}
		if err != nil {
			failing = true
			w.fn(nil, err)
			return
		}
		if delivered && !failing && reflect.DeepEqual(last, value) {
			return
		}
		delivered = true
		failing = false
		last = value
		w.fn(Clone(value), nil)
	}

	refresh()
	for {
		select {
		case <-w.dirty:
			refresh()
		case <-w.stop:
			return
		case <-ctx.Done():
			w.Stop()
			return
		}
	}
}

// WatcherSet tracks the live watchers of a push-notifying backend
type WatcherSet struct {
	mu       sync.Mutex
	watchers map[*Watcher]struct{}
}

// NewWatcherSet creates an empty set
func NewWatcherSet() *WatcherSet {
	return &WatcherSet{watchers: make(map[*Watcher]struct{})}
}

// Watch registers and starts a watcher for path
func (s *WatcherSet) Watch(ctx context.Context, path Path, read ReadFunc, fn WatchFunc) Unsubscribe {
	w := newWatcher(path, read, fn)
	w.onStop = func() { s.remove(w) }

	s.mu.Lock()
	s.watchers[w] = struct{}{}
	s.mu.Unlock()

	w.start(ctx)
	return w.Stop
}

// Notify signals every watcher whose path overlaps changed
func (s *WatcherSet) Notify(changed Path) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for w := range s.watchers {
		if w.path.Overlaps(changed) {
			w.Signal()
		}
	}
}

// Len returns the number of live watchers
func (s *WatcherSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watchers)
}

// StopAll stops every watcher
func (s *WatcherSet) StopAll() {
	s.mu.Lock()
	all := make([]*Watcher, 0, len(s.watchers))
	for w := range s.watchers {
		all = append(all, w)
	}
	s.mu.Unlock()

	for _, w := range all {
		w.Stop()
	}
}

func (s *WatcherSet) remove(w *Watcher) {
	s.mu.Lock()
	delete(s.watchers, w)
	s.mu.Unlock()
}

// PollWatch implements Watch for backends without change notification by
// re-reading the path every interval
func PollWatch(ctx context.Context, path Path, read ReadFunc, interval time.Duration, fn WatchFunc) Unsubscribe {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	w := newWatcher(path, read, fn)
	w.onStop = cancel
	w.start(ctx)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.Signal()
			case <-ctx.Done():
				return
			}
		}
	}()

	return w.Stop
}
