// Package watcher observes the journal folder and reports settled markdown changes.
package watcher

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDelay is how long a file must stay quiet before it is reported.
const DefaultDelay = 500 * time.Millisecond

// Handler receives the absolute path of a markdown file whose changes have settled.
// It is called from timer goroutines and must be safe for concurrent use.
type Handler func(path string)

// Session watches one directory at a time. Events are debounced per file:
// a new event for a path cancels and restarts that path's pending timer.
type Session struct {
	logger  *slog.Logger
	delay   time.Duration
	handler Handler

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	dir     string
	done    chan struct{}
	wg      sync.WaitGroup
	pending map[string]*timer
}

type timer struct {
	t *time.Timer
}

// New creates a stopped session. delay <= 0 selects DefaultDelay.
func New(logger *slog.Logger, delay time.Duration, h Handler) *Session {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Session{
		logger:  logger,
		delay:   delay,
		handler: h,
		pending: make(map[string]*timer),
	}
}

// Start begins watching dir, replacing any directory watched before.
// A missing directory is not an error: the session simply stays idle.
func (s *Session) Start(dir string) error {
	s.Stop()

	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("watcher: resolve dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		s.logger.Debug("watcher: directory unavailable, not watching", slog.String("dir", abs))
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: create: %w", err)
	}
	if err := fsw.Add(abs); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watcher: add %s: %w", abs, err)
	}

	s.mu.Lock()
	s.fsw = fsw
	s.dir = abs
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(fsw, s.done)

	s.logger.Info("watcher: started", slog.String("dir", abs))
	return nil
}

// Stop ends the session and cancels pending timers. It is safe to call on
// a stopped session.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.fsw == nil {
		s.mu.Unlock()
		return
	}
	fsw, done, dir := s.fsw, s.done, s.dir
	s.fsw, s.done, s.dir = nil, nil, ""
	for p, pt := range s.pending {
		pt.t.Stop()
		delete(s.pending, p)
	}
	s.mu.Unlock()

	close(done)
	_ = fsw.Close()
	s.wg.Wait()
	s.logger.Info("watcher: stopped", slog.String("dir", dir))
}

// Watching reports whether a directory is currently observed.
func (s *Session) Watching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fsw != nil
}

// Dir returns the observed directory, or "" when stopped.
func (s *Session) Dir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir
}

func (s *Session) loop(fsw *fsnotify.Watcher, done <-chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case <-done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if ev.Op == fsnotify.Chmod || !Relevant(ev.Name) {
				continue
			}
			s.schedule(ev.Name)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			s.logger.Error("watcher: error", slog.String("error", err.Error()))
		}
	}
}

// schedule (re)arms the debounce timer for path.
func (s *Session) schedule(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fsw == nil {
		return
	}
	if old, ok := s.pending[path]; ok {
		old.t.Stop()
	}
	pt := &timer{}
	pt.t = time.AfterFunc(s.delay, func() { s.fire(path, pt) })
	s.pending[path] = pt
}

func (s *Session) fire(path string, pt *timer) {
	s.mu.Lock()
	if s.pending[path] != pt {
		// Superseded by a newer event or the session was stopped.
		s.mu.Unlock()
		return
	}
	delete(s.pending, path)
	s.mu.Unlock()

	if _, err := os.Stat(path); err != nil {
		s.logger.Debug("watcher: file gone before sync", slog.String("path", path))
		return
	}
	s.handler(path)
}

// Relevant reports whether path names a journal markdown file: a .md file
// whose name does not start with the reserved "_" prefix.
func Relevant(path string) bool {
	name := filepath.Base(path)
	return strings.HasSuffix(name, ".md") && !strings.HasPrefix(name, "_")
}
