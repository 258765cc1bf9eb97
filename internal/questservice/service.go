// Package questservice is the mutation boundary for quests, objectives,
// domains and settings. Every entry point (HTTP, MCP, file watcher, CLI
// import) goes through a Service, which serializes them behind one mutex.
package questservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/starford/questlog/internal/apperr"
	"github.com/starford/questlog/internal/journal"
	"github.com/starford/questlog/internal/models"
	"github.com/starford/questlog/internal/store"
)

// DefaultActiveLimit caps how many open quests may be active at once.
const DefaultActiveLimit = 5

// Notifier is told once per successful mutation that data changed.
type Notifier interface {
	NotifyChanged()
}

// ImportNotifier is implemented by notifiers that also want the counts of a
// journal import.
type ImportNotifier interface {
	NotifyImported(dir string, res journal.ImportResult)
}

// Watcher is the file watcher session restarted when the journal folder changes.
type Watcher interface {
	Start(dir string) error
	Stop()
}

// Service coordinates the store, the journal files and change notification.
type Service struct {
	mu          sync.Mutex
	db          store.Store
	sync        *journal.Syncer
	logger      *slog.Logger
	activeLimit int
	now         func() time.Time

	notifier Notifier
	watcher  Watcher
}

// NewService creates a quest service. activeLimit <= 0 selects DefaultActiveLimit.
func NewService(db store.Store, syncer *journal.Syncer, logger *slog.Logger, activeLimit int) *Service {
	if activeLimit <= 0 {
		activeLimit = DefaultActiveLimit
	}
	return &Service{
		db:          db,
		sync:        syncer,
		logger:      logger,
		activeLimit: activeLimit,
		now:         time.Now,
	}
}

// SetNotifier installs the change listener.
func (s *Service) SetNotifier(n Notifier) {
	s.mu.Lock()
	s.notifier = n
	s.mu.Unlock()
}

// SetWatcher installs the watcher session managed by SetJournalFolder.
func (s *Service) SetWatcher(w Watcher) {
	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()
}

// Start seeds the default domains and attaches the journal folder: the stored
// setting, or fallback when none is stored yet. An attached folder is
// imported (picking up files added while the app was closed) and watched.
func (s *Service) Start(_ context.Context, fallback string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.EnsureDefaultDomains(); err != nil {
		return err
	}
	folder, err := s.db.GetSetting(store.SettingJournalFolder)
	if err != nil {
		return err
	}
	if folder == "" {
		folder = fallback
	}
	if folder == "" {
		s.logger.Info("questservice: no journal folder configured")
		return nil
	}
	if _, err := s.attachJournal(folder); err != nil {
		// A vanished folder should not keep the app from starting.
		s.logger.Warn("questservice: journal folder unavailable",
			slog.String("dir", folder), slog.String("error", err.Error()))
		return nil
	}
	return nil
}

// Stop ends file watching.
func (s *Service) Stop() {
	s.mu.Lock()
	w := s.watcher
	s.mu.Unlock()
	if w != nil {
		w.Stop()
	}
}

// attachJournal points the syncer at dir, persists it, imports it and
// (re)starts the watcher. Caller holds s.mu.
func (s *Service) attachJournal(dir string) (journal.ImportResult, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return journal.ImportResult{}, err
	}
	if err := s.sync.SetJournal(abs); err != nil {
		return journal.ImportResult{}, err
	}
	if err := s.db.SetSetting(store.SettingJournalFolder, abs); err != nil {
		return journal.ImportResult{}, err
	}
	res, err := s.sync.Import(abs)
	if err != nil {
		return res, err
	}
	if s.watcher != nil {
		if err := s.watcher.Start(abs); err != nil {
			return res, err
		}
	}
	s.logger.Info("questservice: journal attached", slog.String("dir", abs))
	return res, nil
}

func (s *Service) notify() {
	if s.notifier != nil {
		s.notifier.NotifyChanged()
	}
}

func (s *Service) notifyImported(dir string, res journal.ImportResult) {
	if n, ok := s.notifier.(ImportNotifier); ok {
		n.NotifyImported(dir, res)
	}
}

// writeBack renders the quest to its journal file. The store stays the source
// of truth: a failed write is logged and the file catches up on the next one.
func (s *Service) writeBack(id string) {
	if s.sync.Journal() == "" {
		return
	}
	if _, err := s.sync.WriteQuest(id); err != nil {
		s.logger.Error("questservice: write quest file failed",
			slog.String("id", id), slog.String("error", err.Error()))
	}
}

// HandleFileChange runs the read path for a settled watcher event. Failures
// are logged; the watcher stays armed.
func (s *Service) HandleFileChange(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed, err := s.sync.SyncFile(path)
	if err != nil {
		s.logger.Error("questservice: sync file failed",
			slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	if changed {
		s.notify()
	}
}

// Settings returns the persisted preferences.
func (s *Service) Settings(_ context.Context) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	folder, err := s.db.GetSetting(store.SettingJournalFolder)
	if err != nil {
		return models.Settings{}, err
	}
	return models.Settings{JournalFolder: folder}, nil
}

// SetJournalFolder validates dir, stores it, imports it and restarts the watcher on it.
func (s *Service) SetJournalFolder(_ context.Context, dir string) (journal.ImportResult, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return journal.ImportResult{}, apperr.ValidationError{Field: "journal_folder", Message: "cannot be blank"}
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return journal.ImportResult{}, apperr.ValidationError{Field: "journal_folder", Message: fmt.Sprintf("%s is not a directory", dir)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.attachJournal(dir)
	if err != nil {
		return res, err
	}
	s.notifyImported(s.sync.Journal(), res)
	s.notify()
	return res, nil
}

// Import runs a one-shot bulk import of dir, or of the journal folder when dir is empty.
func (s *Service) Import(_ context.Context, dir string) (journal.ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dir == "" {
		dir = s.sync.Journal()
	}
	if dir == "" {
		return journal.ImportResult{}, apperr.ValidationError{Field: "dir", Message: "no journal folder configured"}
	}
	res, err := s.sync.Import(dir)
	if err != nil {
		return res, err
	}
	s.notifyImported(dir, res)
	if res.Imported > 0 || res.Updated > 0 {
		s.notify()
	}
	return res, nil
}

func notFoundAs(err error, field, msg string) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.ValidationError{Field: field, Message: msg}
	}
	return err
}
