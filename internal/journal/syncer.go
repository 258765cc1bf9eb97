// Package journal keeps quests and their markdown files in step.
//
// A Syncer is not safe for concurrent use: the caller serializes every call
// (the quest service does this with a single mutex), which also keeps the
// store access of one sync pass from interleaving with another.
package journal

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/questlog/internal/apperr"
	"github.com/starford/questlog/internal/markdown"
	"github.com/starford/questlog/internal/models"
	"github.com/starford/questlog/internal/questmd"
	"github.com/starford/questlog/internal/selfwrite"
	"github.com/starford/questlog/internal/storage"
)

// ErrNoJournal is returned when a file operation needs a journal folder and none is set.
var ErrNoJournal = errors.New("journal: no journal folder configured")

// Store is the slice of the quest store the sync engine needs.
type Store interface {
	FindQuestBySourceFile(path string) (*models.Quest, error)
	GetQuest(id string) (*models.Quest, error)
	CreateQuest(in models.QuestInput) (*models.Quest, error)
	UpdateQuest(id string, p models.QuestPatch) (*models.Quest, error)
	ListObjectives(questID string) ([]models.Objective, error)
	CreateObjective(questID, text string) (*models.Objective, error)
	UpdateObjective(id string, p models.ObjectivePatch) (*models.Objective, error)
	DeleteObjective(id string) error
	GetOrCreateDomain(name, color string) (*models.Domain, error)
	GetDomainName(id string) (string, error)
	SourceFiles() (map[string]string, error)
}

// Syncer runs the file → store read path and the store → file write path.
type Syncer struct {
	store  Store
	echoes *selfwrite.Registry
	logger *slog.Logger
	now    func() time.Time

	files storage.Provider // nil until a journal folder is set
}

// New creates a Syncer with no journal folder.
func New(store Store, echoes *selfwrite.Registry, logger *slog.Logger) *Syncer {
	return &Syncer{
		store:  store,
		echoes: echoes,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock replaces the time source used to date new Quest Log entries.
func (s *Syncer) SetClock(now func() time.Time) { s.now = now }

// SetJournal points the syncer at dir. An empty dir detaches it.
func (s *Syncer) SetJournal(dir string) error {
	if dir == "" {
		s.files = nil
		return nil
	}
	fs, err := storage.NewFS(dir)
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	s.files = fs
	return nil
}

// Journal returns the absolute journal folder, or "" when unset.
func (s *Syncer) Journal() string {
	if s.files == nil {
		return ""
	}
	return s.files.Root()
}

// SyncFile runs the read path for path. It reports whether the store changed;
// an echo of our own write (or of content already synced) changes nothing.
func (s *Syncer) SyncFile(path string) (bool, error) {
	if s.files == nil {
		return false, ErrNoJournal
	}
	abs, err := s.files.Abs(path)
	if err != nil {
		return false, err
	}
	data, err := s.files.Read(abs)
	if err != nil {
		return false, err
	}
	if s.echoes.IsEcho(abs, data) {
		s.logger.Debug("journal: echo ignored", slog.String("path", abs))
		return false, nil
	}

	fields, err := decode(data)
	if err != nil {
		return false, fmt.Errorf("journal: parse %s: %w", abs, err)
	}

	existing, err := s.store.FindQuestBySourceFile(abs)
	switch {
	case err == nil:
		if err := s.updateFromFile(existing, abs, fields); err != nil {
			return false, err
		}
	case errors.Is(err, apperr.ErrNotFound):
		if _, err := s.createFromFile(abs, fields); err != nil {
			return false, err
		}
	default:
		return false, err
	}

	s.echoes.Observe(abs, data)
	return true, nil
}

func decode(data []byte) (questmd.Fields, error) {
	doc, err := markdown.Parse(data)
	if err != nil {
		return questmd.Fields{}, err
	}
	return questmd.Decode(doc), nil
}

func titleFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".md")
}

func (s *Syncer) domainID(name string) (string, error) {
	if name == "" {
		return "", nil
	}
	d, err := s.store.GetOrCreateDomain(name, "")
	if err != nil {
		return "", fmt.Errorf("journal: domain %q: %w", name, err)
	}
	return d.ID, nil
}

// createFromFile makes a new quest linked to path with the file's full checklist.
func (s *Syncer) createFromFile(path string, f questmd.Fields) (*models.Quest, error) {
	domain, err := s.domainID(f.Domain)
	if err != nil {
		return nil, err
	}
	in := models.QuestInput{
		Title:       titleFromPath(path),
		Goal:        f.Goal,
		Description: f.Description,
		Domain:      domain,
		Active:      f.Active,
		Priority:    f.Priority,
		SourceFile:  &path,
	}
	if f.WaitingFor != "" {
		w := f.WaitingFor
		in.WaitingFor = &w
	}
	q, err := s.store.CreateQuest(in)
	if err != nil {
		return nil, fmt.Errorf("journal: create quest from %s: %w", path, err)
	}
	for _, o := range f.InitialObjectives() {
		obj, err := s.store.CreateObjective(q.ID, o.Text)
		if err != nil {
			return nil, fmt.Errorf("journal: create objective: %w", err)
		}
		if o.Completed {
			done := true
			if _, err := s.store.UpdateObjective(obj.ID, models.ObjectivePatch{Completed: &done}); err != nil {
				return nil, fmt.Errorf("journal: complete objective: %w", err)
			}
		}
	}
	s.logger.Info("journal: quest created from file", slog.String("path", path), slog.String("id", q.ID))
	return q, nil
}

// updateFromFile folds an external edit into q. Optional frontmatter keys
// are applied only when the file states them.
func (s *Syncer) updateFromFile(q *models.Quest, path string, f questmd.Fields) error {
	domain, err := s.domainID(f.Domain)
	if err != nil {
		return err
	}
	title := titleFromPath(path)
	p := models.QuestPatch{
		Title:       &title,
		Goal:        &f.Goal,
		Description: &f.Description,
		Domain:      &domain,
	}
	if f.HasActive {
		p.Active = &f.Active
	}
	if f.HasPriority {
		p.Priority = &f.Priority
	}
	if f.HasWaiting {
		var w *string
		if f.WaitingFor != "" {
			v := f.WaitingFor
			w = &v
		}
		p.WaitingFor = &w
	}
	if _, err := s.store.UpdateQuest(q.ID, p); err != nil {
		return fmt.Errorf("journal: update quest %s: %w", q.ID, err)
	}
	if err := s.mergeObjectives(q.ID, f.Objectives); err != nil {
		return err
	}
	s.logger.Info("journal: quest updated from file", slog.String("path", path), slog.String("id", q.ID))
	return nil
}

// mergeObjectives reconciles the stored checklist with lines by text.
//
// Each line reuses the first not-yet-matched stored objective with the same
// text, keeping its id; unmatched lines become new objectives and unmatched
// stored objectives are deleted. Duplicate texts may pair with the "wrong"
// twin, which is harmless for a single user. sort_order ends up as the
// markdown order.
func (s *Syncer) mergeObjectives(questID string, lines []questmd.ObjectiveLine) error {
	existing, err := s.store.ListObjectives(questID)
	if err != nil {
		return fmt.Errorf("journal: list objectives: %w", err)
	}
	plan := matchObjectives(existing, lines)

	used := make([]bool, len(existing))
	for _, j := range plan {
		if j >= 0 {
			used[j] = true
		}
	}
	deleted := false
	for j, o := range existing {
		if used[j] {
			continue
		}
		if err := s.store.DeleteObjective(o.ID); err != nil {
			return fmt.Errorf("journal: delete objective: %w", err)
		}
		deleted = true
	}

	// Deletes compact sort_order, so reload the survivors' positions.
	current := make(map[string]models.Objective, len(existing))
	if deleted {
		remaining, err := s.store.ListObjectives(questID)
		if err != nil {
			return fmt.Errorf("journal: list objectives: %w", err)
		}
		for _, o := range remaining {
			current[o.ID] = o
		}
	} else {
		for _, o := range existing {
			current[o.ID] = o
		}
	}

	for i, line := range lines {
		var cur models.Objective
		if j := plan[i]; j >= 0 {
			cur = current[existing[j].ID]
		} else {
			created, err := s.store.CreateObjective(questID, line.Text)
			if err != nil {
				return fmt.Errorf("journal: create objective: %w", err)
			}
			cur = *created
		}
		if cur.SortOrder == i && cur.Completed == line.Completed {
			continue
		}
		order, done := i, line.Completed
		if _, err := s.store.UpdateObjective(cur.ID, models.ObjectivePatch{SortOrder: &order, Completed: &done}); err != nil {
			return fmt.Errorf("journal: update objective: %w", err)
		}
	}
	return nil
}

// matchObjectives returns, for each line, the index of the stored objective
// it reuses, or -1.
func matchObjectives(existing []models.Objective, lines []questmd.ObjectiveLine) []int {
	consumed := make([]bool, len(existing))
	plan := make([]int, len(lines))
	for i, line := range lines {
		plan[i] = -1
		for j, o := range existing {
			if !consumed[j] && o.Text == line.Text {
				consumed[j] = true
				plan[i] = j
				break
			}
		}
	}
	return plan
}
