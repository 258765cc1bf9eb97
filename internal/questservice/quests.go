package questservice

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/questlog/internal/apperr"
	"github.com/starford/questlog/internal/models"
)

// NewQuest holds the fields accepted when creating a quest.
type NewQuest struct {
	Title       string
	Goal        string
	Description string
	Domain      string // domain id
	Active      bool
	WaitingFor  string
	Priority    int
	Objectives  []string
}

// QuestChanges is a partial quest update; nil fields are left untouched.
// WaitingFor set to "" clears it.
type QuestChanges struct {
	Title       *string
	Goal        *string
	Description *string
	Domain      *string
	Active      *bool
	WaitingFor  *string
	Priority    *int
	Completed   *bool
}

func validPriority(p int) error {
	if p < models.PriorityNone || p > models.PriorityHigh {
		return apperr.ValidationError{Field: "priority", Message: "must be between 0 and 3"}
	}
	return nil
}

func (s *Service) activeCapError() error {
	return apperr.ValidationError{Field: "active", Message: fmt.Sprintf("Maximum %d active quests allowed", s.activeLimit)}
}

// checkActivation refuses making quest id active when the cap is reached.
func (s *Service) checkActivation(id string) error {
	n, err := s.db.ActiveQuestCount(id)
	if err != nil {
		return err
	}
	if n >= s.activeLimit {
		return s.activeCapError()
	}
	return nil
}

func (s *Service) checkDomain(id string) error {
	if id == "" {
		return nil
	}
	_, err := s.db.GetDomain(id)
	return notFoundAs(err, "domain", "unknown domain "+id)
}

// checkFileFree refuses a title whose journal file already belongs to another quest.
func (s *Service) checkFileFree(title, selfID string) error {
	path, ok := s.sync.PathFor(title)
	if !ok {
		return nil
	}
	owner, err := s.db.FindQuestBySourceFile(path)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return nil
	case err != nil:
		return err
	case owner.ID != selfID:
		return apperr.ValidationError{Field: "title", Message: fmt.Sprintf("a quest file named %q already exists", filepath.Base(path))}
	}
	return nil
}

func (s *Service) withObjectives(q *models.Quest) (*models.QuestWithObjectives, error) {
	objs, err := s.db.ListObjectives(q.ID)
	if err != nil {
		return nil, err
	}
	return &models.QuestWithObjectives{Quest: *q, Objectives: objs}, nil
}

// ListQuests returns quests matching f.
func (s *Service) ListQuests(_ context.Context, f models.QuestFilter) ([]models.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.ListQuests(f)
}

// SearchQuests returns quests whose text matches query.
func (s *Service) SearchQuests(_ context.Context, query string, limit int) ([]models.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.SearchQuests(query, limit)
}

// GetQuest returns a quest with its objectives.
func (s *Service) GetQuest(_ context.Context, id string) (*models.QuestWithObjectives, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := s.db.GetQuest(id)
	if err != nil {
		return nil, err
	}
	return s.withObjectives(q)
}

// CreateQuest creates a quest with its initial objectives and writes its file.
func (s *Service) CreateQuest(_ context.Context, in NewQuest) (*models.QuestWithObjectives, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, apperr.ValidationError{Field: "title", Message: "cannot be blank"}
	}
	if err := validPriority(in.Priority); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkDomain(in.Domain); err != nil {
		return nil, err
	}
	if in.Active {
		if err := s.checkActivation(""); err != nil {
			return nil, err
		}
	}
	if err := s.checkFileFree(in.Title, ""); err != nil {
		return nil, err
	}

	qi := models.QuestInput{
		Title:       in.Title,
		Goal:        in.Goal,
		Description: in.Description,
		Domain:      in.Domain,
		Active:      in.Active,
		Priority:    in.Priority,
	}
	if w := strings.TrimSpace(in.WaitingFor); w != "" {
		qi.WaitingFor = &w
	}
	q, err := s.db.CreateQuest(qi)
	if err != nil {
		return nil, err
	}
	for _, text := range in.Objectives {
		if text = strings.TrimSpace(text); text == "" {
			continue
		}
		if _, err := s.db.CreateObjective(q.ID, text); err != nil {
			return nil, err
		}
	}

	s.writeBack(q.ID)
	s.notify()

	if q, err = s.db.GetQuest(q.ID); err != nil {
		return nil, err
	}
	return s.withObjectives(q)
}

// UpdateQuest applies c. Completing a quest stamps completed_at and clears
// active; reopening clears completed_at. Renaming moves the journal file.
// Activation beyond the cap is refused before anything changes.
func (s *Service) UpdateQuest(_ context.Context, id string, c QuestChanges) (*models.QuestWithObjectives, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.db.GetQuest(id)
	if err != nil {
		return nil, err
	}

	var p models.QuestPatch
	if c.Title != nil {
		title := strings.TrimSpace(*c.Title)
		if title == "" {
			return nil, apperr.ValidationError{Field: "title", Message: "cannot be blank"}
		}
		if title != cur.Title {
			if err := s.checkFileFree(title, id); err != nil {
				return nil, err
			}
			p.Title = &title
		}
	}
	if c.Priority != nil {
		if err := validPriority(*c.Priority); err != nil {
			return nil, err
		}
		p.Priority = c.Priority
	}
	if c.Domain != nil {
		if err := s.checkDomain(*c.Domain); err != nil {
			return nil, err
		}
		p.Domain = c.Domain
	}
	p.Goal = c.Goal
	p.Description = c.Description
	if c.WaitingFor != nil {
		var w *string
		if v := strings.TrimSpace(*c.WaitingFor); v != "" {
			w = &v
		}
		p.WaitingFor = &w
	}

	completed := cur.Completed()
	if c.Completed != nil && *c.Completed != completed {
		completed = *c.Completed
		if completed {
			now := s.now()
			at := &now
			p.CompletedAt = &at
		} else {
			var none *time.Time
			p.CompletedAt = &none
		}
	}

	active := cur.Active
	if c.Active != nil {
		active = *c.Active
	}
	if completed {
		active = false
	}
	if active != cur.Active {
		p.Active = &active
	}
	if active && (!cur.Active || cur.Completed()) {
		if err := s.checkActivation(id); err != nil {
			return nil, err
		}
	}

	if p.Title != nil {
		if err := s.sync.RenameQuestFile(id, *p.Title); err != nil {
			return nil, err
		}
	}
	q, err := s.db.UpdateQuest(id, p)
	if err != nil {
		return nil, err
	}

	s.writeBack(id)
	s.notify()

	if q, err = s.db.GetQuest(q.ID); err != nil {
		return nil, err
	}
	return s.withObjectives(q)
}

// DeleteQuest removes a quest, its objectives and its journal file.
func (s *Service) DeleteQuest(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, err := s.db.GetQuest(id)
	if err != nil {
		return err
	}
	if err := s.sync.DeleteQuestFile(q); err != nil {
		return err
	}
	if err := s.db.DeleteQuest(id); err != nil {
		return err
	}
	s.notify()
	return nil
}
