package questservice

import (
	"context"
	"strings"

	"github.com/starford/questlog/internal/apperr"
	"github.com/starford/questlog/internal/models"
)

// CreateObjective appends an objective to a quest.
func (s *Service) CreateObjective(_ context.Context, questID, text string) (*models.Objective, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.ValidationError{Field: "text", Message: "cannot be blank"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.GetQuest(questID); err != nil {
		return nil, err
	}
	o, err := s.db.CreateObjective(questID, text)
	if err != nil {
		return nil, err
	}
	s.writeBack(questID)
	s.notify()
	return o, nil
}

// UpdateObjective edits an objective's text or completion.
func (s *Service) UpdateObjective(_ context.Context, id string, p models.ObjectivePatch) (*models.Objective, error) {
	if p.Text != nil {
		text := strings.TrimSpace(*p.Text)
		if text == "" {
			return nil, apperr.ValidationError{Field: "text", Message: "cannot be blank"}
		}
		p.Text = &text
	}
	// Positions only change through ReorderObjectives.
	p.SortOrder = nil

	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.db.UpdateObjective(id, p)
	if err != nil {
		return nil, err
	}
	s.writeBack(o.QuestID)
	s.notify()
	return o, nil
}

// ToggleObjective flips an objective's completion.
func (s *Service) ToggleObjective(ctx context.Context, id string) (*models.Objective, error) {
	s.mu.Lock()
	o, err := s.db.GetObjective(id)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	done := !o.Completed
	return s.UpdateObjective(ctx, id, models.ObjectivePatch{Completed: &done})
}

// DeleteObjective removes an objective.
func (s *Service) DeleteObjective(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.db.GetObjective(id)
	if err != nil {
		return err
	}
	if err := s.db.DeleteObjective(id); err != nil {
		return err
	}
	s.writeBack(o.QuestID)
	s.notify()
	return nil
}

// ReorderObjectives sets the quest's checklist order to ids.
func (s *Service) ReorderObjectives(_ context.Context, questID string, ids []string) ([]models.Objective, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.GetQuest(questID); err != nil {
		return nil, err
	}
	if err := s.db.ReorderObjectives(questID, ids); err != nil {
		return nil, err
	}
	s.writeBack(questID)
	s.notify()
	return s.db.ListObjectives(questID)
}
