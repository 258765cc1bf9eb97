package questservice

import (
	"context"
	"regexp"

	"github.com/starford/questlog/internal/apperr"
	"github.com/starford/questlog/internal/models"
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func validColor(c string) error {
	if c != "" && !hexColorRe.MatchString(c) {
		return apperr.ValidationError{Field: "color", Message: "must be a #rrggbb hex color"}
	}
	return nil
}

// ListDomains returns domains in display order.
func (s *Service) ListDomains(_ context.Context) ([]models.Domain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.ListDomains()
}

// CreateDomain adds a domain at the end of the list.
func (s *Service) CreateDomain(_ context.Context, name, color string) (*models.Domain, error) {
	if err := validColor(color); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.db.CreateDomain(name, color)
	if err != nil {
		return nil, err
	}
	s.notify()
	return d, nil
}

// UpdateDomain renames or recolors a domain. A rename is written into the
// frontmatter of every quest file in the domain.
func (s *Service) UpdateDomain(_ context.Context, id string, p models.DomainPatch) (*models.Domain, error) {
	if p.Color != nil {
		if err := validColor(*p.Color); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	before, err := s.db.GetDomain(id)
	if err != nil {
		return nil, err
	}
	d, err := s.db.UpdateDomain(id, p)
	if err != nil {
		return nil, err
	}
	if d.Name != before.Name {
		if err := s.rewriteDomainQuests(id); err != nil {
			return nil, err
		}
	}
	s.notify()
	return d, nil
}

// DeleteDomain removes a domain; its quests move to Personal (or become
// uncategorized when Personal is the one deleted) and their files follow.
func (s *Service) DeleteDomain(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	quests, err := s.db.ListQuests(models.QuestFilter{Domain: id, ShowCompleted: true})
	if err != nil {
		return err
	}
	if err := s.db.DeleteDomain(id); err != nil {
		return err
	}
	for _, q := range quests {
		s.writeBack(q.ID)
	}
	s.notify()
	return nil
}

// ReorderDomains sets the display order to ids.
func (s *Service) ReorderDomains(_ context.Context, ids []string) ([]models.Domain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.ReorderDomains(ids); err != nil {
		return nil, err
	}
	s.notify()
	return s.db.ListDomains()
}

func (s *Service) rewriteDomainQuests(domainID string) error {
	quests, err := s.db.ListQuests(models.QuestFilter{Domain: domainID, ShowCompleted: true})
	if err != nil {
		return err
	}
	for _, q := range quests {
		s.writeBack(q.ID)
	}
	return nil
}
