package journal

import (
	"fmt"
	"log/slog"

	"github.com/starford/questlog/internal/models"
	"github.com/starford/questlog/internal/questmd"
	"github.com/starford/questlog/internal/storage"
)

// ImportResult counts what a bulk import did with each file.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Updated  int `json:"updated"`
	Failed   int `json:"failed"`
}

// Import scans dir once. Unlinked files become new quests; linked files only
// have a differing frontmatter priority pushed onto their quest. Running it
// again on an unchanged directory imports nothing.
func (s *Syncer) Import(dir string) (ImportResult, error) {
	var res ImportResult
	fs, err := storage.NewFS(dir)
	if err != nil {
		return res, fmt.Errorf("journal: import: %w", err)
	}
	entries, err := fs.List()
	if err != nil {
		return res, fmt.Errorf("journal: import: %w", err)
	}
	linked, err := s.store.SourceFiles()
	if err != nil {
		return res, fmt.Errorf("journal: import: %w", err)
	}

	for _, e := range entries {
		id, ok := linked[e.Path]
		data, err := fs.Read(e.Path)
		var fields questmd.Fields
		if err == nil {
			fields, err = decode(data)
		}
		if err != nil {
			// A linked file that stopped parsing leaves its quest untouched.
			if ok {
				res.Skipped++
				s.logger.Debug("journal: import skipped linked file", slog.String("path", e.Path), slog.String("error", err.Error()))
				continue
			}
			res.Failed++
			s.logger.Warn("journal: import parse failed", slog.String("path", e.Path), slog.String("error", err.Error()))
			continue
		}

		if !ok {
			if _, err := s.createFromFile(e.Path, fields); err != nil {
				res.Failed++
				s.logger.Warn("journal: import failed", slog.String("path", e.Path), slog.String("error", err.Error()))
				continue
			}
			s.echoes.Observe(e.Path, data)
			res.Imported++
			continue
		}

		if !fields.HasPriority {
			res.Skipped++
			continue
		}
		q, err := s.store.GetQuest(id)
		if err != nil {
			res.Failed++
			s.logger.Warn("journal: import lookup failed", slog.String("path", e.Path), slog.String("error", err.Error()))
			continue
		}
		if q.Priority == fields.Priority {
			res.Skipped++
			continue
		}
		if _, err := s.store.UpdateQuest(id, models.QuestPatch{Priority: &fields.Priority}); err != nil {
			res.Failed++
			s.logger.Warn("journal: import priority failed", slog.String("path", e.Path), slog.String("error", err.Error()))
			continue
		}
		res.Updated++
	}

	s.logger.Info("journal: import finished",
		slog.String("dir", fs.Root()),
		slog.Int("imported", res.Imported),
		slog.Int("skipped", res.Skipped),
		slog.Int("updated", res.Updated),
		slog.Int("failed", res.Failed))
	return res, nil
}
