package journal

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/starford/questlog/internal/apperr"
	"github.com/starford/questlog/internal/markdown"
	"github.com/starford/questlog/internal/models"
	"github.com/starford/questlog/internal/questmd"
)

var unsafeTitleChars = strings.NewReplacer(
	"/", "-", "\\", "-", ":", "-", "*", "-", "?", "-",
	"\"", "'", "<", "-", ">", "-", "|", "-",
)

// FileName turns a quest title into a journal file name. Path separators and
// characters most file systems reject are replaced; a leading "_" is dropped
// so the file is not mistaken for a reserved one.
func FileName(title string) string {
	name := unsafeTitleChars.Replace(strings.TrimSpace(title))
	name = strings.Join(strings.Fields(name), " ")
	name = strings.TrimLeft(name, "_.")
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Untitled"
	}
	return name + ".md"
}

// WriteQuest runs the write path for the quest with the given id and returns
// the file it wrote. A quest without a file gets one in the journal folder,
// and the path is stored as its source_file.
func (s *Syncer) WriteQuest(id string) (string, error) {
	if s.files == nil {
		return "", ErrNoJournal
	}
	q, err := s.store.GetQuest(id)
	if err != nil {
		return "", err
	}
	objs, err := s.store.ListObjectives(id)
	if err != nil {
		return "", fmt.Errorf("journal: list objectives: %w", err)
	}
	domain, err := s.store.GetDomainName(q.Domain)
	if err != nil {
		return "", fmt.Errorf("journal: domain name: %w", err)
	}

	path, err := s.targetPath(q)
	if err != nil {
		return "", err
	}

	var existing *markdown.Document
	var before []byte
	if s.files.Exists(path) {
		before, err = s.files.Read(path)
		if err != nil {
			return "", err
		}
		existing, err = markdown.Parse(before)
		if err != nil {
			return "", fmt.Errorf("journal: parse %s: %w", path, err)
		}
	}

	doc := questmd.Encode(existing, export(q, domain, objs), s.now())
	data, err := doc.Bytes()
	if err != nil {
		return "", fmt.Errorf("journal: render %s: %w", path, err)
	}

	// Record before writing so the watcher event is recognized as ours.
	s.echoes.Record(path, data)
	if existing == nil || !bytes.Equal(before, data) {
		if err := s.files.Write(path, data); err != nil {
			return "", err
		}
		s.logger.Debug("journal: quest written", slog.String("path", path), slog.String("id", id))
	}

	if q.SourceFile == nil || *q.SourceFile != path {
		p := &path
		if _, err := s.store.UpdateQuest(id, models.QuestPatch{SourceFile: &p}); err != nil {
			return "", fmt.Errorf("journal: link %s: %w", path, err)
		}
	}
	return path, nil
}

// targetPath is the quest's linked file, or a fresh path from its title when
// it has none or the linked file lies outside the current journal folder.
func (s *Syncer) targetPath(q *models.Quest) (string, error) {
	if q.SourceFile != nil {
		if abs, err := s.files.Abs(*q.SourceFile); err == nil {
			return abs, nil
		}
		s.logger.Info("journal: source file outside journal, relinking",
			slog.String("id", q.ID), slog.String("path", *q.SourceFile))
	}
	path, err := s.files.Abs(FileName(q.Title))
	if err != nil {
		return "", err
	}
	owner, err := s.store.FindQuestBySourceFile(path)
	switch {
	case err == nil && owner.ID != q.ID:
		return "", fmt.Errorf("journal: %s belongs to another quest: %w", filepath.Base(path), apperr.ErrConflict)
	case err != nil && !errors.Is(err, apperr.ErrNotFound):
		return "", err
	}
	return path, nil
}

func export(q *models.Quest, domain string, objs []models.Objective) questmd.Export {
	e := questmd.Export{
		Domain:      domain,
		Active:      q.Active,
		Priority:    q.Priority,
		Goal:        q.Goal,
		Description: q.Description,
		Objectives:  make([]questmd.ObjectiveLine, 0, len(objs)),
	}
	if q.WaitingFor != nil {
		e.WaitingFor = *q.WaitingFor
	}
	for _, o := range objs {
		e.Objectives = append(e.Objectives, questmd.ObjectiveLine{Text: o.Text, Completed: o.Completed})
	}
	return e
}

// RenameQuestFile moves a linked quest's file to match newTitle and relinks
// it. Quests without a file are left alone.
func (s *Syncer) RenameQuestFile(id, newTitle string) error {
	if s.files == nil {
		return nil
	}
	q, err := s.store.GetQuest(id)
	if err != nil {
		return err
	}
	if q.SourceFile == nil || !s.files.Exists(*q.SourceFile) {
		return nil
	}
	oldPath, err := s.files.Abs(*q.SourceFile)
	if err != nil {
		return nil
	}
	newPath, err := s.files.Abs(FileName(newTitle))
	if err != nil {
		return err
	}
	if newPath == oldPath {
		return nil
	}
	if s.files.Exists(newPath) {
		return apperr.ValidationError{Field: "title", Message: fmt.Sprintf("a journal file named %q already exists", filepath.Base(newPath))}
	}

	data, err := s.files.Read(oldPath)
	if err != nil {
		return err
	}
	s.echoes.Record(newPath, data)
	if err := s.files.Move(oldPath, newPath); err != nil {
		return err
	}
	s.echoes.Forget(oldPath)

	p := &newPath
	if _, err := s.store.UpdateQuest(id, models.QuestPatch{SourceFile: &p}); err != nil {
		return fmt.Errorf("journal: relink %s: %w", newPath, err)
	}
	s.logger.Info("journal: quest file renamed", slog.String("from", oldPath), slog.String("to", newPath))
	return nil
}

// DeleteQuestFile removes the quest's linked file, if any.
func (s *Syncer) DeleteQuestFile(q *models.Quest) error {
	if s.files == nil || q.SourceFile == nil {
		return nil
	}
	if !s.files.Exists(*q.SourceFile) {
		return nil
	}
	if err := s.files.Delete(*q.SourceFile); err != nil {
		return err
	}
	s.echoes.Forget(*q.SourceFile)
	s.logger.Info("journal: quest file deleted", slog.String("path", *q.SourceFile))
	return nil
}

// PathFor returns the journal path a quest titled title would be written to.
// ok is false when no journal folder is set.
func (s *Syncer) PathFor(title string) (path string, ok bool) {
	if s.files == nil {
		return "", false
	}
	p, err := s.files.Abs(FileName(title))
	if err != nil {
		return "", false
	}
	return p, true
}
