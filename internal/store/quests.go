package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/questlog/internal/apperr"
	"github.com/starford/questlog/internal/models"
)

const questColumns = `id, title, goal, description, domain, active, waiting_for, priority,
	completed_at, created_at, updated_at, source_file`

type scanner interface {
	Scan(dest ...any) error
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func scanQuest(row scanner) (*models.Quest, error) {
	var (
		q                    models.Quest
		active               int
		waiting, completed   sql.NullString
		source               sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&q.ID, &q.Title, &q.Goal, &q.Description, &q.Domain, &active, &waiting,
		&q.Priority, &completed, &createdAt, &updatedAt, &source); err != nil {
		return nil, err
	}
	q.Active = active != 0
	q.Priority = models.NormalizePriority(q.Priority)
	if waiting.Valid {
		q.WaitingFor = &waiting.String
	}
	if source.Valid {
		q.SourceFile = &source.String
	}
	if completed.Valid {
		t, err := parseTime(completed.String)
		if err != nil {
			return nil, err
		}
		q.CompletedAt = &t
	}
	var err error
	if q.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if q.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &q, nil
}

func scanQuests(rows *sql.Rows) ([]models.Quest, error) {
	defer rows.Close()
	out := make([]models.Quest, 0)
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// CreateQuest inserts a new quest with a fresh id.
func (db *DB) CreateQuest(in models.QuestInput) (*models.Quest, error) {
	now := formatTime(db.now())
	id := newID()
	_, err := db.conn.Exec(`
		INSERT INTO quests (id, title, goal, description, domain, active, waiting_for, priority,
			completed_at, created_at, updated_at, source_file)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?, ?)
	`, id, in.Title, in.Goal, in.Description, in.Domain, boolInt(in.Active), nullString(in.WaitingFor),
		models.NormalizePriority(in.Priority), now, now, nullString(in.SourceFile))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("store: create quest: source file already linked: %w", apperr.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("store: create quest: %w", err)
	}
	q, err := db.GetQuest(id)
	if err != nil {
		return nil, err
	}
	if err := ftsUpsert(db.conn, q); err != nil {
		return nil, err
	}
	return q, nil
}

// GetQuest returns the quest with the given id or apperr.ErrNotFound.
func (db *DB) GetQuest(id string) (*models.Quest, error) {
	q, err := scanQuest(db.conn.QueryRow(`SELECT `+questColumns+` FROM quests WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get quest: %w", err)
	}
	return q, nil
}

// FindQuestBySourceFile returns the quest linked to path or apperr.ErrNotFound.
func (db *DB) FindQuestBySourceFile(path string) (*models.Quest, error) {
	q, err := scanQuest(db.conn.QueryRow(`SELECT `+questColumns+` FROM quests WHERE source_file = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: find quest by source file: %w", err)
	}
	return q, nil
}

// UpdateQuest applies the non-nil fields of p and refreshes updated_at.
func (db *DB) UpdateQuest(id string, p models.QuestPatch) (*models.Quest, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.Title != nil {
		set("title", *p.Title)
	}
	if p.Goal != nil {
		set("goal", *p.Goal)
	}
	if p.Description != nil {
		set("description", *p.Description)
	}
	if p.Domain != nil {
		set("domain", *p.Domain)
	}
	if p.Active != nil {
		set("active", boolInt(*p.Active))
	}
	if p.WaitingFor != nil {
		set("waiting_for", nullString(*p.WaitingFor))
	}
	if p.Priority != nil {
		set("priority", models.NormalizePriority(*p.Priority))
	}
	if p.CompletedAt != nil {
		if *p.CompletedAt == nil {
			set("completed_at", nil)
		} else {
			set("completed_at", formatTime(**p.CompletedAt))
		}
	}
	if p.SourceFile != nil {
		set("source_file", nullString(*p.SourceFile))
	}
	set("updated_at", formatTime(db.now()))
	args = append(args, id)

	res, err := db.conn.Exec(`UPDATE quests SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("store: update quest: source file already linked: %w", apperr.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("store: update quest: %w", err)
	}
	if err := checkRowsAffected(res); err != nil {
		return nil, err
	}
	q, err := db.GetQuest(id)
	if err != nil {
		return nil, err
	}
	if err := ftsUpsert(db.conn, q); err != nil {
		return nil, err
	}
	return q, nil
}

// DeleteQuest removes a quest; its objectives cascade.
func (db *DB) DeleteQuest(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.Exec(`DELETE FROM quests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete quest: %w", err)
	}
	if err := checkRowsAffected(res); err != nil {
		return err
	}
	ftsDelete(tx, id)
	return tx.Commit()
}

// ListQuests returns quests matching f: open ones first, then by priority
// (highest first) and most recently updated.
func (db *DB) ListQuests(f models.QuestFilter) ([]models.Quest, error) {
	var (
		where []string
		args  []any
	)
	if f.Domain != "" {
		where = append(where, "domain = ?")
		args = append(args, f.Domain)
	}
	if f.ActiveOnly {
		where = append(where, "active = 1")
	}
	if !f.ShowCompleted {
		where = append(where, "completed_at IS NULL")
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + q + "%"
		where = append(where, "(title LIKE ? OR goal LIKE ? OR description LIKE ?)")
		args = append(args, like, like, like)
	}

	query := `SELECT ` + questColumns + ` FROM quests`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY completed_at IS NOT NULL, active DESC, priority DESC, updated_at DESC`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list quests: %w", err)
	}
	return scanQuests(rows)
}

// ActiveQuestCount counts open active quests other than excludeID.
func (db *DB) ActiveQuestCount(excludeID string) (int, error) {
	var n int
	err := db.conn.QueryRow(`
		SELECT count(*) FROM quests
		WHERE active = 1 AND completed_at IS NULL AND id != ?
	`, excludeID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: count active: %w", err)
	}
	return n, nil
}

// SourceFiles maps every linked source_file to its quest id.
func (db *DB) SourceFiles() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT source_file, id FROM quests WHERE source_file IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("store: source files: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var path, id string
		if err := rows.Scan(&path, &id); err != nil {
			return nil, err
		}
		out[path] = id
	}
	return out, rows.Err()
}

func checkRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
