package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/questlog/internal/apperr"
	"github.com/starford/questlog/internal/models"
)

const objectiveColumns = `id, quest_id, text, completed, sort_order`

func scanObjective(row scanner) (*models.Objective, error) {
	var (
		o         models.Objective
		completed int
	)
	if err := row.Scan(&o.ID, &o.QuestID, &o.Text, &completed, &o.SortOrder); err != nil {
		return nil, err
	}
	o.Completed = completed != 0
	return &o, nil
}

// ListObjectives returns a quest's objectives ordered by sort_order.
func (db *DB) ListObjectives(questID string) ([]models.Objective, error) {
	rows, err := db.conn.Query(`
		SELECT `+objectiveColumns+` FROM objectives
		WHERE quest_id = ?
		ORDER BY sort_order, rowid
	`, questID)
	if err != nil {
		return nil, fmt.Errorf("store: list objectives: %w", err)
	}
	defer rows.Close()
	out := make([]models.Objective, 0)
	for rows.Next() {
		o, err := scanObjective(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// GetObjective returns the objective with the given id or apperr.ErrNotFound.
func (db *DB) GetObjective(id string) (*models.Objective, error) {
	o, err := scanObjective(db.conn.QueryRow(`SELECT `+objectiveColumns+` FROM objectives WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get objective: %w", err)
	}
	return o, nil
}

// CreateObjective appends an objective after the quest's current last one.
func (db *DB) CreateObjective(questID, text string) (*models.Objective, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var next int
	if err := tx.QueryRow(`SELECT COALESCE(MAX(sort_order) + 1, 0) FROM objectives WHERE quest_id = ?`, questID).Scan(&next); err != nil {
		return nil, fmt.Errorf("store: next sort order: %w", err)
	}
	o := models.Objective{ID: newID(), QuestID: questID, Text: text, SortOrder: next}
	if _, err := tx.Exec(`INSERT INTO objectives (id, quest_id, text, completed, sort_order) VALUES (?, ?, ?, 0, ?)`,
		o.ID, o.QuestID, o.Text, o.SortOrder); err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("store: create objective: %w", err)
	}
	if err := db.touchQuest(tx, questID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit: %w", err)
	}
	return &o, nil
}

// UpdateObjective applies the non-nil fields of p and refreshes the parent's updated_at.
func (db *DB) UpdateObjective(id string, p models.ObjectivePatch) (*models.Objective, error) {
	cur, err := db.GetObjective(id)
	if err != nil {
		return nil, err
	}
	if p.Text != nil {
		cur.Text = *p.Text
	}
	if p.Completed != nil {
		cur.Completed = *p.Completed
	}
	if p.SortOrder != nil {
		cur.SortOrder = *p.SortOrder
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`UPDATE objectives SET text = ?, completed = ?, sort_order = ? WHERE id = ?`,
		cur.Text, boolInt(cur.Completed), cur.SortOrder, id); err != nil {
		return nil, fmt.Errorf("store: update objective: %w", err)
	}
	if err := db.touchQuest(tx, cur.QuestID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit: %w", err)
	}
	return cur, nil
}

// DeleteObjective removes an objective and closes the gap in sort_order.
func (db *DB) DeleteObjective(id string) error {
	cur, err := db.GetObjective(id)
	if err != nil {
		return err
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM objectives WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete objective: %w", err)
	}
	if _, err := tx.Exec(`UPDATE objectives SET sort_order = sort_order - 1 WHERE quest_id = ? AND sort_order > ?`,
		cur.QuestID, cur.SortOrder); err != nil {
		return fmt.Errorf("store: compact sort order: %w", err)
	}
	if err := db.touchQuest(tx, cur.QuestID); err != nil {
		return err
	}
	return tx.Commit()
}

// ReorderObjectives rewrites sort_order for the quest's full objective set.
// ids must name every objective of the quest exactly once.
func (db *DB) ReorderObjectives(questID string, ids []string) error {
	existing, err := db.ListObjectives(questID)
	if err != nil {
		return err
	}
	if len(ids) != len(existing) {
		return apperr.ValidationError{Field: "ids", Message: "must list every objective of the quest"}
	}
	owned := make(map[string]bool, len(existing))
	for _, o := range existing {
		owned[o.ID] = true
	}
	for _, id := range ids {
		if !owned[id] {
			return apperr.ValidationError{Field: "ids", Message: "unknown or duplicate objective " + id}
		}
		owned[id] = false
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(`UPDATE objectives SET sort_order = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("store: prepare reorder: %w", err)
	}
	defer stmt.Close()
	for i, id := range ids {
		if _, err := stmt.Exec(i, id); err != nil {
			return fmt.Errorf("store: reorder objective: %w", err)
		}
	}
	if err := db.touchQuest(tx, questID); err != nil {
		return err
	}
	return tx.Commit()
}

func (db *DB) touchQuest(e execer, questID string) error {
	if _, err := e.Exec(`UPDATE quests SET updated_at = ? WHERE id = ?`, formatTime(db.now()), questID); err != nil {
		return fmt.Errorf("store: touch quest: %w", err)
	}
	return nil
}
