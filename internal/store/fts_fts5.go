//go:build sqlite_fts5

package store

import (
	"database/sql"
	"fmt"

	"github.com/starford/questlog/internal/models"
)

func initFTS(conn *sql.DB) error {
	if _, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS quests_fts USING fts5(
			quest_id UNINDEXED,
			title,
			goal,
			description,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`); err != nil {
		return err
	}
	// Backfill quests created before the table existed.
	_, err := conn.Exec(`
		INSERT INTO quests_fts (quest_id, title, goal, description)
		SELECT id, title, goal, description FROM quests
		WHERE id NOT IN (SELECT quest_id FROM quests_fts)
	`)
	return err
}

func ftsUpsert(e execer, q *models.Quest) error {
	_, _ = e.Exec(`DELETE FROM quests_fts WHERE quest_id = ?`, q.ID)
	_, err := e.Exec(`INSERT INTO quests_fts (quest_id, title, goal, description) VALUES (?, ?, ?, ?)`,
		q.ID, q.Title, q.Goal, q.Description)
	if err != nil {
		return fmt.Errorf("store: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(e execer, id string) {
	_, _ = e.Exec(`DELETE FROM quests_fts WHERE quest_id = ?`, id)
}

// SearchQuests performs an FTS5 full-text search ranked by relevance.
func (db *DB) SearchQuests(query string, limit int) ([]models.Quest, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT q.id, q.title, q.goal, q.description, q.domain, q.active, q.waiting_for, q.priority,
		       q.completed_at, q.created_at, q.updated_at, q.source_file
		FROM quests_fts f
		JOIN quests q ON q.id = f.quest_id
		WHERE quests_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	return scanQuests(rows)
}
