//go:build !sqlite_fts5

package store

import (
	"database/sql"
	"fmt"

	"github.com/starford/questlog/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE over the quests table.
	return nil
}

func ftsUpsert(_ execer, _ *models.Quest) error { return nil }

func ftsDelete(_ execer, _ string) {}

// SearchQuests performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) SearchQuests(query string, limit int) ([]models.Quest, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT `+questColumns+`
		FROM quests
		WHERE title LIKE ? OR goal LIKE ? OR description LIKE ? OR waiting_for LIKE ?
		ORDER BY updated_at DESC
		LIMIT ?
	`, like, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	return scanQuests(rows)
}
