package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/questlog/internal/apperr"
	"github.com/starford/questlog/internal/models"
)

const domainColumns = `id, name, color, sort_order`

func scanDomain(row scanner) (*models.Domain, error) {
	var d models.Domain
	if err := row.Scan(&d.ID, &d.Name, &d.Color, &d.SortOrder); err != nil {
		return nil, err
	}
	return &d, nil
}

// EnsureDefaultDomains seeds Work, Personal and Home when no domain exists yet.
func (db *DB) EnsureDefaultDomains() error {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM domains`).Scan(&n); err != nil {
		return fmt.Errorf("store: count domains: %w", err)
	}
	if n > 0 {
		return nil
	}
	for i, d := range models.DefaultDomains {
		if _, err := db.conn.Exec(`INSERT INTO domains (id, name, color, sort_order) VALUES (?, ?, ?, ?)`,
			newID(), d.Name, d.Color, i); err != nil {
			return fmt.Errorf("store: seed domain %s: %w", d.Name, err)
		}
	}
	return nil
}

// ListDomains returns all domains ordered by sort_order, then name.
func (db *DB) ListDomains() ([]models.Domain, error) {
	rows, err := db.conn.Query(`SELECT ` + domainColumns + ` FROM domains ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("store: list domains: %w", err)
	}
	defer rows.Close()
	out := make([]models.Domain, 0)
	for rows.Next() {
		d, err := scanDomain(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// GetDomain returns the domain with the given id or apperr.ErrNotFound.
func (db *DB) GetDomain(id string) (*models.Domain, error) {
	d, err := scanDomain(db.conn.QueryRow(`SELECT `+domainColumns+` FROM domains WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get domain: %w", err)
	}
	return d, nil
}

func (db *DB) domainByName(name string) (*models.Domain, error) {
	d, err := scanDomain(db.conn.QueryRow(`SELECT `+domainColumns+` FROM domains WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get domain by name: %w", err)
	}
	return d, nil
}

// GetDomainName returns the name for id, or "" for an empty id or a
// domain that no longer exists.
func (db *DB) GetDomainName(id string) (string, error) {
	if id == "" {
		return "", nil
	}
	d, err := db.GetDomain(id)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return d.Name, nil
}

// GetOrCreateDomain returns the domain called name, creating it with color
// (or the default color) when it does not exist.
func (db *DB) GetOrCreateDomain(name, color string) (*models.Domain, error) {
	d, err := db.domainByName(name)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	return db.CreateDomain(name, color)
}

// CreateDomain inserts a domain at the end of the list.
func (db *DB) CreateDomain(name, color string) (*models.Domain, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.ValidationError{Field: "name", Message: "cannot be blank"}
	}
	if color == "" {
		color = models.DefaultDomainColor
	}
	var next int
	if err := db.conn.QueryRow(`SELECT COALESCE(MAX(sort_order) + 1, 0) FROM domains`).Scan(&next); err != nil {
		return nil, fmt.Errorf("store: next domain order: %w", err)
	}
	d := models.Domain{ID: newID(), Name: name, Color: color, SortOrder: next}
	if _, err := db.conn.Exec(`INSERT INTO domains (id, name, color, sort_order) VALUES (?, ?, ?, ?)`,
		d.ID, d.Name, d.Color, d.SortOrder); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("store: domain %q: %w", name, apperr.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("store: create domain: %w", err)
	}
	return &d, nil
}

// UpdateDomain applies the non-nil fields of p.
func (db *DB) UpdateDomain(id string, p models.DomainPatch) (*models.Domain, error) {
	d, err := db.GetDomain(id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		d.Name = strings.TrimSpace(*p.Name)
		if d.Name == "" {
			return nil, apperr.ValidationError{Field: "name", Message: "cannot be blank"}
		}
	}
	if p.Color != nil {
		d.Color = *p.Color
	}
	if p.SortOrder != nil {
		d.SortOrder = *p.SortOrder
	}
	if _, err := db.conn.Exec(`UPDATE domains SET name = ?, color = ?, sort_order = ? WHERE id = ?`,
		d.Name, d.Color, d.SortOrder, id); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("store: domain %q: %w", d.Name, apperr.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("store: update domain: %w", err)
	}
	return d, nil
}

// DeleteDomain removes a domain. Its quests move to the Personal domain, or
// become uncategorized when Personal itself is deleted (or missing).
func (db *DB) DeleteDomain(id string) error {
	d, err := db.GetDomain(id)
	if err != nil {
		return err
	}
	target := ""
	if d.Name != models.PersonalDomain {
		personal, err := db.domainByName(models.PersonalDomain)
		switch {
		case err == nil:
			target = personal.ID
		case !errors.Is(err, apperr.ErrNotFound):
			return err
		}
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`UPDATE quests SET domain = ?, updated_at = ? WHERE domain = ?`,
		target, formatTime(db.now()), id); err != nil {
		return fmt.Errorf("store: reassign quests: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM domains WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete domain: %w", err)
	}
	return tx.Commit()
}

// ReorderDomains sets sort_order to each id's position in ids.
func (db *DB) ReorderDomains(ids []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(`UPDATE domains SET sort_order = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("store: prepare reorder: %w", err)
	}
	defer stmt.Close()
	for i, id := range ids {
		res, err := stmt.Exec(i, id)
		if err != nil {
			return fmt.Errorf("store: reorder domain: %w", err)
		}
		if err := checkRowsAffected(res); err != nil {
			return fmt.Errorf("store: reorder domain %s: %w", id, err)
		}
	}
	return tx.Commit()
}
