package store

import (
	"database/sql"
	"fmt"
)

// PhraseRepository stores the ordered fireworks phrase list.
type PhraseRepository struct {
	db *sql.DB
}

// Phrases returns the phrase repository for this store.
func (s *Store) Phrases() *PhraseRepository {
	return &PhraseRepository{db: s.db}
}

// List returns the phrases in display order.
func (r *PhraseRepository) List() ([]string, error) {
	rows, err := r.db.Query(`SELECT text FROM phrases ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var phrases []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		phrases = append(phrases, text)
	}
	return phrases, rows.Err()
}

// Replace swaps the whole list in one transaction.
func (r *PhraseRepository) Replace(phrases []string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM phrases`); err != nil {
		return fmt.Errorf("clear phrases: %w", err)
	}
	for i, p := range phrases {
		if _, err := tx.Exec(`INSERT INTO phrases (position, text) VALUES (?, ?)`, i, p); err != nil {
			return fmt.Errorf("insert phrase %d: %w", i, err)
		}
	}
	return tx.Commit()
}
