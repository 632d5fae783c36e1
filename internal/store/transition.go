package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Transition is one journaled state change.
type Transition struct {
	ID        string
	SessionID string
	From      string
	To        string
	Trigger   string
	At        time.Time
}

// TransitionRepository appends to and reads the transition journal. Rows
// are never updated.
type TransitionRepository struct {
	db *sql.DB
}

// Transitions returns the transition repository for this store.
func (s *Store) Transitions() *TransitionRepository {
	return &TransitionRepository{db: s.db}
}

// Append inserts t, assigning an ID when it has none.
func (r *TransitionRepository) Append(t *Transition) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.At.IsZero() {
		t.At = time.Now()
	}
	_, err := r.db.Exec(
		`INSERT INTO transitions (id, session_id, from_state, to_state, trigger, at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.SessionID, t.From, t.To, t.Trigger, t.At.UTC(),
	)
	return err
}

// Recent returns up to limit transitions, newest first.
func (r *TransitionRepository) Recent(limit int) ([]*Transition, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, from_state, to_state, trigger, at
		 FROM transitions ORDER BY at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Transition
	for rows.Next() {
		t := &Transition{}
		if err := rows.Scan(&t.ID, &t.SessionID, &t.From, &t.To, &t.Trigger, &t.At); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountSession returns the number of transitions recorded for a session.
func (r *TransitionRepository) CountSession(sessionID string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM transitions WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}
