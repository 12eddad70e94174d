package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 100

// Transition is one recorded state change.
type Transition struct {
	ID         string    `json:"id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Reason     string    `json:"reason"`
	Side       string    `json:"side,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// TransitionRepository records and queries transitions.
type TransitionRepository struct {
	db *sql.DB
}

// Transitions returns the transition repository for this store.
func (s *Store) Transitions() *TransitionRepository {
	return &TransitionRepository{db: s.db}
}

// Create inserts t, assigning an ID when it has none and stamping
// OccurredAt with the current time when it is zero.
func (r *TransitionRepository) Create(t *Transition) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.OccurredAt.IsZero() {
		t.OccurredAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO transitions (id, from_state, to_state, reason, side, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.From, t.To, t.Reason, t.Side, t.OccurredAt.UnixNano(),
	)
	return errors.Wrap(err, "insert transition")
}

// GetByID retrieves a transition by its ID.
func (r *TransitionRepository) GetByID(id string) (*Transition, error) {
	row := r.db.QueryRow(
		`SELECT id, from_state, to_state, reason, side, occurred_at
		 FROM transitions WHERE id = ?`,
		id,
	)

	t, err := scanTransition(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "get transition %s", id)
	}
	return t, nil
}

// List returns up to limit transitions, newest first. A limit of zero or
// less means DefaultListLimit.
func (r *TransitionRepository) List(limit int) ([]*Transition, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.db.Query(
		`SELECT id, from_state, to_state, reason, side, occurred_at
		 FROM transitions ORDER BY occurred_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list transitions")
	}
	defer rows.Close()

	transitions := []*Transition{}
	for rows.Next() {
		t, err := scanTransition(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan transition")
		}
		transitions = append(transitions, t)
	}

	return transitions, rows.Err()
}

// CountByReason returns how many transitions were recorded for each reason.
func (r *TransitionRepository) CountByReason() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT reason, COUNT(*) FROM transitions GROUP BY reason`)
	if err != nil {
		return nil, errors.Wrap(err, "count transitions")
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var reason string
		var n int
		if err := rows.Scan(&reason, &n); err != nil {
			return nil, errors.Wrap(err, "scan count")
		}
		counts[reason] = n
	}

	return counts, rows.Err()
}

// DeleteBefore removes transitions older than cutoff and returns how many
// were removed.
func (r *TransitionRepository) DeleteBefore(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM transitions WHERE occurred_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, errors.Wrap(err, "prune transitions")
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransition(s scanner) (*Transition, error) {
	t := &Transition{}
	var occurred int64
	if err := s.Scan(&t.ID, &t.From, &t.To, &t.Reason, &t.Side, &occurred); err != nil {
		return nil, err
	}
	t.OccurredAt = time.Unix(0, occurred)
	return t, nil
}
