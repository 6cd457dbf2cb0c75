package sessions

import (
	"context"
	"database/sql"
	"errors"

	"skincare-backend/internal/wizard"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, s *wizard.Session) error {
	const query = `
INSERT INTO wizard_sessions (
    id,
    owner_id,
    flow,
    current_step,
    total_steps,
    state,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	state, err := encodeSession(s)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(
		ctx,
		query,
		s.ID,
		s.OwnerID,
		s.Flow,
		s.State.CurrentStep,
		s.State.TotalSteps,
		state,
		s.CreatedAt,
		s.UpdatedAt,
	)
	return err
}

func (r *PGRepo) Get(ctx context.Context, id string) (*wizard.Session, error) {
	const query = `
SELECT state
FROM wizard_sessions
WHERE id = $1
LIMIT 1`
	var state []byte
	if err := r.DB.QueryRowContext(ctx, query, id).Scan(&state); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeSession(state)
}

// Update overwrites the stored state. The step columns mirror the state
// document so sessions can be queried without decoding it.
func (r *PGRepo) Update(ctx context.Context, s *wizard.Session) error {
	const query = `
UPDATE wizard_sessions
SET current_step = $1, total_steps = $2, state = $3, updated_at = $4
WHERE id = $5`
	state, err := encodeSession(s)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, s.State.CurrentStep, s.State.TotalSteps, state, s.UpdatedAt, s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM wizard_sessions WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
