package sessions

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"skincare-backend/internal/wizard"
)

// SQLiteRepo implements Repo on a single-node SQLite file.
type SQLiteRepo struct {
	DB *sqlx.DB
}

type sessionRow struct {
	ID          string    `db:"id"`
	OwnerID     string    `db:"owner_id"`
	Flow        string    `db:"flow"`
	CurrentStep int       `db:"current_step"`
	TotalSteps  int       `db:"total_steps"`
	State       string    `db:"state"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func toRow(s *wizard.Session) (sessionRow, error) {
	state, err := encodeSession(s)
	if err != nil {
		return sessionRow{}, err
	}
	return sessionRow{
		ID:          s.ID,
		OwnerID:     s.OwnerID,
		Flow:        s.Flow,
		CurrentStep: s.State.CurrentStep,
		TotalSteps:  s.State.TotalSteps,
		State:       string(state),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}, nil
}

func (r *SQLiteRepo) Create(ctx context.Context, s *wizard.Session) error {
	row, err := toRow(s)
	if err != nil {
		return err
	}
	_, err = r.DB.NamedExecContext(ctx, `
INSERT INTO wizard_sessions (id, owner_id, flow, current_step, total_steps, state, created_at, updated_at)
VALUES (:id, :owner_id, :flow, :current_step, :total_steps, :state, :created_at, :updated_at)`, row)
	return err
}

func (r *SQLiteRepo) Get(ctx context.Context, id string) (*wizard.Session, error) {
	var state string
	err := r.DB.GetContext(ctx, &state, `SELECT state FROM wizard_sessions WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeSession([]byte(state))
}

func (r *SQLiteRepo) Update(ctx context.Context, s *wizard.Session) error {
	row, err := toRow(s)
	if err != nil {
		return err
	}
	res, err := r.DB.NamedExecContext(ctx, `
UPDATE wizard_sessions
SET current_step = :current_step, total_steps = :total_steps, state = :state, updated_at = :updated_at
WHERE id = :id`, row)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM wizard_sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*SQLiteRepo)(nil)
