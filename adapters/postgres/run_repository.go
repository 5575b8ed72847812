package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"goposterior/domain/core"
	"goposterior/domain/run"
	apperrors "goposterior/internal/errors"
	"goposterior/ports"

	"github.com/jmoiron/sqlx"
)

// runPayload stores a whole run in a JSONB column
type runPayload run.Run

// Value implements driver.Valuer
func (p runPayload) Value() (driver.Value, error) {
	return json.Marshal(run.Run(p))
}

// Scan implements sql.Scanner
func (p *runPayload) Scan(value interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	case nil:
		return fmt.Errorf("run payload is NULL")
	default:
		return fmt.Errorf("unsupported run payload type %T", value)
	}

	var r run.Run
	if err := json.Unmarshal(bytes, &r); err != nil {
		return err
	}
	*p = runPayload(r)
	return nil
}

type runRow struct {
	ID          string     `db:"id"`
	Fingerprint string     `db:"fingerprint"`
	CreatedAt   time.Time  `db:"created_at"`
	Payload     runPayload `db:"payload"`
}

func (row runRow) toRun() *run.Run {
	r := run.Run(row.Payload)
	r.ID = core.RunID(row.ID)
	r.Fingerprint = core.Hash(row.Fingerprint)
	r.CreatedAt = row.CreatedAt
	return &r
}

// RunRepositoryImpl implements RunRepository for PostgreSQL
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// Save upserts a run by ID
func (r *RunRepositoryImpl) Save(ctx context.Context, rn *run.Run) error {
	if rn == nil {
		return apperrors.InvalidInput(core.ErrInvalidInput)
	}
	if err := rn.Validate(); err != nil {
		return apperrors.InvalidInput(err)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO posterior_runs (id, fingerprint, created_at, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET fingerprint = EXCLUDED.fingerprint, created_at = EXCLUDED.created_at, payload = EXCLUDED.payload
	`, rn.ID.String(), rn.Fingerprint.String(), rn.CreatedAt, runPayload(*rn))
	if err != nil {
		return apperrors.DatabaseError("failed to save run", err)
	}
	return nil
}

// Get retrieves a run by ID
func (r *RunRepositoryImpl) Get(ctx context.Context, id core.RunID) (*run.Run, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, fingerprint, created_at, payload
		FROM posterior_runs
		WHERE id = $1
	`, id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("run", fmt.Errorf("%w %s", core.ErrRunNotFound, id))
		}
		return nil, apperrors.DatabaseError("failed to get run", err)
	}
	return row.toRun(), nil
}

// List returns runs newest first
func (r *RunRepositoryImpl) List(ctx context.Context, limit int) ([]*run.Run, error) {
	query := `
		SELECT id, fingerprint, created_at, payload
		FROM posterior_runs
		ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.DatabaseError("failed to list runs", err)
	}

	out := make([]*run.Run, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toRun())
	}
	return out, nil
}
