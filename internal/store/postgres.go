package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/medpanel/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Close()
}

// PostgresStore implements Store using a pgx connection pool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a tuned connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         UUID PRIMARY KEY,
	spec       JSONB NOT NULL,
	status     TEXT NOT NULL DEFAULT 'pending',
	rows       INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS observations (
	run_id              UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	date                DATE NOT NULL,
	region_id           INTEGER NOT NULL,
	population          BIGINT NOT NULL,
	medical_facilities  INTEGER NOT NULL,
	medical_staff       INTEGER NOT NULL,
	vaccination_rate    DOUBLE PRECISION NOT NULL,
	awareness_index     DOUBLE PRECISION NOT NULL,
	accessibility_score DOUBLE PRECISION NOT NULL,
	income_level        DOUBLE PRECISION NOT NULL,
	education_level     DOUBLE PRECISION NOT NULL,
	urbanization        DOUBLE PRECISION NOT NULL,
	elderly_population  DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, date, region_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_observations_run_id ON observations(run_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, spec model.GenerationSpec) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	specJSON, err := json.Marshal(spec)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal spec")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, spec, status, created_at) VALUES ($1, $2, $3, $4)`,
		id, specJSON, string(model.RunStatusPending), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Spec:      spec,
		Status:    model.RunStatusPending,
		CreatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1 WHERE id = $2`,
		string(status), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "store: run %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	var specJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, spec, status, rows, created_at FROM runs WHERE id = $1`, runID,
	).Scan(&r.ID, &specJSON, &r.Status, &r.Rows, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "store: run %s", runID)
		}
		return nil, eris.Wrap(err, "postgres: get run")
	}
	if err := json.Unmarshal(specJSON, &r.Spec); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal spec")
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, spec, status, rows, created_at FROM runs`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var specJSON []byte
		if err := rows.Scan(&r.ID, &specJSON, &r.Status, &r.Rows, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if err := json.Unmarshal(specJSON, &r.Spec); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal spec")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs")
}

func (s *PostgresStore) DeleteRun(ctx context.Context, runID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM observations WHERE run_id = $1`, runID); err != nil {
		return eris.Wrapf(err, "postgres: delete observations %s", runID)
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM runs WHERE id = $1`, runID)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "store: run %s", runID)
	}
	return nil
}

// SaveObservations bulk-inserts the panel via the COPY protocol and marks
// the run complete.
func (s *PostgresStore) SaveObservations(ctx context.Context, runID string, panel model.Panel) error {
	rows := make([][]any, len(panel))
	for i, o := range panel {
		rows[i] = []any{
			runID, o.Date, o.RegionID,
			o.Population, o.MedicalFacilities, o.MedicalStaff,
			o.VaccinationRate, o.AwarenessIndex, o.AccessibilityScore,
			o.IncomeLevel, o.EducationLevel, o.Urbanization, o.ElderlyPopulation,
		}
	}

	if _, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"observations"}, observationColumns, pgx.CopyFromRows(rows),
	); err != nil {
		return eris.Wrapf(err, "postgres: copy panel %s", runID)
	}

	if _, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, rows = $2 WHERE id = $3`,
		string(model.RunStatusComplete), len(panel), runID,
	); err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	return nil
}

func (s *PostgresStore) LoadPanel(ctx context.Context, runID string, filter PanelFilter) (model.Panel, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM observations WHERE run_id = $1`,
		strings.Join(observationColumns[1:], ", "),
	)
	args := []any{runID}

	if len(filter.Regions) > 0 {
		query += fmt.Sprintf(` AND region_id = ANY($%d)`, len(args)+1)
		args = append(args, filter.Regions)
	}
	if !filter.From.IsZero() {
		query += fmt.Sprintf(` AND date >= $%d`, len(args)+1)
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		query += fmt.Sprintf(` AND date <= $%d`, len(args)+1)
		args = append(args, filter.To)
	}
	query += ` ORDER BY date, region_id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load panel %s", runID)
	}
	defer rows.Close()

	var panel model.Panel
	for rows.Next() {
		var o model.Observation
		if err := rows.Scan(
			&o.Date, &o.RegionID,
			&o.Population, &o.MedicalFacilities, &o.MedicalStaff,
			&o.VaccinationRate, &o.AwarenessIndex, &o.AccessibilityScore,
			&o.IncomeLevel, &o.EducationLevel, &o.Urbanization, &o.ElderlyPopulation,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan observation")
		}
		panel = append(panel, o)
	}
	return panel, eris.Wrapf(rows.Err(), "postgres: load panel %s", runID)
}
