package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/medpanel/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	spec       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'pending',
	rows       INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS observations (
	run_id              TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	date                TEXT NOT NULL,
	region_id           INTEGER NOT NULL,
	population          INTEGER NOT NULL,
	medical_facilities  INTEGER NOT NULL,
	medical_staff       INTEGER NOT NULL,
	vaccination_rate    REAL NOT NULL,
	awareness_index     REAL NOT NULL,
	accessibility_score REAL NOT NULL,
	income_level        REAL NOT NULL,
	education_level     REAL NOT NULL,
	urbanization        REAL NOT NULL,
	elderly_population  REAL NOT NULL,
	PRIMARY KEY (run_id, date, region_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_observations_run_id ON observations(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, spec model.GenerationSpec) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	specJSON, err := json.Marshal(spec)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal spec")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, spec, status, created_at) VALUES (?, ?, ?, ?)`,
		id, string(specJSON), string(model.RunStatusPending), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Spec:      spec,
		Status:    model.RunStatusPending,
		CreatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ? WHERE id = ?`,
		string(status), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, spec, status, rows, created_at FROM runs WHERE id = ?`, runID)
	return scanRunRow(row.Scan)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, spec, status, rows, created_at FROM runs`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRunRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs")
}

func (s *SQLiteStore) DeleteRun(ctx context.Context, runID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM observations WHERE run_id = ?`, runID); err != nil {
		return eris.Wrapf(err, "sqlite: delete observations %s", runID)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

// SaveObservations inserts the whole panel in one transaction and marks the
// run complete. A failed insert rolls everything back: no partial panels.
func (s *SQLiteStore) SaveObservations(ctx context.Context, runID string, panel model.Panel) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(observationColumns)), ",")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO observations (%s) VALUES (%s)`,
		strings.Join(observationColumns, ", "), placeholders,
	))
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close()

	for _, o := range panel {
		if _, err := stmt.ExecContext(ctx,
			runID, o.Date.Format(model.DateFormat), o.RegionID,
			o.Population, o.MedicalFacilities, o.MedicalStaff,
			o.VaccinationRate, o.AwarenessIndex, o.AccessibilityScore,
			o.IncomeLevel, o.EducationLevel, o.Urbanization, o.ElderlyPopulation,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert observation %s/%d", o.Date.Format(model.DateFormat), o.RegionID)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE runs SET status = ?, rows = ? WHERE id = ?`,
		string(model.RunStatusComplete), len(panel), runID,
	); err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit panel")
}

func (s *SQLiteStore) LoadPanel(ctx context.Context, runID string, filter PanelFilter) (model.Panel, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM observations WHERE run_id = ?`,
		strings.Join(observationColumns[1:], ", "),
	)
	args := []any{runID}

	if len(filter.Regions) > 0 {
		query += ` AND region_id IN (` + strings.TrimSuffix(strings.Repeat("?,", len(filter.Regions)), ",") + `)`
		for _, id := range filter.Regions {
			args = append(args, id)
		}
	}
	if !filter.From.IsZero() {
		query += ` AND date >= ?`
		args = append(args, filter.From.Format(model.DateFormat))
	}
	if !filter.To.IsZero() {
		query += ` AND date <= ?`
		args = append(args, filter.To.Format(model.DateFormat))
	}
	query += ` ORDER BY date, region_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load panel %s", runID)
	}
	defer rows.Close()

	var panel model.Panel
	for rows.Next() {
		var o model.Observation
		var date string
		if err := rows.Scan(
			&date, &o.RegionID,
			&o.Population, &o.MedicalFacilities, &o.MedicalStaff,
			&o.VaccinationRate, &o.AwarenessIndex, &o.AccessibilityScore,
			&o.IncomeLevel, &o.EducationLevel, &o.Urbanization, &o.ElderlyPopulation,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan observation")
		}
		o.Date, err = time.Parse(model.DateFormat, date)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse date %q", date)
		}
		panel = append(panel, o)
	}
	return panel, eris.Wrapf(rows.Err(), "sqlite: load panel %s", runID)
}

func scanRunRow(scan func(dest ...any) error) (*model.Run, error) {
	var r model.Run
	var specJSON string
	if err := scan(&r.ID, &specJSON, &r.Status, &r.Rows, &r.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, eris.Wrap(ErrNotFound, "store: run")
		}
		return nil, eris.Wrap(err, "store: scan run")
	}
	if err := json.Unmarshal([]byte(specJSON), &r.Spec); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal spec")
	}
	return &r, nil
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "store: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "store: %s %s", kind, id)
	}
	return nil
}
