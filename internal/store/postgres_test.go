package store

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/medpanel/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgres_CreateRun(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO runs`)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "pending", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := st.CreateRun(context.Background(), testSpec())
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusPending, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetRun(t *testing.T) {
	st, mock := newMockStore(t)

	spec := testSpec()
	specJSON, err := json.Marshal(spec)
	require.NoError(t, err)
	created := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, spec, status, rows, created_at FROM runs WHERE id = $1`)).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "spec", "status", "rows", "created_at"}).
			AddRow("run-1", specJSON, model.RunStatusComplete, 35, created))

	run, err := st.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, spec, run.Spec)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	assert.Equal(t, 35, run.Rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetRunNotFound(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, spec, status, rows, created_at FROM runs WHERE id = $1`)).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := st.GetRun(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateRunStatus(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE runs SET status = $1 WHERE id = $2`)).
		WithArgs("failed", "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, st.UpdateRunStatus(context.Background(), "run-1", model.RunStatusFailed))

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE runs SET status = $1 WHERE id = $2`)).
		WithArgs("failed", "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := st.UpdateRunStatus(context.Background(), "missing", model.RunStatusFailed)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteRun(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM observations WHERE run_id = $1`)).
		WithArgs("run-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 35))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM runs WHERE id = $1`)).
		WithArgs("run-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, st.DeleteRun(context.Background(), "run-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveObservations(t *testing.T) {
	st, mock := newMockStore(t)
	spec := testSpec()
	panel := testPanel(t, spec)

	mock.ExpectCopyFrom(pgx.Identifier{"observations"}, observationColumns).
		WillReturnResult(int64(len(panel)))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE runs SET status = $1, rows = $2 WHERE id = $3`)).
		WithArgs("complete", len(panel), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, st.SaveObservations(context.Background(), "run-1", panel))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LoadPanelWithFilters(t *testing.T) {
	st, mock := newMockStore(t)

	date := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)
	cols := observationColumns[1:]
	rows := pgxmock.NewRows(cols).
		AddRow(date, 2, 500_000, 40, 400, 55.5, 0.6, 0.7, 45000.0, 0.8, 0.5, 0.2)

	mock.ExpectQuery(`SELECT .+ FROM observations WHERE run_id = \$1 AND region_id = ANY\(\$2\) AND date >= \$3`).
		WithArgs("run-1", []int{2}, date).
		WillReturnRows(rows)

	panel, err := st.LoadPanel(context.Background(), "run-1", PanelFilter{
		Regions: []int{2},
		From:    date,
	})
	require.NoError(t, err)
	require.Len(t, panel, 1)
	assert.Equal(t, 2, panel[0].RegionID)
	assert.Equal(t, 500_000, panel[0].Population)
	assert.Equal(t, 55.5, panel[0].VaccinationRate)
	assert.NoError(t, mock.ExpectationsWereMet())
}
