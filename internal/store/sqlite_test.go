package store

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/medpanel/internal/model"
	"github.com/sells-group/medpanel/internal/synth"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testSpec() model.GenerationSpec {
	return model.GenerationSpec{
		Regions:   5,
		Days:      7,
		StartDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		Seed:      42,
	}
}

func testPanel(t *testing.T, spec model.GenerationSpec) model.Panel {
	t.Helper()
	panel, err := synth.GeneratePanel(
		rand.New(rand.NewSource(spec.Seed)), spec.Regions, spec.Days, spec.StartDate)
	require.NoError(t, err)
	return panel
}

func TestSQLite_RunLifecycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testSpec())
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusPending, run.Status)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.Spec, got.Spec)
	assert.Equal(t, model.RunStatusPending, got.Status)
	assert.Equal(t, 0, got.Rows)

	require.NoError(t, st.UpdateRunStatus(ctx, run.ID, model.RunStatusFailed))
	got, err = st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)

	require.NoError(t, st.DeleteRun(ctx, run.ID))
	_, err = st.GetRun(ctx, run.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_PanelRoundtrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	spec := testSpec()

	run, err := st.CreateRun(ctx, spec)
	require.NoError(t, err)

	panel := testPanel(t, spec)
	require.NoError(t, st.SaveObservations(ctx, run.ID, panel))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	assert.Equal(t, len(panel), got.Rows)

	loaded, err := st.LoadPanel(ctx, run.ID, PanelFilter{})
	require.NoError(t, err)
	require.Len(t, loaded, len(panel))

	// Values survive the roundtrip exactly. Stored order is date then region,
	// matching the generated order.
	for i, want := range panel {
		assert.True(t, want.Date.Equal(loaded[i].Date), "row %d date", i)
		assert.Equal(t, want.RegionID, loaded[i].RegionID, "row %d region", i)
		assert.Equal(t, want.Population, loaded[i].Population, "row %d population", i)
		assert.Equal(t, want.VaccinationRate, loaded[i].VaccinationRate, "row %d vaccination", i)
		assert.Equal(t, want.ElderlyPopulation, loaded[i].ElderlyPopulation, "row %d elderly", i)
	}
}

func TestSQLite_LoadPanelFilters(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	spec := testSpec()

	run, err := st.CreateRun(ctx, spec)
	require.NoError(t, err)
	require.NoError(t, st.SaveObservations(ctx, run.ID, testPanel(t, spec)))

	byRegion, err := st.LoadPanel(ctx, run.ID, PanelFilter{Regions: []int{1, 3}})
	require.NoError(t, err)
	require.Len(t, byRegion, 2*spec.Days)
	for _, o := range byRegion {
		assert.Contains(t, []int{1, 3}, o.RegionID)
	}

	from := spec.StartDate.AddDate(0, 0, 2)
	to := spec.StartDate.AddDate(0, 0, 4)
	byDate, err := st.LoadPanel(ctx, run.ID, PanelFilter{From: from, To: to})
	require.NoError(t, err)
	require.Len(t, byDate, 3*spec.Regions)
	for _, o := range byDate {
		assert.False(t, o.Date.Before(from))
		assert.False(t, o.Date.After(to))
	}

	both, err := st.LoadPanel(ctx, run.ID, PanelFilter{Regions: []int{2}, From: from, To: to})
	require.NoError(t, err)
	assert.Len(t, both, 3)

	none, err := st.LoadPanel(ctx, run.ID, PanelFilter{Regions: []int{99}})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLite_ListRuns(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	spec := testSpec()

	first, err := st.CreateRun(ctx, spec)
	require.NoError(t, err)
	second, err := st.CreateRun(ctx, spec)
	require.NoError(t, err)
	require.NoError(t, st.UpdateRunStatus(ctx, second.ID, model.RunStatusComplete))

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[0].ID)

	limited, err := st.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLite_DeleteRunRemovesObservations(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	spec := testSpec()

	run, err := st.CreateRun(ctx, spec)
	require.NoError(t, err)
	require.NoError(t, st.SaveObservations(ctx, run.ID, testPanel(t, spec)))

	require.NoError(t, st.DeleteRun(ctx, run.ID))

	loaded, err := st.LoadPanel(ctx, run.ID, PanelFilter{})
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestSQLite_NotFound(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.GetRun(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	err = st.UpdateRunStatus(ctx, "missing", model.RunStatusComplete)
	assert.True(t, errors.Is(err, ErrNotFound))

	err = st.DeleteRun(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}
