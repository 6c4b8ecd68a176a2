package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/medpanel/internal/model"
)

// ErrNotFound marks lookups of runs that do not exist.
var ErrNotFound = eris.New("not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
}

// PanelFilter restricts panel loading to a region set and date range. An
// empty region set matches all regions; zero bounds are open.
type PanelFilter struct {
	Regions []int     `json:"regions,omitempty"`
	From    time.Time `json:"from,omitempty"`
	To      time.Time `json:"to,omitempty"`
}

// Store persists generation runs and their panels. The synthesis and
// analysis core never touches it; the CLI and server layers do.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, spec model.GenerationSpec) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)
	DeleteRun(ctx context.Context, runID string) error

	// Panels
	SaveObservations(ctx context.Context, runID string, panel model.Panel) error
	LoadPanel(ctx context.Context, runID string, filter PanelFilter) (model.Panel, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// observationColumns is the column order used by both backends when
// inserting and selecting panel rows.
var observationColumns = []string{
	"run_id",
	"date",
	"region_id",
	"population",
	"medical_facilities",
	"medical_staff",
	"vaccination_rate",
	"awareness_index",
	"accessibility_score",
	"income_level",
	"education_level",
	"urbanization",
	"elderly_population",
}
