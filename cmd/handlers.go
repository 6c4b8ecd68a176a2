package main

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/medpanel/internal/analysis"
	"github.com/sells-group/medpanel/internal/config"
	"github.com/sells-group/medpanel/internal/model"
	"github.com/sells-group/medpanel/internal/store"
	"github.com/sells-group/medpanel/internal/synth"
)

type apiHandler struct {
	store store.Store
	cfg   *config.Config
}

type createRunRequest struct {
	Regions   int    `json:"regions"`
	Days      int    `json:"days"`
	StartDate string `json:"start_date"`
	Seed      int64  `json:"seed"`
}

// createRun generates a panel and persists it as a run. The request either
// produces a complete stored panel or fails outright.
func (h *apiHandler) createRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Regions == 0 {
		req.Regions = h.cfg.Gen.Regions
	}
	if req.Days == 0 {
		req.Days = h.cfg.Gen.Days
	}
	if req.StartDate == "" {
		req.StartDate = h.cfg.Gen.StartDate
	}
	start, err := time.Parse(model.DateFormat, req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	panel, err := synth.GeneratePanel(rand.New(rand.NewSource(seed)), req.Regions, req.Days, start)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	spec := model.GenerationSpec{Regions: req.Regions, Days: req.Days, StartDate: start, Seed: seed}
	run, err := h.store.CreateRun(r.Context(), spec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.store.SaveObservations(r.Context(), run.ID, panel); err != nil {
		if stErr := h.store.UpdateRunStatus(r.Context(), run.ID, model.RunStatusFailed); stErr != nil {
			zap.L().Warn("mark run failed", zap.Error(stErr))
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	run.Status = model.RunStatusComplete
	run.Rows = len(panel)
	writeJSON(w, http.StatusCreated, run)
}

func (h *apiHandler) listRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.store.ListRuns(r.Context(), store.RunFilter{
		Status: model.RunStatus(r.URL.Query().Get("status")),
		Limit:  limit,
	})
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h *apiHandler) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.store.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *apiHandler) deleteRun(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteRun(r.Context(), chi.URLParam(r, "runID")); err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// loadPanel applies the shared regions/from/to query parameters.
func (h *apiHandler) loadPanel(w http.ResponseWriter, r *http.Request) (model.Panel, bool) {
	q := r.URL.Query()
	filter, err := parsePanelFilter(q.Get("regions"), q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return nil, false
	}

	runID := chi.URLParam(r, "runID")
	if _, err := h.store.GetRun(r.Context(), runID); err != nil {
		writeError(w, statusForError(err), err.Error())
		return nil, false
	}
	panel, err := h.store.LoadPanel(r.Context(), runID, filter)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return nil, false
	}
	return panel, true
}

func (h *apiHandler) getPanel(w http.ResponseWriter, r *http.Request) {
	panel, ok := h.loadPanel(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": panel, "count": len(panel)})
}

func (h *apiHandler) getSummary(w http.ResponseWriter, r *http.Request) {
	panel, ok := h.loadPanel(w, r)
	if !ok {
		return
	}

	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = "vaccination_rate"
	}
	summaries, err := analysis.Summarize(metric, panel)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"metric": metric, "regions": summaries})
}

func (h *apiHandler) getCorrelation(w http.ResponseWriter, r *http.Request) {
	panel, ok := h.loadPanel(w, r)
	if !ok {
		return
	}

	columns := model.IndicatorColumns
	if raw := r.URL.Query().Get("columns"); raw != "" {
		columns = strings.Split(raw, ",")
	}
	matrix, err := analysis.Correlate(columns, panel)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, matrix)
}

func (h *apiHandler) getClusters(w http.ResponseWriter, r *http.Request) {
	panel, ok := h.loadPanel(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	features := []string{"vaccination_rate", "accessibility_score", "income_level"}
	if raw := q.Get("features"); raw != "" {
		features = strings.Split(raw, ",")
	}
	k := h.cfg.Cluster.DefaultK
	if raw := q.Get("k"); raw != "" {
		var err error
		if k, err = strconv.Atoi(raw); err != nil {
			writeError(w, http.StatusBadRequest, "k must be an integer")
			return
		}
	}
	seed := h.cfg.Cluster.Seed
	if raw := q.Get("seed"); raw != "" {
		var err error
		if seed, err = strconv.ParseInt(raw, 10, 64); err != nil {
			writeError(w, http.StatusBadRequest, "seed must be an integer")
			return
		}
	}

	result, err := analysis.Cluster(features, panel, k, seed)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}
