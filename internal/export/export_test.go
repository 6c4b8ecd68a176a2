package export

import (
	"bytes"
	"encoding/csv"
	"math/rand"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/medpanel/internal/model"
	"github.com/sells-group/medpanel/internal/synth"
)

func samplePanel(t *testing.T) model.Panel {
	t.Helper()
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	panel, err := synth.GeneratePanel(rand.New(rand.NewSource(7)), 3, 4, start)
	require.NoError(t, err)
	return panel
}

func TestWriteCSV(t *testing.T) {
	panel := samplePanel(t)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, panel))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(panel)+1)

	assert.Equal(t, model.Columns, records[0])

	first := records[1]
	assert.Equal(t, panel[0].Date.Format(model.DateFormat), first[0])
	assert.Equal(t, strconv.Itoa(panel[0].RegionID), first[1])

	pop, err := strconv.ParseFloat(first[2], 64)
	require.NoError(t, err)
	assert.Equal(t, float64(panel[0].Population), pop)

	vacc, err := strconv.ParseFloat(first[5], 64)
	require.NoError(t, err)
	assert.Equal(t, panel[0].VaccinationRate, vacc)
}

func TestWriteCSV_EmptyPanel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, model.Panel{}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1, "header only")
}

func TestWriteXLSX(t *testing.T) {
	panel := samplePanel(t)
	path := filepath.Join(t.TempDir(), "panel.xlsx")

	require.NoError(t, WriteXLSX(path, panel))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	assert.Equal(t, "panel", sheet.Name)
	require.Len(t, sheet.Rows, len(panel)+1)

	for i, col := range model.Columns {
		assert.Equal(t, col, sheet.Rows[0].Cells[i].String())
	}

	row := sheet.Rows[1]
	assert.Equal(t, panel[0].Date.Format(model.DateFormat), row.Cells[0].String())

	region, err := row.Cells[1].Int()
	require.NoError(t, err)
	assert.Equal(t, panel[0].RegionID, region)

	vacc, err := row.Cells[5].Float()
	require.NoError(t, err)
	assert.InDelta(t, panel[0].VaccinationRate, vacc, 1e-9)
}
