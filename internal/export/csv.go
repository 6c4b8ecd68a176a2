// Package export writes panels to tabular file formats in the canonical
// column order.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/medpanel/internal/model"
)

// WriteCSV writes the panel to w with a header row.
func WriteCSV(w io.Writer, panel model.Panel) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.Columns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}

	record := make([]string, len(model.Columns))
	for _, o := range panel {
		record[0] = o.Date.Format(model.DateFormat)
		record[1] = strconv.Itoa(o.RegionID)
		for i, col := range model.Columns[2:] {
			v, _ := o.Value(col)
			record[i+2] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}
