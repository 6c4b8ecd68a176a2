package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/medpanel/internal/model"
)

// WriteXLSX writes the panel to an XLSX file with a single "panel" sheet.
func WriteXLSX(path string, panel model.Panel) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("panel")
	if err != nil {
		return eris.Wrap(err, "export: add xlsx sheet")
	}

	header := sheet.AddRow()
	for _, col := range model.Columns {
		header.AddCell().SetString(col)
	}

	for _, o := range panel {
		row := sheet.AddRow()
		row.AddCell().SetString(o.Date.Format(model.DateFormat))
		row.AddCell().SetInt(o.RegionID)
		row.AddCell().SetInt(o.Population)
		row.AddCell().SetInt(o.MedicalFacilities)
		row.AddCell().SetInt(o.MedicalStaff)
		row.AddCell().SetFloat(o.VaccinationRate)
		row.AddCell().SetFloat(o.AwarenessIndex)
		row.AddCell().SetFloat(o.AccessibilityScore)
		row.AddCell().SetFloat(o.IncomeLevel)
		row.AddCell().SetFloat(o.EducationLevel)
		row.AddCell().SetFloat(o.Urbanization)
		row.AddCell().SetFloat(o.ElderlyPopulation)
	}

	return eris.Wrapf(f.Save(path), "export: save xlsx %s", path)
}
