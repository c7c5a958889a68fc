package export

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/eduplatform/backend/core/platform"
)

const (
	defaultSheet = "Sheet1"
	noDataText   = "No data"
)

// ExportXLSX writes a workbook with one sheet per collection and returns its path.
// Empty collections get a sheet reading "No data".
func (e *Exporter) ExportXLSX(snap platform.Snapshot) (string, error) {
	if err := e.prepare(); err != nil {
		return "", err
	}
	path := filepath.Join(e.dir, e.baseName+".xlsx")

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	data := snap.Collections()
	for i, name := range collections {
		idx, err := f.NewSheet(name)
		if err != nil {
			return "", errors.Wrapf(err, "creating %s sheet", name)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}
		if err := writeSheet(f, name, data[name]); err != nil {
			return "", errors.Wrapf(err, "exporting %s to XLSX", name)
		}
	}
	if err := f.DeleteSheet(defaultSheet); err != nil {
		return "", errors.Wrap(err, "deleting default sheet")
	}
	if err := f.SaveAs(path); err != nil {
		return "", errors.Wrap(err, "saving workbook")
	}
	if err := e.logEvent(TypeXLSX, path); err != nil {
		return "", err
	}
	return path, nil
}

func writeSheet(f *excelize.File, sheet string, records []platform.Record) error {
	if len(records) == 0 {
		return f.SetCellValue(sheet, "A1", noDataText)
	}

	cols := columns(records)
	header := make([]interface{}, len(cols))
	for i, col := range cols {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for r, rec := range records {
		row := make([]interface{}, len(cols))
		for i, col := range cols {
			switch v := rec[col].(type) {
			case int, float64, bool:
				row[i] = v
			default:
				row[i] = formatValue(v)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
