package export

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/eduplatform/backend/core/platform"
)

// ExportCSV writes one "<collection>.csv" file per non-empty collection and returns their paths.
func (e *Exporter) ExportCSV(snap platform.Snapshot) ([]string, error) {
	if err := e.prepare(); err != nil {
		return nil, err
	}
	data := snap.Collections()
	paths := make([]string, 0, len(collections))
	for _, name := range collections {
		records := data[name]
		if len(records) == 0 {
			continue
		}
		path := filepath.Join(e.dir, name+".csv")
		if err := writeCSV(path, records); err != nil {
			return paths, errors.Wrapf(err, "exporting %s to CSV", name)
		}
		if err := e.logEvent(TypeCSV, path); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeCSV(path string, records []platform.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	cols := columns(records)
	w := csv.NewWriter(f)
	if err := w.Write(cols); err != nil {
		return err
	}
	row := make([]string, len(cols))
	for _, rec := range records {
		for i, col := range cols {
			row[i] = formatValue(rec[col])
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
