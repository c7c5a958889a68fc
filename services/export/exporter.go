// Package export writes platform snapshots as CSV files, an XLSX workbook or SQL statements,
// and keeps an append-only log of every export.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/eduplatform/backend/core"
	"github.com/eduplatform/backend/core/platform"
)

// Export types
const (
	TypeCSV  = "CSV"
	TypeXLSX = "XLSX"
	TypeSQL  = "SQL"
)

var (
	NowFunc = time.Now // mockable

	// collections, in export order
	collections = []string{
		platform.CollectionUsers,
		platform.CollectionAssignments,
		platform.CollectionGrades,
		platform.CollectionSchedules,
	}
)

// Event is an export log entry.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Target    string    `json:"target"`
}

type Exporter struct {
	dir      string
	logPath  string
	baseName string
	log      core.Logger
}

// NewExporter writes into the configured export dir, resolved from the project root when relative.
func NewExporter(conf *core.Config, logger core.Logger) *Exporter {
	dir := conf.Export.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(conf.WorkDir, dir)
	}
	return &Exporter{
		dir:      dir,
		logPath:  filepath.Join(dir, conf.Export.LogFile),
		baseName: core.CleanString(conf.AppName, true /* lower */),
		log:      logger,
	}
}

func (e *Exporter) Dir() string { return e.dir }

func (e *Exporter) LogPath() string { return e.logPath }

func (e *Exporter) prepare() error {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return errors.Wrap(err, "creating export dir")
	}
	return nil
}

// ExportAll writes the snapshot in every format and returns the written paths.
func (e *Exporter) ExportAll(snap platform.Snapshot) ([]string, error) {
	paths, err := e.ExportCSV(snap)
	if err != nil {
		return paths, err
	}
	xlsxPath, err := e.ExportXLSX(snap)
	if err != nil {
		return paths, err
	}
	sqlPath, err := e.ExportSQL(snap)
	if err != nil {
		return paths, err
	}
	return append(paths, xlsxPath, sqlPath), nil
}

// logEvent appends an Event to the export log.
func (e *Exporter) logEvent(typ, target string) error {
	evt := Event{
		ID:        uuid.New().String(),
		Timestamp: NowFunc().UTC(),
		Type:      typ,
		Target:    target,
	}
	line, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "encoding export event")
	}

	f, err := os.OpenFile(e.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "opening export log")
	}
	defer func() { _ = f.Close() }()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return errors.Wrap(err, "writing export log")
	}
	e.log.Info("data exported", map[string]interface{}{"id": evt.ID, "type": typ, "target": target})
	return nil
}

// ReadLog returns the events of the export log at `path`, oldest first.
func ReadLog(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening export log")
	}
	defer func() { _ = f.Close() }()

	events := make([]Event, 0)
	dec := json.NewDecoder(f)
	for dec.More() {
		var evt Event
		if err := dec.Decode(&evt); err != nil {
			return nil, errors.Wrap(err, "decoding export log")
		}
		events = append(events, evt)
	}
	return events, nil
}

// columns returns the union of the records' keys, "id" first then sorted.
func columns(records []platform.Record) []string {
	seen := make(map[string]bool)
	cols := make([]string, 0)
	for _, rec := range records {
		for key := range rec {
			if !seen[key] {
				seen[key] = true
				if key != "id" {
					cols = append(cols, key)
				}
			}
		}
	}
	sort.Strings(cols)
	if seen["id"] {
		cols = append([]string{"id"}, cols...)
	}
	return cols
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}
