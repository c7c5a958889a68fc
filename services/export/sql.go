package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/volatiletech/strmangle"

	"github.com/eduplatform/backend/core/platform"
)

// ExportSQL writes T-SQL statements creating and filling one table per non-empty collection
// and returns the script's path.
func (e *Exporter) ExportSQL(snap platform.Snapshot) (string, error) {
	if err := e.prepare(); err != nil {
		return "", err
	}
	path := filepath.Join(e.dir, e.baseName+".sql")

	var sb strings.Builder
	data := snap.Collections()
	for _, name := range collections {
		if records := data[name]; len(records) > 0 {
			writeTable(&sb, TableName(name), records)
		}
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", errors.Wrap(err, "writing SQL script")
	}
	if err := e.logEvent(TypeSQL, path); err != nil {
		return "", err
	}
	return path, nil
}

// TableName maps a collection to its table, eg. "users" -> "tbl_user".
func TableName(collection string) string {
	return "tbl_" + strmangle.Singular(collection)
}

func writeTable(sb *strings.Builder, table string, records []platform.Record) {
	cols := columns(records)
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = "[" + col + "]"
	}

	fmt.Fprintf(sb, "CREATE TABLE [%s] (\n", table)
	for i, col := range cols {
		def := fmt.Sprintf("    %s %s", quoted[i], sqlType(records, col))
		if col == "id" {
			def += " PRIMARY KEY"
		}
		if i < len(cols)-1 {
			def += ","
		}
		sb.WriteString(def + "\n")
	}
	sb.WriteString(");\nGO\n\n")

	for _, rec := range records {
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = sqlValue(rec[col])
		}
		fmt.Fprintf(sb, "INSERT INTO [%s] (%s) VALUES (%s);\n",
			table, strings.Join(quoted, ", "), strings.Join(values, ", "))
	}
	sb.WriteString("GO\n\n")
}

// sqlType infers the column type from its first set value.
func sqlType(records []platform.Record, col string) string {
	for _, rec := range records {
		switch rec[col].(type) {
		case nil:
			continue
		case int:
			return "INT"
		case float64:
			return "FLOAT"
		case bool:
			return "BIT"
		default:
			return "NVARCHAR(MAX)"
		}
	}
	return "NVARCHAR(MAX)"
}

func sqlValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case int, float64:
		return fmt.Sprint(val)
	case bool:
		if val {
			return "1"
		}
		return "0"
	default:
		return "N'" + strings.ReplaceAll(formatValue(val), "'", "''") + "'"
	}
}
