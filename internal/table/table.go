// Package table writes match results to output files: one CSV or Parquet
// file per table, a single XLSX workbook, or a PDF summary report.
package table

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/station-match-etl/internal/domain"
)

// Names are the base file names of the three output tables.
type Names struct {
	Registry string
	Network  string
	ThreeWay string
}

// DefaultNames matches the file names the station lists have always been
// published under.
var DefaultNames = Names{
	Registry: "igra_match_met",
	Network:  "met_match_cmonoc",
	ThreeWay: "igra_met_cmonoc",
}

// outputTable is one table ready for writing.
type outputTable struct {
	name   string
	header []string
	rows   [][]any
}

type valuer interface {
	Values() []any
}

func values[T valuer](rows []T) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = r.Values()
	}
	return out
}

// tables lists the result tables in a fixed order.
func tables(res domain.Result, names Names) []outputTable {
	return []outputTable{
		{name: names.Registry, header: domain.RegistryMatchHeader, rows: values(res.Registry)},
		{name: names.Network, header: domain.NetworkMatchHeader, rows: values(res.Network)},
		{name: names.ThreeWay, header: domain.ThreeWayMatchHeader, rows: values(res.ThreeWay)},
	}
}

// writeFileAtomic writes data next to path and renames it into place so a
// reader never sees a half-written table.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
