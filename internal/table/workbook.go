package table

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/station-match-etl/internal/domain"
)

const summarySheet = "summary"

// WorkbookWriter writes a single XLSX workbook with a summary sheet and one
// sheet per table.
type WorkbookWriter struct {
	path   string
	names  Names
	logger *slog.Logger
}

// NewWorkbookWriter creates an XLSX sink writing to <dir>/<base>.xlsx.
func NewWorkbookWriter(dir, base string, names Names, logger *slog.Logger) *WorkbookWriter {
	return &WorkbookWriter{path: filepath.Join(dir, base+".xlsx"), names: names, logger: logger}
}

func (w *WorkbookWriter) Name() string { return "xlsx" }

// Write renders res and saves the workbook.
func (w *WorkbookWriter) Write(ctx context.Context, res domain.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := BuildWorkbook(res, w.names)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(w.path, data); err != nil {
		return err
	}
	w.logger.Info("workbook written", "format", "xlsx", "path", w.path)
	return nil
}

// BuildWorkbook renders res as XLSX bytes.
func BuildWorkbook(res domain.Result, names Names) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // in-memory file

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	if err := writeSummarySheet(f, res, names); err != nil {
		return nil, err
	}

	for _, t := range tables(res, names) {
		if _, err := f.NewSheet(t.name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", t.name, err)
		}
		header := make([]any, len(t.header))
		for i, h := range t.header {
			header[i] = h
		}
		if err := f.SetSheetRow(t.name, "A1", &header); err != nil {
			return nil, fmt.Errorf("sheet %s header: %w", t.name, err)
		}
		for i, row := range t.rows {
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return nil, err
			}
			vals := cellValues(row)
			if err := f.SetSheetRow(t.name, cell, &vals); err != nil {
				return nil, fmt.Errorf("sheet %s row %d: %w", t.name, i+1, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, res domain.Result, names Names) error {
	rows := [][]any{
		{"Station Match Summary"},
		{},
		{"Run ID", res.RunID},
		{"Generated", res.GeneratedAt.Format(time.RFC3339)},
		{},
		{"Catalog", "Stations"},
	}
	for _, kind := range []domain.CatalogKind{domain.GlobalRegistry, domain.NationalRegistry, domain.MonitoringRegistry} {
		rows = append(rows, []any{string(kind), res.Stations[kind]})
	}
	rows = append(rows,
		[]any{},
		[]any{"Table", "Rows"},
		[]any{names.Registry, len(res.Registry)},
		[]any{names.Network, len(res.Network)},
		[]any{names.ThreeWay, len(res.ThreeWay)},
	)

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("summary row %d: %w", i+1, err)
		}
	}
	return nil
}

// cellValues replaces NaN with blank cells; excelize would otherwise store
// the literal text NaN in a numeric cell.
func cellValues(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		if x, ok := v.(float64); ok && math.IsNaN(x) {
			continue
		}
		out[i] = v
	}
	return out
}
