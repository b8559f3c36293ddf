package table

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/station-match-etl/internal/domain"
)

// bom prefixes every CSV so spreadsheet tools detect UTF-8 province and city names.
const bom = "\ufeff"

// CSVWriter writes each table to <dir>/<name>.csv.
type CSVWriter struct {
	dir    string
	names  Names
	logger *slog.Logger
}

// NewCSVWriter creates a CSV sink rooted at dir.
func NewCSVWriter(dir string, names Names, logger *slog.Logger) *CSVWriter {
	return &CSVWriter{dir: dir, names: names, logger: logger}
}

func (w *CSVWriter) Name() string { return "csv" }

// Write writes the three tables of res.
func (w *CSVWriter) Write(ctx context.Context, res domain.Result) error {
	for _, t := range tables(res, w.names) {
		if err := ctx.Err(); err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := WriteCSV(&buf, t.header, t.rows); err != nil {
			return fmt.Errorf("table %s: %w", t.name, err)
		}
		path := filepath.Join(w.dir, t.name+".csv")
		if err := writeFileAtomic(path, buf.Bytes()); err != nil {
			return err
		}
		w.logger.Info("table written", "format", "csv", "path", path, "rows", len(t.rows))
	}
	return nil
}

// WriteCSV writes a BOM, the header and rows. Missing numbers become empty
// fields.
func WriteCSV(w io.Writer, header []string, rows [][]any) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	record := make([]string, len(header))
	for _, row := range rows {
		if len(row) != len(header) {
			return fmt.Errorf("row has %d values, header has %d", len(row), len(header))
		}
		for i, v := range row {
			record[i] = FormatValue(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a table written by WriteCSV.
func ReadCSV(r io.Reader) (header []string, rows [][]string, err error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, io.ErrUnexpectedEOF
	}
	header = records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], bom)
	}
	return header, records[1:], nil
}

// FormatValue renders a cell. Floats use the shortest representation that
// round-trips, so values already rounded to N places print with at most N.
func FormatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
