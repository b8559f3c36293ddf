package table

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/couchcryptid/station-match-etl/internal/domain"
)

// DefaultReportRows is how many three-way links the PDF report lists.
const DefaultReportRows = 25

// ReportWriter writes a one-page PDF summary of a run.
type ReportWriter struct {
	path    string
	maxRows int
	logger  *slog.Logger
}

// NewReportWriter creates a PDF sink writing to <dir>/<base>.pdf.
func NewReportWriter(dir, base string, maxRows int, logger *slog.Logger) *ReportWriter {
	if maxRows <= 0 {
		maxRows = DefaultReportRows
	}
	return &ReportWriter{path: filepath.Join(dir, base+".pdf"), maxRows: maxRows, logger: logger}
}

func (w *ReportWriter) Name() string { return "pdf" }

// Write renders res and saves the report.
func (w *ReportWriter) Write(ctx context.Context, res domain.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := BuildReport(res, w.maxRows)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(w.path, data); err != nil {
		return err
	}
	w.logger.Info("report written", "format", "pdf", "path", w.path)
	return nil
}

// BuildReport renders the summary PDF. Station names are left out because
// the core fonts cannot draw CJK text.
func BuildReport(res domain.Result, maxRows int) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Station Match Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Run: %s", res.RunID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", res.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.Cell(0, 6, fmt.Sprintf("Stations: igra %d, met %d, cmonoc %d",
		res.Stations[domain.GlobalRegistry], res.Stations[domain.NationalRegistry], res.Stations[domain.MonitoringRegistry]))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Rows: registry %d, network %d, three-way %d",
		len(res.Registry), len(res.Network), len(res.ThreeWay)))
	pdf.Ln(5)

	if n := len(res.ThreeWay); n > 0 {
		closest, farthest := res.ThreeWay[0], res.ThreeWay[n-1]
		pdf.Cell(0, 6, fmt.Sprintf("Closest link: %s / %s / %s at %s",
			closest.IgraID, closest.MetID, closest.CmonocID, FormatValue(closest.Distance)))
		pdf.Ln(5)
		pdf.Cell(0, 6, fmt.Sprintf("Farthest link: %s / %s / %s at %s",
			farthest.IgraID, farthest.MetID, farthest.CmonocID, FormatValue(farthest.Distance)))
		pdf.Ln(8)
	}

	pdf.SetFont("Arial", "B", 10)
	for _, h := range []struct {
		title string
		width float64
	}{{"IGRA", 40}, {"Met", 30}, {"CMONOC", 30}, {"Start", 20}, {"End", 20}, {"Distance", 30}} {
		pdf.CellFormat(h.width, 6, h.title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for i, r := range res.ThreeWay {
		if i == maxRows {
			break
		}
		pdf.CellFormat(40, 6, r.IgraID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, r.MetID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, r.CmonocID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, FormatValue(r.Start), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, FormatValue(r.End), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, FormatValue(r.Distance), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	if extra := len(res.ThreeWay) - maxRows; extra > 0 {
		pdf.Ln(2)
		pdf.Cell(0, 6, fmt.Sprintf("... %d more", extra))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}
