// Package report renders the extract command's result table in the two
// fixed output shapes the downstream tooling expects: a fixed-width text
// layout and a CSV layout, each preceded by a metadata banner describing
// the run. Grounded on the source project's print_results / Metadata
// formatting in gaussian_extractor.cpp, reproduced column-for-column so
// existing parsers of the legacy format keep working.
//
// The column layout is a fixed legacy contract, not a table a user
// configures, so this package formats with plain fmt rather than a
// table-rendering library: that keeps the widths exact instead of at the
// mercy of a general-purpose renderer's own padding rules.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/qcbatch/gaussextract/pkg/record"
)

// column widths, in source order, matching the upstream setw sequence:
// name, ETG kJ/mol, low FC, ETG a.u., nuclear E au, SCFE, ZPE, status,
// phase correction, round count.
var columnWidths = []int{53, 18, 10, 18, 18, 18, 10, 8, 6, 6}

var columnHeaders = []string{
	"Output name", "ETG kJ/mol", "Low FC", "ETG a.u", "Nuclear E au", "SCFE", "ZPE ", "Status", "PCorr", "Round",
}

// Meta carries the run-level information printed above the table.
type Meta struct {
	Version          string
	Author           string
	TemperatureNote  string // e.g. "298.15 K (default)" or "298.15 K (from file)"
	ConcentrationM   float64
	PhaseCorrNote    string // representative phase-correction term, formatted by the caller
	Workers          int
	Processed        int
	Total            int
	PeakMemoryMB     int64
	Warnings         []string
	Errors           []string
	GeneratedAt      time.Time
}

// WriteText renders the metadata banner and the fixed-width table to w.
func WriteText(w io.Writer, meta Meta, rows []record.Record) error {
	if err := writeBanner(w, meta); err != nil {
		return err
	}

	for i, h := range columnHeaders {
		if _, err := fmt.Fprintf(w, "%-*s", columnWidths[i], h); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	for _, r := range rows {
		if err := writeTextRow(w, r); err != nil {
			return err
		}
	}
	return nil
}

func writeTextRow(w io.Writer, r record.Record) error {
	fields := []string{
		r.FileName,
		fmt.Sprintf("%.2f", r.GibbsKJMol),
		fmt.Sprintf("%.2f", r.LowFreq),
		fmt.Sprintf("%.6f", r.GibbsHartree),
		fmt.Sprintf("%.6f", r.Nuclear),
		fmt.Sprintf("%.6f", r.Electronic),
		fmt.Sprintf("%.6f", r.ZPE),
		string(r.Status),
		string(r.Phase),
		fmt.Sprintf("%d", r.RoundCount),
	}
	for i, f := range fields {
		if _, err := fmt.Fprintf(w, "%-*s", columnWidths[i], f); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// WriteCSV renders the metadata banner (as leading "# "-prefixed comment
// lines) followed by a comma-separated table with the same columns.
func WriteCSV(w io.Writer, meta Meta, rows []record.Record) error {
	if err := writeBannerComment(w, meta); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, strings.Join(columnHeaders, ",")); err != nil {
		return err
	}
	for _, r := range rows {
		line := strings.Join([]string{
			csvQuote(strings.TrimSpace(r.FileName)),
			fmt.Sprintf("%.2f", r.GibbsKJMol),
			fmt.Sprintf("%.2f", r.LowFreq),
			fmt.Sprintf("%.6f", r.GibbsHartree),
			fmt.Sprintf("%.6f", r.Nuclear),
			fmt.Sprintf("%.6f", r.Electronic),
			fmt.Sprintf("%.6f", r.ZPE),
			string(r.Status),
			string(r.Phase),
			fmt.Sprintf("%d", r.RoundCount),
		}, ",")
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func csvQuote(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

const bannerRule = "--------------------------------------------------------------------------"

func writeBanner(w io.Writer, meta Meta) error {
	lines := bannerLines(meta)
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

func writeBannerComment(w io.Writer, meta Meta) error {
	for _, l := range bannerLines(meta) {
		if _, err := fmt.Fprintln(w, "# "+l); err != nil {
			return err
		}
	}
	return nil
}

func bannerLines(meta Meta) []string {
	lines := []string{
		fmt.Sprintf("%s %s developed by %s", "Gaussian Extractor", meta.Version, meta.Author),
		fmt.Sprintf("Temperature: %s", meta.TemperatureNote),
		fmt.Sprintf("Concentration: %.4f M", meta.ConcentrationM),
	}
	if meta.PhaseCorrNote != "" {
		lines = append(lines, fmt.Sprintf("Representative phase correction: %s", meta.PhaseCorrNote))
	}
	lines = append(lines,
		fmt.Sprintf("Workers: %d", meta.Workers),
		fmt.Sprintf("Successfully processed %d/%d files", meta.Processed, meta.Total),
		fmt.Sprintf("Peak memory: %d MB", meta.PeakMemoryMB),
	)

	if len(meta.Warnings) > 0 || len(meta.Errors) > 0 {
		lines = append(lines, bannerRule)
		for _, w := range meta.Warnings {
			lines = append(lines, "WARNING: "+w)
		}
		for _, e := range meta.Errors {
			lines = append(lines, "ERROR: "+e)
		}
	}
	lines = append(lines, bannerRule)
	return lines
}
