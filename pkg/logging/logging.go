// Package logging provides the CLI's colored status messages and the
// terminal run summary printed after a batch completes, adapted from
// internal/output's Formatter message helpers and Table renderer.
//
// Unlike the inherited formatter, this package has no JSON/Markdown mode:
// the batch commands' machine-readable output is the fixed report format
// in pkg/report, not a generic Renderable, so the only concern left here
// is human-facing terminal text.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"gonum.org/v1/gonum/stat"

	"github.com/qcbatch/gaussextract/pkg/record"
)

// Logger writes colored status lines to a writer, matching the source
// project's console logger (info/warn/error/success with a color per
// level, falling back to plain prefixed text when color is disabled).
type Logger struct {
	w       io.Writer
	colored bool
}

// New returns a Logger writing to w. When colored is false every method
// falls back to a plain-text prefix instead of an ANSI color.
func New(w io.Writer, colored bool) *Logger {
	return &Logger{w: w, colored: colored}
}

// NewStderr returns a Logger writing to os.Stderr, colored only when
// os.Stderr is a terminal is left to the caller to decide (most CLIs
// derive it from an isatty check and a --no-color flag).
func NewStderr(colored bool) *Logger {
	return New(os.Stderr, colored)
}

func (l *Logger) Success(format string, args ...any) {
	if l.colored {
		fmt.Fprintln(l.w, color.GreenString(format, args...))
	} else {
		fmt.Fprintf(l.w, format+"\n", args...)
	}
}

func (l *Logger) Warning(format string, args ...any) {
	if l.colored {
		fmt.Fprintln(l.w, color.YellowString("WARNING: "+format, args...))
	} else {
		fmt.Fprintf(l.w, "WARNING: "+format+"\n", args...)
	}
}

func (l *Logger) Error(format string, args ...any) {
	if l.colored {
		fmt.Fprintln(l.w, color.RedString("ERROR: "+format, args...))
	} else {
		fmt.Fprintf(l.w, "ERROR: "+format+"\n", args...)
	}
}

func (l *Logger) Info(format string, args ...any) {
	if l.colored {
		fmt.Fprintln(l.w, color.CyanString(format, args...))
	} else {
		fmt.Fprintf(l.w, format+"\n", args...)
	}
}

// BucketColor returns text colored by classification bucket, matching the
// source formatter's SeverityColor convention (errors red, non-convergence
// yellow, completed green).
func BucketColor(b record.Bucket, text string) string {
	switch b {
	case record.BucketCompleted:
		return color.GreenString(text)
	case record.BucketGenericError:
		return color.RedString(text)
	case record.BucketSolventModelNonConvergence, record.BucketImaginaryFrequency:
		return color.YellowString(text)
	default:
		return text
	}
}

// Summary is the terminal run summary printed after a batch finishes: a
// bucket-count breakdown and basic Gibbs-energy statistics over the
// successfully parsed records.
type Summary struct {
	Total      int
	BucketCounts map[record.Bucket]int
	Records    []record.Record
}

// NewSummary builds a Summary from a set of records and their
// classification buckets (buckets must hold one bucket per record, in the
// same order).
func NewSummary(records []record.Record, buckets []record.Bucket) Summary {
	s := Summary{Total: len(records), BucketCounts: map[record.Bucket]int{}, Records: records}
	for _, b := range buckets {
		s.BucketCounts[b]++
	}
	return s
}

// GibbsStats returns the mean and (population) standard deviation of the
// Gibbs free energy in kJ/mol across the summary's records, computed with
// gonum/stat; an empty summary reports (0, 0) and a single record reports
// a standard deviation of 0 rather than a divide-by-zero.
func (s Summary) GibbsStats() (mean, stddev float64) {
	if len(s.Records) == 0 {
		return 0, 0
	}
	values := make([]float64, len(s.Records))
	for i, r := range s.Records {
		values[i] = r.GibbsKJMol
	}
	mean, stddev = stat.PopMeanStdDev(values, nil)
	return mean, stddev
}

// Render writes the summary as a compact table followed by the
// Gibbs-energy statistics line.
func (s Summary) Render(w io.Writer) {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignLeft}},
			Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignLeft}},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{Left: tw.Off, Right: tw.Off, Top: tw.Off, Bottom: tw.Off},
		}),
	)
	table.Header([]string{"Bucket", "Count"})
	for _, b := range []record.Bucket{
		record.BucketCompleted, record.BucketGenericError,
		record.BucketSolventModelNonConvergence, record.BucketImaginaryFrequency,
		record.BucketRunning, record.BucketUnknown,
	} {
		if n, ok := s.BucketCounts[b]; ok && n > 0 {
			table.Append([]string{b.String(), fmt.Sprintf("%d", n)})
		}
	}
	table.Render()

	mean, stddev := s.GibbsStats()
	fmt.Fprintf(w, "Gibbs free energy (kJ/mol): mean %.2f, stddev %.2f, n=%d\n", mean, stddev, len(s.Records))
	fmt.Fprintln(w, strings.Repeat("-", 40))
}
