package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/qcbatch/gaussextract/pkg/record"
)

func sampleMeta() Meta {
	return Meta{
		Version:         "v1.0.0",
		Author:          "Test Author",
		TemperatureNote: "298.15 K (default)",
		ConcentrationM:  1.0,
		Workers:         4,
		Processed:       2,
		Total:           2,
		PeakMemoryMB:    128,
	}
}

func sampleRows() []record.Record {
	return []record.Record{
		{FileName: "a.log", GibbsKJMol: -100.5, LowFreq: -10.2, GibbsHartree: -0.5, Nuclear: 10.0, Electronic: -100.0, ZPE: 0.01, Status: record.StatusDone, Phase: record.PhaseNo, RoundCount: 1},
	}
}

func TestWriteTextIncludesHeaderAndRow(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleMeta(), sampleRows()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Output name") {
		t.Fatalf("missing header: %s", out)
	}
	if !strings.Contains(out, "a.log") {
		t.Fatalf("missing row: %s", out)
	}
	if !strings.Contains(out, "DONE") {
		t.Fatalf("missing status: %s", out)
	}
}

func TestWriteCSVQuotesCommas(t *testing.T) {
	rows := sampleRows()
	rows[0].FileName = "has,comma.log"

	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleMeta(), rows); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `"has,comma.log"`) {
		t.Fatalf("expected quoted field: %s", out)
	}
}

func TestBannerIncludesWarningsAndErrors(t *testing.T) {
	meta := sampleMeta()
	meta.Warnings = []string{"low disk space"}
	meta.Errors = []string{"could not open x.log"}

	var buf bytes.Buffer
	if err := WriteText(&buf, meta, nil); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "WARNING: low disk space") {
		t.Fatalf("missing warning: %s", out)
	}
	if !strings.Contains(out, "ERROR: could not open x.log") {
		t.Fatalf("missing error: %s", out)
	}
}
