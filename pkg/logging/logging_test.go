package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/qcbatch/gaussextract/pkg/record"
)

func TestLoggerPlainTextPrefixes(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)
	l.Warning("disk at %d%%", 90)
	l.Error("bad file %s", "x.log")

	out := buf.String()
	if !strings.Contains(out, "WARNING: disk at 90%") {
		t.Fatalf("missing warning prefix: %s", out)
	}
	if !strings.Contains(out, "ERROR: bad file x.log") {
		t.Fatalf("missing error prefix: %s", out)
	}
}

func TestSummaryGibbsStats(t *testing.T) {
	records := []record.Record{
		{GibbsKJMol: 10},
		{GibbsKJMol: 20},
		{GibbsKJMol: 30},
	}
	s := NewSummary(records, []record.Bucket{record.BucketCompleted, record.BucketCompleted, record.BucketGenericError})
	mean, stddev := s.GibbsStats()
	if mean != 20 {
		t.Fatalf("mean = %v, want 20", mean)
	}
	if stddev <= 0 {
		t.Fatalf("stddev = %v, want > 0", stddev)
	}
	if s.BucketCounts[record.BucketCompleted] != 2 {
		t.Fatalf("completed count = %d, want 2", s.BucketCounts[record.BucketCompleted])
	}
}

func TestSummaryRenderDoesNotPanicOnEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewSummary(nil, nil).Render(&buf)
	if buf.Len() == 0 {
		t.Fatal("expected some output even for an empty summary")
	}
}
