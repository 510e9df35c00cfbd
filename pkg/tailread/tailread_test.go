package tailread

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func writeLines(t *testing.T, n int) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "f.log")
	var sb strings.Builder
	for i := 1; i <= n; i++ {
		sb.WriteString("line" + strconv.Itoa(i) + "\n")
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTailExactLineCount(t *testing.T) {
	path := writeLines(t, 20)
	got, err := Read(path, Tail, 5, "")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5: %q", len(lines), got)
	}
	if lines[0] != "line16" || lines[4] != "line20" {
		t.Fatalf("unexpected window: %v", lines)
	}
}

func TestTailFewerLinesThanRequested(t *testing.T) {
	path := writeLines(t, 3)
	got, err := Read(path, Tail, 10, "")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), got)
	}
}

func TestTailAcrossChunkBoundary(t *testing.T) {
	// Force more than one 4KiB backward chunk.
	path := writeLines(t, 2000)
	got, err := Read(path, Tail, 10, "")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 10 {
		t.Fatalf("got %d lines, want 10", len(lines))
	}
	if lines[9] != "line2000" {
		t.Fatalf("last line = %q, want line2000", lines[9])
	}
}

func TestFull(t *testing.T) {
	path := writeLines(t, 5)
	got, err := Read(path, Full, 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(got, "\n") != 5 {
		t.Fatalf("expected 5 newlines, got %d", strings.Count(got, "\n"))
	}
}

func TestSmartFallsBackToFull(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.log")
	content := "NEEDLE at the very top\n" + strings.Repeat("filler line\n", 500)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := Read(path, Smart, 5, "NEEDLE")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "NEEDLE") {
		t.Fatalf("smart mode should have fallen back to full read to find NEEDLE")
	}
}

func TestSmartUsesTailWhenPatternPresent(t *testing.T) {
	path := writeLines(t, 20)
	got, err := Read(path, Smart, 3, "line20")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(got, "\n") > 3 {
		t.Fatalf("expected smart to stay in tail window, got %q", got)
	}
}
