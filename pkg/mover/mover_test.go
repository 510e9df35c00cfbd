package mover

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDirCreatesMissing(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "done", "nested")
	if err := EnsureDir(target); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		t.Fatalf("target dir not created: %v", err)
	}
}

func TestEnsureDirNoopWhenPresent(t *testing.T) {
	base := t.TempDir()
	if err := EnsureDir(base); err != nil {
		t.Fatal(err)
	}
}

func TestMoveRelocatesPrimaryAndSiblings(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(src, "done")
	if err := EnsureDir(dst); err != nil {
		t.Fatal(err)
	}

	primary := filepath.Join(src, "job.log")
	sibling := filepath.Join(src, "job.chk")
	if err := os.WriteFile(primary, []byte("log contents"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(sibling, []byte("chk contents"), 0644); err != nil {
		t.Fatal(err)
	}

	res := Move(primary, []string{sibling}, dst)
	if len(res.Failed) != 0 {
		t.Fatalf("unexpected failures: %+v", res.Failed)
	}
	if res.MovedPrimary != filepath.Join(dst, "job.log") {
		t.Fatalf("moved primary = %s", res.MovedPrimary)
	}
	if len(res.MovedSiblings) != 1 || res.MovedSiblings[0] != filepath.Join(dst, "job.chk") {
		t.Fatalf("moved siblings = %v", res.MovedSiblings)
	}
	if _, err := os.Stat(primary); !os.IsNotExist(err) {
		t.Fatalf("primary source should no longer exist")
	}
	if data, err := os.ReadFile(filepath.Join(dst, "job.log")); err != nil || string(data) != "log contents" {
		t.Fatalf("moved primary content mismatch: %v %q", err, data)
	}
}

func TestMoveSkipsMissingSiblingsWithoutFailing(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(src, "done")
	if err := EnsureDir(dst); err != nil {
		t.Fatal(err)
	}

	primary := filepath.Join(src, "job.log")
	if err := os.WriteFile(primary, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	res := Move(primary, []string{filepath.Join(src, "job.chk")}, dst)
	if len(res.Failed) != 0 {
		t.Fatalf("missing sibling should not be reported as failure: %+v", res.Failed)
	}
	if len(res.MovedSiblings) != 0 {
		t.Fatalf("missing sibling should not be reported as moved: %v", res.MovedSiblings)
	}
}

func TestMoveReportsFailureForNonDirectoryTarget(t *testing.T) {
	src := t.TempDir()
	// Target is a file, not a directory: the primary's rename into it
	// fails, and Move reports that in Failed instead of panicking or
	// returning silently.
	badTarget := filepath.Join(src, "not-a-dir")
	if err := os.WriteFile(badTarget, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	primary := filepath.Join(src, "job.log")
	if err := os.WriteFile(primary, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	res := Move(primary, nil, badTarget)
	if len(res.Failed) == 0 {
		t.Fatalf("expected a failure moving into a non-directory target")
	}
}

func TestCurrentDirNameNonEmpty(t *testing.T) {
	if CurrentDirName() == "" {
		t.Fatal("CurrentDirName returned empty string")
	}
}
