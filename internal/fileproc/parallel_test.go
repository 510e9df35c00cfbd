package fileproc

import (
	"context"
	"errors"
	"testing"
)

func TestForEachFileCollectsResults(t *testing.T) {
	files := []string{"a", "b", "c"}
	results, errs := ForEachFile(context.Background(), files, func(path string) (string, error) {
		return path + "-done", nil
	})
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(results) != 3 {
		t.Fatalf("results = %v, want 3 entries", results)
	}
}

func TestForEachFileCollectsPerFileErrors(t *testing.T) {
	files := []string{"ok", "bad"}
	_, errs := ForEachFile(context.Background(), files, func(path string) (string, error) {
		if path == "bad" {
			return "", errors.New("boom")
		}
		return path, nil
	})
	if errs == nil || !errs.HasErrors() {
		t.Fatal("expected a collected error for the bad file")
	}
	if len(errs.Errors) != 1 || errs.Errors[0].Path != "bad" {
		t.Fatalf("errs = %+v", errs)
	}
}

func TestForEachFileEmptyInput(t *testing.T) {
	results, errs := ForEachFile(context.Background(), nil, func(string) (string, error) {
		return "", nil
	})
	if results != nil || errs != nil {
		t.Fatalf("expected nil, nil for empty input, got %v, %v", results, errs)
	}
}
