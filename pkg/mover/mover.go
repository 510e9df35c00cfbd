// Package mover implements the transactional relocation of a classified
// file and its sibling artifacts into a target directory, grounded on the
// source project's JobChecker::move_job_files / create_target_directory
// (job_checker.cpp).
package mover

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

// EnsureDir creates dir (and any missing parents) if it does not already
// exist, matching create_target_directory's exists-check-then-
// create_directories behavior.
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mover: create directory %s: %w", dir, err)
	}
	return nil
}

// Result reports what happened when Move relocated one file and its
// siblings.
type Result struct {
	MovedPrimary  string
	MovedSiblings []string
	Failed        []FailedMove
}

// FailedMove names a path that could not be relocated and why. A failed
// sibling move never aborts the primary move or later siblings, matching
// the source's "failures are logged but do not abort subsequent moves."
type FailedMove struct {
	Path string
	Err  error
}

// Move relocates primary and each of siblings into targetDir, preserving
// each file's base name. targetDir must already exist (call EnsureDir
// first); Move itself performs no directory creation so that a single
// EnsureDir failure for a whole bucket is reported once, not once per
// file.
//
// Each file is moved independently: a failure moving one sibling is
// recorded in Result.Failed and does not prevent the remaining siblings
// (or the primary, if siblings are attempted after it fails) from being
// attempted. The primary is always attempted first.
func Move(primary string, siblings []string, targetDir string) Result {
	var res Result

	if err := moveOne(primary, targetDir, true); err != nil {
		res.Failed = append(res.Failed, FailedMove{Path: primary, Err: err})
	} else {
		res.MovedPrimary = filepath.Join(targetDir, filepath.Base(primary))
	}

	for _, sib := range siblings {
		if _, err := os.Stat(sib); err != nil {
			continue
		}
		if err := moveOne(sib, targetDir, false); err != nil {
			res.Failed = append(res.Failed, FailedMove{Path: sib, Err: err})
			continue
		}
		res.MovedSiblings = append(res.MovedSiblings, filepath.Join(targetDir, filepath.Base(sib)))
	}

	return res
}

// moveOne renames src into targetDir, verifying the destination's content
// hash against the source's pre-move hash when verifyHash is set. The
// source project relies on std::filesystem::rename, which is atomic on a
// single filesystem; the hash check is a defensive integrity guard for
// the primary result file, whose corruption would silently poison a
// later extract/combine pass.
func moveOne(src, targetDir string, verifyHash bool) error {
	dest := filepath.Join(targetDir, filepath.Base(src))

	var wantSum [32]byte
	if verifyHash {
		sum, err := hashFile(src)
		if err != nil {
			return fmt.Errorf("mover: hash %s before move: %w", src, err)
		}
		wantSum = sum
	}

	if err := os.Rename(src, dest); err != nil {
		return fmt.Errorf("mover: rename %s -> %s: %w", src, dest, err)
	}

	if verifyHash {
		gotSum, err := hashFile(dest)
		if err != nil {
			return fmt.Errorf("mover: hash %s after move: %w", dest, err)
		}
		if gotSum != wantSum {
			return fmt.Errorf("mover: content mismatch after moving %s to %s", src, dest)
		}
	}
	return nil
}

func hashFile(path string) ([32]byte, error) {
	var sum [32]byte
	data, err := os.ReadFile(path)
	if err != nil {
		return sum, err
	}
	sum = blake3.Sum256(data)
	return sum, nil
}

// CurrentDirName returns the base name of the current working directory,
// or "unknown" on failure, matching get_current_directory_name's fallback.
func CurrentDirName() string {
	wd, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	name := filepath.Base(wd)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "unknown"
	}
	return name
}
