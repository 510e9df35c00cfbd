// Package checker implements the fused single-pass classifier+mover: one
// parallel classification pass over a file list followed by a sequential
// relocation pass per bucket, grounded on the source project's
// JobChecker::check_all_jobs (job_checker.cpp), which folds what the
// separate done/errors/pcm commands do across three passes into one.
package checker

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/cespare/xxhash/v2"

	"github.com/qcbatch/gaussextract/internal/fileproc"
	"github.com/qcbatch/gaussextract/pkg/gparser"
	"github.com/qcbatch/gaussextract/pkg/mover"
	"github.com/qcbatch/gaussextract/pkg/record"
)

// TargetDirs names the relocation directories for every bucket the fused
// pass can move files into. RunCheck reads only Done, Error and PCM;
// RunImode and RunBucket take their target directory as an argument, so
// Imaginary is not read by this package.
type TargetDirs struct {
	Done      string
	Error     string
	PCM       string
	Imaginary string
}

// BucketMove reports the relocation outcome for every file placed in one
// bucket.
type BucketMove struct {
	Bucket record.Bucket
	Dir    string
	Moves  []mover.Result
}

// Result is the outcome of a fused classify+move pass.
type Result struct {
	// Classified maps each inspected file to its classification bucket,
	// including buckets this pass does not relocate (Running, and for
	// RunCheck, ImaginaryFrequency).
	Classified map[string]record.Bucket
	Moves      []BucketMove
	// Skipped lists primary files whose content hash matched an
	// already-moved file's hash: every file is classified, but a file
	// whose content is identical to one already moved in this pass (a
	// symlink, a hard link, or a separate copy) is left in place.
	Skipped []string
	Errors  []error
}

type classification struct {
	path    string
	verdict record.Verdict
	err     error
}

func classifyAll(files []string, inputExtensions []string) []classification {
	results, _ := fileproc.ForEachFile(context.Background(), files, func(path string) (classification, error) {
		verdict, err := gparser.Classify(path, inputExtensions)
		return classification{path: path, verdict: verdict, err: err}, nil
	})
	return results
}

// RunCheck classifies every file in files and relocates the Completed,
// GenericError, and SolventModelNonConvergence buckets (plus each file's
// discovered siblings) into dirs.Done/Error/PCM respectively. Running and
// ImaginaryFrequency files are left in place: ImaginaryFrequency is the
// dedicated domain of RunImode and must not compete with these three
// buckets, matching the source project's separation of check-all from the
// imaginary-frequency command.
func RunCheck(files []string, dirs TargetDirs, inputExtensions []string) (Result, error) {
	return run(files, map[record.Bucket]string{
		record.BucketCompleted:                  dirs.Done,
		record.BucketGenericError:                dirs.Error,
		record.BucketSolventModelNonConvergence:  dirs.PCM,
	}, inputExtensions)
}

// RunImode classifies every file in files and relocates only the
// ImaginaryFrequency bucket into targetDir.
func RunImode(files []string, targetDir string, inputExtensions []string) (Result, error) {
	return run(files, map[record.Bucket]string{
		record.BucketImaginaryFrequency: targetDir,
	}, inputExtensions)
}

// RunBucket classifies every file in files and relocates only the named
// bucket into targetDir, leaving every other bucket (including the other
// two RunCheck buckets) untouched. This backs the single-verb done/errors/pcm
// commands, which must not reach into a sibling bucket's directory the way
// the combined RunCheck pass does.
func RunBucket(files []string, bucket record.Bucket, targetDir string, inputExtensions []string) (Result, error) {
	return run(files, map[record.Bucket]string{
		bucket: targetDir,
	}, inputExtensions)
}

func run(files []string, bucketDirs map[record.Bucket]string, inputExtensions []string) (Result, error) {
	classifications := classifyAll(files, inputExtensions)

	res := Result{Classified: make(map[string]record.Bucket, len(classifications))}

	// bitsets tracks, per relocatable bucket, the indices (into files) that
	// landed there. Exclusivity is a structural guarantee of deriveVerdict's
	// if/else-if chain, but re-verifying it here with an intersection check
	// over the classification's own output catches a future regression (a
	// reordered branch, a fallthrough) at the same layer that reports it,
	// rather than relying solely on the single-file classifier's internal
	// ordering being forever correct.
	bitsets := make(map[record.Bucket]*roaring.Bitmap, len(bucketDirs))
	for b := range bucketDirs {
		bitsets[b] = roaring.New()
	}

	grouped := make(map[record.Bucket][]classification, len(bucketDirs))
	for i, c := range classifications {
		if c.err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("checker: classify %s: %w", c.path, c.err))
			continue
		}
		res.Classified[c.path] = c.verdict.Bucket

		if bm, ok := bitsets[c.verdict.Bucket]; ok {
			bm.Add(uint32(i))
			grouped[c.verdict.Bucket] = append(grouped[c.verdict.Bucket], c)
		}
	}

	if err := verifyExclusive(bitsets); err != nil {
		return res, err
	}

	seen := make(map[uint64]string)
	var seenMu sync.Mutex

	for bucket, dir := range bucketDirs {
		entries := grouped[bucket]
		if len(entries) == 0 {
			continue
		}
		if err := mover.EnsureDir(dir); err != nil {
			res.Errors = append(res.Errors, err)
			continue
		}

		move := BucketMove{Bucket: bucket, Dir: dir}
		for _, c := range entries {
			sum, hashErr := contentHash(c.path)
			if hashErr == nil {
				seenMu.Lock()
				if prior, dup := seen[sum]; dup {
					seenMu.Unlock()
					res.Skipped = append(res.Skipped, c.path)
					_ = prior
					continue
				}
				seen[sum] = c.path
				seenMu.Unlock()
			}

			result := mover.Move(c.path, c.verdict.Siblings, dir)
			move.Moves = append(move.Moves, result)
			for _, f := range result.Failed {
				res.Errors = append(res.Errors, fmt.Errorf("checker: move %s: %w", f.Path, f.Err))
			}
		}
		res.Moves = append(res.Moves, move)
	}

	return res, nil
}

// verifyExclusive checks that no file index was added to more than one
// bucket's bitmap, the quantified invariant "each file is assigned to at
// most one bucket" made concrete over the actual classification run.
func verifyExclusive(bitsets map[record.Bucket]*roaring.Bitmap) error {
	buckets := make([]record.Bucket, 0, len(bitsets))
	for b := range bitsets {
		buckets = append(buckets, b)
	}
	for i := 0; i < len(buckets); i++ {
		for j := i + 1; j < len(buckets); j++ {
			overlap := roaring.And(bitsets[buckets[i]], bitsets[buckets[j]])
			if !overlap.IsEmpty() {
				return fmt.Errorf("checker: file classified into both %s and %s buckets", buckets[i], buckets[j])
			}
		}
	}
	return nil
}

// contentHash returns a fast, non-cryptographic digest of path's content,
// used only to recognize content already moved in this pass (the same
// file reached twice through a symlink or hard link, or a separate file
// with identical bytes) before a second, redundant move is attempted. This is a distinct concern from
// mover's blake3 hash, which instead verifies a single move's own
// before/after integrity; xxhash's speed matters here because every
// candidate file in the relocatable buckets is hashed once per run.
func contentHash(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(data), nil
}
