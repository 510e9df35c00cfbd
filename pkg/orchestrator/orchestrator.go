// Package orchestrator drives a batch run end to end: detect the
// scheduler allocation, discover candidate files, size the worker pool
// and memory governor, fan a fixed pool of workers out over the file list
// with an atomic pull-based cursor, parse every file, and assemble the
// results for the report writer.
//
// Grounded on the source project's parallel processing driver in
// gaussian_extractor.cpp (thread pool sized by calculateSafeThreadCount,
// std::atomic<size_t> next_index pulled by each worker) and on this
// module's own internal/fileproc, adapted from a per-item pool.Go call to
// a fixed worker count that loops on an atomic cursor, per the batch
// orchestrator's pull-based fan-out requirement.
package orchestrator

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/qcbatch/gaussextract/pkg/descriptor"
	"github.com/qcbatch/gaussextract/pkg/diagsink"
	"github.com/qcbatch/gaussextract/pkg/discovery"
	"github.com/qcbatch/gaussextract/pkg/governor"
	"github.com/qcbatch/gaussextract/pkg/gparser"
	"github.com/qcbatch/gaussextract/pkg/record"
	"github.com/qcbatch/gaussextract/pkg/resourcepolicy"
	"github.com/qcbatch/gaussextract/pkg/scheduler"
)

// Options configures a batch run. Zero values pick sensible defaults:
// RequestedWorkers <= 0 falls back to hardware concurrency, MemoryLimitMB
// of 0 derives the cap from detected system RAM.
type Options struct {
	Dir              string
	Extensions       []string
	MaxFileSizeMB    int64
	RequestedWorkers int
	MemoryLimitMB    uint64
	Temperature      float64
	UseFileTemperature bool
	ConcentrationM   float64
	InputExtensions  []string
	Cancelled        func() bool

	// OnProgress, if set, is called after every file finishes (success or
	// failure), once per file, from whichever worker goroutine completed
	// it. Implementations must be safe for concurrent use.
	OnProgress func(done, total int)
}

// Item is one file's outcome: on success both Record and Verdict are
// populated; on failure only Err (and Path) is set.
type Item struct {
	Path    string
	Record  record.Record
	Verdict record.Verdict
	Err     error
}

// Result is the full batch outcome.
type Result struct {
	Allocation  record.JobAllocation
	Workers     int
	MemoryCapMB uint64
	Items       []Item
	Diagnostics *diagsink.Sink
	PeakMemoryBytes int64
	Duration    time.Duration
}

// Run discovers files under opts.Dir and processes them with a fixed pool
// of workers pulling from a shared atomic cursor, matching the source
// project's thread-pool dispatch instead of spawning one goroutine per
// file.
func Run(opts Options) (Result, error) {
	start := time.Now()

	alloc := scheduler.Detect()

	files, err := discovery.Find(discovery.Options{
		Dir:        opts.Dir,
		Extensions: opts.Extensions,
		MaxSizeMB:  opts.MaxFileSizeMB,
	})
	if err != nil {
		return Result{}, err
	}

	requested := opts.RequestedWorkers
	if requested <= 0 {
		requested = runtime.NumCPU()
	}
	workers := resourcepolicy.WorkerCount(requested, len(files), alloc, runtime.NumCPU())

	systemRAMMB := governor.DetectSystemRAMMB()
	memCapMB := resourcepolicy.MemoryCapMB(opts.MemoryLimitMB, workers, alloc, systemRAMMB)

	gov := governor.New(int64(memCapMB) * 1024 * 1024)
	descs := descriptor.New(descriptor.DefaultMax)
	sink := diagsink.New()

	pc := gparser.ParseContext{
		Temperature:        opts.Temperature,
		UseFileTemperature: opts.UseFileTemperature,
		ConcentrationM:     opts.ConcentrationM,
		InputExtensions:    opts.InputExtensions,
		Governor:           gov,
		Descriptors:        descs,
		Cancelled:          opts.Cancelled,
	}

	items := make([]Item, len(files))
	var cursor atomic.Int64
	var completed atomic.Int64

	var wg conc.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Go(func() {
			for {
				i := int(cursor.Add(1)) - 1
				if i >= len(files) {
					return
				}
				if pc.Cancelled != nil && pc.Cancelled() {
					items[i] = Item{Path: files[i], Err: errCancelled(files[i])}
					reportProgress(opts, &completed, len(files))
					continue
				}

				path := files[i]
				rec, verdict, err := gparser.Parse(path, pc)
				if err != nil {
					sink.AddError(path + ": " + err.Error())
					items[i] = Item{Path: path, Err: err}
				} else {
					items[i] = Item{Path: path, Record: rec, Verdict: verdict}
				}
				reportProgress(opts, &completed, len(files))
			}
		})
	}
	wg.Wait()

	return Result{
		Allocation:      alloc,
		Workers:         workers,
		MemoryCapMB:     memCapMB,
		Items:           items,
		Diagnostics:     sink,
		PeakMemoryBytes: gov.Peak(),
		Duration:        time.Since(start),
	}, nil
}

func reportProgress(opts Options, completed *atomic.Int64, total int) {
	done := int(completed.Add(1))
	if opts.OnProgress != nil {
		opts.OnProgress(done, total)
	}
}

type cancelledError struct{ path string }

func (e cancelledError) Error() string { return "orchestrator: " + e.path + ": run cancelled" }

func errCancelled(path string) error { return cancelledError{path: path} }

// Records returns the successfully parsed records from a Result in
// discovery order: items is pre-sized and index-addressed, so each slot's
// position is independent of the order in which workers finished.
func Records(res Result) []record.Record {
	out := make([]record.Record, 0, len(res.Items))
	for _, it := range res.Items {
		if it.Err == nil {
			out = append(out, it.Record)
		}
	}
	return out
}

// Failed returns the subset of items that failed to parse.
func Failed(res Result) []Item {
	var out []Item
	for _, it := range res.Items {
		if it.Err != nil {
			out = append(out, it)
		}
	}
	return out
}
