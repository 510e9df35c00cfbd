// Package resourcepolicy derives a safe worker count and memory cap from
// requested settings, the detected scheduler allocation, and hardware
// concurrency, grounded on the source project's calculateSafeThreadCount /
// calculateSafeMemoryLimit.
package resourcepolicy

import (
	"github.com/qcbatch/gaussextract/pkg/governor"
	"github.com/qcbatch/gaussextract/pkg/record"
)

// WorkerCount applies the resource-policy rules in order: start from
// requested, apply a hardware-size cap when not running under a scheduler,
// apply the scheduler's explicit CPU limit if any, cap to the file count,
// and floor to 1.
func WorkerCount(requested, fileCount int, alloc record.JobAllocation, hardwareConcurrency int) int {
	if hardwareConcurrency <= 0 {
		hardwareConcurrency = 4
	}
	maxSafe := requested

	if !alloc.InJob() {
		maxSafe = min(maxSafe, reasonableLimit(hardwareConcurrency))
	}

	if alloc.HasCPUs && alloc.CPUs > 0 {
		maxSafe = min(maxSafe, int(alloc.CPUs))
	}

	if fileCount > 0 {
		maxSafe = min(maxSafe, fileCount)
	}

	if maxSafe < 1 {
		maxSafe = 1
	}
	return maxSafe
}

func reasonableLimit(cores int) int {
	switch {
	case cores >= 32:
		return min(cores/2, 32)
	case cores >= 16:
		return min(cores/2, 16)
	default:
		return min(cores, 8)
	}
}

const (
	minCapMB = 1024
	maxCapMB = 32768
)

// MemoryCapMB resolves the effective memory cap in MB. requestedMB of 0
// means "derive it" via the governor's static helper; an explicit
// scheduler memory limit, if present, then reduces the cap to 95% of the
// allocation to leave headroom. The result is always clamped to
// [1024, 32768] MB.
func MemoryCapMB(requestedMB uint64, workers int, alloc record.JobAllocation, systemRAMMB uint64) uint64 {
	capMB := requestedMB
	if capMB == 0 {
		capMB = governor.OptimalCapMB(systemRAMMB, workers, alloc.InJob())
	}

	if alloc.HasMemoryMB && alloc.MemoryMB > 0 {
		headroom := uint64(float64(alloc.MemoryMB) * 0.95)
		if headroom < capMB {
			capMB = headroom
		}
	}

	if capMB < minCapMB {
		capMB = minCapMB
	}
	if capMB > maxCapMB {
		capMB = maxCapMB
	}
	return capMB
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
