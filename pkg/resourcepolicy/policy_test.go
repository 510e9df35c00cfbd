package resourcepolicy

import (
	"testing"

	"github.com/qcbatch/gaussextract/pkg/record"
)

func TestWorkerCountScenarioS5(t *testing.T) {
	alloc := record.JobAllocation{Kind: record.SchedulerSLURM, HasCPUs: true, CPUs: 4, HasMemoryMB: true, MemoryMB: 2048}
	got := WorkerCount(16, 100, alloc, 32)
	if got != 4 {
		t.Fatalf("worker count = %d, want 4", got)
	}
}

func TestMemoryCapScenarioS5(t *testing.T) {
	alloc := record.JobAllocation{Kind: record.SchedulerSLURM, HasMemoryMB: true, MemoryMB: 2048}
	got := MemoryCapMB(8000, 4, alloc, 16000)
	if got != 1945 {
		t.Fatalf("memory cap = %d, want 1945", got)
	}
}

func TestWorkerCountCapsToFileCount(t *testing.T) {
	got := WorkerCount(16, 3, record.JobAllocation{}, 32)
	if got != 3 {
		t.Fatalf("worker count = %d, want 3", got)
	}
}

func TestWorkerCountFloorsToOne(t *testing.T) {
	got := WorkerCount(0, 10, record.JobAllocation{}, 32)
	if got != 1 {
		t.Fatalf("worker count = %d, want 1 (floored)", got)
	}
}

func TestWorkerCountHardwareCapWithoutScheduler(t *testing.T) {
	got := WorkerCount(64, 1000, record.JobAllocation{}, 64)
	if got != 32 {
		t.Fatalf("worker count = %d, want 32 (min(64/2,32))", got)
	}
}

func TestMemoryCapClampsToBounds(t *testing.T) {
	if got := MemoryCapMB(500, 2, record.JobAllocation{}, 8000); got != minCapMB {
		t.Fatalf("memory cap = %d, want floor %d", got, minCapMB)
	}
	if got := MemoryCapMB(999999, 2, record.JobAllocation{}, 8000); got != maxCapMB {
		t.Fatalf("memory cap = %d, want ceiling %d", got, maxCapMB)
	}
}
