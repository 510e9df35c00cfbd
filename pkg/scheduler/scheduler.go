// Package scheduler probes the process environment to identify the HPC
// batch scheduler (if any) managing the current job, grounded on the
// source project's JobSchedulerDetector.
package scheduler

import (
	"os"
	"strconv"
	"strings"

	"github.com/qcbatch/gaussextract/pkg/record"
)

// Detect is a pure function of the process environment: it identifies the
// active scheduler and normalizes its CPU/memory/queue/account fields into
// a JobAllocation. Detect never fails; absent variables simply leave the
// corresponding fields unset.
func Detect() record.JobAllocation {
	return DetectEnv(osEnv{})
}

// Env abstracts environment-variable lookup so the probe can be tested
// without mutating the real process environment.
type Env interface {
	Getenv(key string) string
}

type osEnv struct{}

func (osEnv) Getenv(key string) string { return os.Getenv(key) }

// DetectEnv runs detection against an arbitrary Env, primarily for tests.
func DetectEnv(env Env) record.JobAllocation {
	kind := detectKind(env)
	switch kind {
	case record.SchedulerSLURM:
		return detectSLURM(env)
	case record.SchedulerPBS:
		return detectPBS(env)
	case record.SchedulerSGE:
		return detectSGE(env)
	case record.SchedulerLSF:
		return detectLSF(env)
	default:
		return record.JobAllocation{Kind: kind}
	}
}

func detectKind(env Env) record.SchedulerKind {
	if env.Getenv("SLURM_JOB_ID") != "" {
		return record.SchedulerSLURM
	}
	if env.Getenv("PBS_JOBID") != "" || env.Getenv("PBS_JOB_ID") != "" {
		return record.SchedulerPBS
	}
	if env.Getenv("JOB_ID") != "" || env.Getenv("SGE_JOB_ID") != "" {
		return record.SchedulerSGE
	}
	if env.Getenv("LSB_JOBID") != "" || env.Getenv("LSF_JOB_ID") != "" {
		return record.SchedulerLSF
	}
	if env.Getenv("BATCH_JOB_ID") != "" || env.Getenv("QUEUE") != "" || env.Getenv("CLUSTER_NAME") != "" {
		return record.SchedulerUnknownCluster
	}
	return record.SchedulerNone
}

func getEnvLong(env Env, key string, fallback int64) int64 {
	v := env.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func firstNonEmpty(env Env, keys ...string) string {
	for _, k := range keys {
		if v := env.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func detectSLURM(env Env) record.JobAllocation {
	a := record.JobAllocation{Kind: record.SchedulerSLURM, JobID: env.Getenv("SLURM_JOB_ID")}

	cpusPerTask := getEnvLong(env, "SLURM_CPUS_PER_TASK", 0)
	ntasks := getEnvLong(env, "SLURM_NTASKS", 1)
	ntasksPerNode := getEnvLong(env, "SLURM_NTASKS_PER_NODE", 0)

	if cpusPerTask > 0 {
		a.CPUs = uint(cpusPerTask * ntasks)
		a.HasCPUs = true
	} else if cpusPerNode := env.Getenv("SLURM_JOB_CPUS_PER_NODE"); cpusPerNode != "" {
		a.CPUs = ParseCPUList(cpusPerNode)
		a.HasCPUs = true
	}

	memPerNode := env.Getenv("SLURM_MEM_PER_NODE")
	memPerCPU := env.Getenv("SLURM_MEM_PER_CPU")
	switch {
	case memPerNode != "":
		a.MemoryMB = ParseSLURMMemory(memPerNode)
		a.HasMemoryMB = true
	case memPerCPU != "":
		perCPU := ParseSLURMMemory(memPerCPU)
		if a.CPUs > 0 {
			a.MemoryMB = perCPU * uint64(a.CPUs)
		} else {
			a.MemoryMB = perCPU * uint64(ntasks)
		}
		a.HasMemoryMB = true
	}

	a.Nodes = uint(getEnvLong(env, "SLURM_JOB_NUM_NODES", 1))
	if ntasksPerNode > 0 {
		a.TasksPerNode = uint(ntasksPerNode)
	}
	a.Partition = env.Getenv("SLURM_JOB_PARTITION")
	a.Account = env.Getenv("SLURM_JOB_ACCOUNT")
	return a
}

func detectPBS(env Env) record.JobAllocation {
	a := record.JobAllocation{Kind: record.SchedulerPBS, JobID: firstNonEmpty(env, "PBS_JOBID", "PBS_JOB_ID")}

	ncpus := getEnvLong(env, "PBS_NUM_PPN", 0)
	if ncpus == 0 {
		ncpus = getEnvLong(env, "PBS_NCPUS", 0)
	}
	if ncpus == 0 {
		ncpus = getEnvLong(env, "NCPUS", 0)
	}
	if ncpus > 0 {
		a.CPUs = uint(ncpus)
		a.HasCPUs = true
	}

	if resourceList := env.Getenv("PBS_RESOURCE_LIST"); resourceList != "" {
		if n, ok := extractPattern(resourceList, "ncpus="); ok {
			if v, err := strconv.ParseUint(n, 10, 64); err == nil {
				a.CPUs = uint(v)
				a.HasCPUs = true
			}
		}
		if m, ok := extractPattern(resourceList, "mem="); ok {
			a.MemoryMB = ParsePBSMemory(m)
			a.HasMemoryMB = true
		}
	}

	mem := firstNonEmpty(env, "PBS_RESOURCE_MEM", "PBS_MEM")
	if mem != "" {
		a.MemoryMB = ParsePBSMemory(mem)
		a.HasMemoryMB = true
	}

	a.Nodes = uint(getEnvLong(env, "PBS_NUM_NODES", 1))
	a.Partition = env.Getenv("PBS_QUEUE")
	a.Account = env.Getenv("PBS_ACCOUNT")
	return a
}

func detectSGE(env Env) record.JobAllocation {
	a := record.JobAllocation{Kind: record.SchedulerSGE, JobID: firstNonEmpty(env, "JOB_ID", "SGE_JOB_ID")}

	nslots := getEnvLong(env, "NSLOTS", 0)
	if nslots == 0 {
		nslots = getEnvLong(env, "SGE_NSLOTS", 0)
	}
	if nslots > 0 {
		a.CPUs = uint(nslots)
		a.HasCPUs = true
	}

	mem := firstNonEmpty(env, "SGE_MEM", "MEMORY")
	if mem != "" {
		a.MemoryMB = ParseGeneralMemory(mem)
		a.HasMemoryMB = true
	}

	// QUEUE (if set) wins over PE as the reported partition, matching the
	// source's assignment order.
	if pe := env.Getenv("PE"); pe != "" {
		a.Partition = pe
	}
	if q := env.Getenv("QUEUE"); q != "" {
		a.Partition = q
	}
	a.Account = env.Getenv("SGE_ACCOUNT")
	return a
}

func detectLSF(env Env) record.JobAllocation {
	a := record.JobAllocation{Kind: record.SchedulerLSF, JobID: firstNonEmpty(env, "LSB_JOBID", "LSF_JOB_ID")}

	if maxProcs := getEnvLong(env, "LSB_MAX_NUM_PROCESSORS", 0); maxProcs > 0 {
		a.CPUs = uint(maxProcs)
		a.HasCPUs = true
	}
	if mem := env.Getenv("LSB_MEM"); mem != "" {
		a.MemoryMB = ParseGeneralMemory(mem)
		a.HasMemoryMB = true
	}
	a.Partition = env.Getenv("LSB_QUEUE")
	a.Account = env.Getenv("LSB_PROJECT_NAME")
	return a
}

// extractPattern finds "<prefix><digits...>" within s and returns the run
// of digits (and a following '.') after prefix.
func extractPattern(s, prefix string) (string, bool) {
	idx := strings.Index(s, prefix)
	if idx < 0 {
		return "", false
	}
	rest := s[idx+len(prefix):]
	end := 0
	sawDigit := false
	for end < len(rest) {
		c := rest[end]
		if c >= '0' && c <= '9' {
			sawDigit = true
			end++
			continue
		}
		if c == '.' && sawDigit {
			end++
			continue
		}
		if isMemoryUnitByte(c) {
			end++
			continue
		}
		break
	}
	if !sawDigit {
		return "", false
	}
	return rest[:end], true
}

func isMemoryUnitByte(c byte) bool {
	switch c {
	case 'k', 'K', 'm', 'M', 'g', 'G', 't', 'T', 'b', 'B':
		return true
	default:
		return false
	}
}
