package util

import "runtime"

// GetOptimalPoolSize returns the optimal pool size for CPU-bound tasks.
//
// Formula: min(max(runtime.NumCPU() * 2, 4), 32)
//
// 2x the core count keeps parsers busy while CGO calls block, the floor of 4
// preserves some parallelism on small machines, and the cap of 32 bounds
// memory on large ones.
//
// This size is shared by the parser pools and the analysis worker pool; the
// two must match or workers block waiting for parsers.
func GetOptimalPoolSize() int {
	poolSize := runtime.NumCPU() * 2

	if poolSize < 4 {
		poolSize = 4
	}
	if poolSize > 32 {
		poolSize = 32
	}

	return poolSize
}

// GetOptimalPoolSizeWithOverride returns pool size with optional override.
//
// If override > 0, uses override value (for testing/tuning).
// Otherwise, uses GetOptimalPoolSize().
func GetOptimalPoolSizeWithOverride(override int) int {
	if override > 0 {
		return override
	}
	return GetOptimalPoolSize()
}
