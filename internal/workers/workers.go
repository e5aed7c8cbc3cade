package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Count returns a worker count scaled by multiplier from the available
// CPUs, capped at limit (0 means no cap). The SWEEP_WORKERS environment
// variable, when set to a positive integer, overrides the calculation
// but still honors the cap.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv("SWEEP_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			return capped(count, limit)
		}
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if workers < 1 {
		workers = 1
	}
	return capped(workers, limit)
}

// ForCPU sizes a pool for CPU-bound work: one worker per CPU.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO sizes a pool for I/O-bound work: two workers per CPU.
func ForIO(limit int) int {
	return Count(2.0, limit)
}

func capped(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}
