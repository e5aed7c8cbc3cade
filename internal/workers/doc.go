// Package workers sizes worker pools from the CPUs actually available
// to the process. GOMAXPROCS tracks container CPU limits (Go 1.19+),
// while runtime.NumCPU reports the host, so pools sized from the
// latter oversubscribe in containers.
//
// The SWEEP_WORKERS environment variable overrides the calculation.
package workers
