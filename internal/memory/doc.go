// Package memory configures Go's runtime memory limit for container
// environments.
//
// Unlike GOMAXPROCS, which Go detects from cgroup CPU limits, GOMEMLIMIT
// must be set explicitly or the process risks an OOM kill when the heap
// grows toward the container limit. Call [ConfigureFromEnv] early in
// main, before significant allocations.
//
// Environment variables:
//
//   - GOMEMLIMIT: standard Go variable; takes precedence when set.
//   - MEMORY_LIMIT: container memory limit in bytes, typically injected
//     via the Kubernetes Downward API (resourceFieldRef: limits.memory).
//   - MEMORY_RATIO: fraction of MEMORY_LIMIT given to the Go heap,
//     default 0.80. The remainder is headroom for libvips, ffmpeg and
//     ffprobe subprocesses, CGO allocations and goroutine stacks.
package memory
