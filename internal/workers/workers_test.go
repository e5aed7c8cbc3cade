package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	t.Setenv("SWEEP_WORKERS", "")
	available := runtime.GOMAXPROCS(0)

	if got := Count(1.0, 0); got != available {
		t.Errorf("Count(1.0, 0) = %d, want %d", got, available)
	}
	if got := Count(2.0, 0); got != available*2 {
		t.Errorf("Count(2.0, 0) = %d, want %d", got, available*2)
	}
	if got := Count(0.1, 0); got < 1 {
		t.Errorf("Count(0.1, 0) = %d, want at least 1", got)
	}
	if got := Count(2.0, 1); got != 1 {
		t.Errorf("Count(2.0, 1) = %d, want capped at 1", got)
	}
}

func TestCountOverride(t *testing.T) {
	t.Setenv("SWEEP_WORKERS", "3")
	if got := Count(1.0, 0); got != 3 {
		t.Errorf("override: Count = %d, want 3", got)
	}
	if got := Count(1.0, 2); got != 2 {
		t.Errorf("override beyond cap: Count = %d, want 2", got)
	}

	t.Setenv("SWEEP_WORKERS", "bogus")
	if got := Count(1.0, 0); got != runtime.GOMAXPROCS(0) {
		t.Errorf("garbage override: Count = %d, want calculated value", got)
	}
}

func TestHelpers(t *testing.T) {
	t.Setenv("SWEEP_WORKERS", "")
	available := runtime.GOMAXPROCS(0)

	if got := ForCPU(0); got != available {
		t.Errorf("ForCPU(0) = %d, want %d", got, available)
	}
	if got := ForIO(0); got != available*2 {
		t.Errorf("ForIO(0) = %d, want %d", got, available*2)
	}
}
