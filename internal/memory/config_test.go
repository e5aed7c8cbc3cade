package memory

import (
	"runtime/debug"
	"testing"
)

func TestConfigureFromEnvUnset(t *testing.T) {
	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "")
	if got := ConfigureFromEnv(); got != 0 {
		t.Errorf("ConfigureFromEnv() = %d, want 0 without limits", got)
	}
}

func TestConfigureFromEnvContainerLimit(t *testing.T) {
	prev := debug.SetMemoryLimit(-1)
	defer debug.SetMemoryLimit(prev)

	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "1073741824") // 1 GiB
	t.Setenv("MEMORY_RATIO", "0.5")

	got := ConfigureFromEnv()
	if got != 536870912 {
		t.Errorf("ConfigureFromEnv() = %d, want 536870912", got)
	}
	if applied := debug.SetMemoryLimit(-1); applied != 536870912 {
		t.Errorf("runtime limit = %d, want 536870912", applied)
	}
}

func TestConfigureFromEnvBadValues(t *testing.T) {
	prev := debug.SetMemoryLimit(-1)
	defer debug.SetMemoryLimit(prev)

	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "lots")
	if got := ConfigureFromEnv(); got != 0 {
		t.Errorf("ConfigureFromEnv() = %d, want 0 for garbage MEMORY_LIMIT", got)
	}
}

func TestFormatBytes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{536870912, "512.0 MiB"},
		{1610612736, "1.5 GiB"},
	}
	for _, tc := range tests {
		if got := formatBytes(tc.in); got != tc.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
