package probe

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"vidvault/internal/database"
	"vidvault/internal/logging"
)

// Runner executes an external command and returns its standard output.
// A non-zero exit status must be reported as an error.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec, bounded by Timeout. A zero
// Timeout means no bound.
type ExecRunner struct {
	Timeout time.Duration
}

// Output implements Runner.
func (r ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w - %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Metadata holds the probe-derived descriptive fields of a media file.
// Container and Duration are always set; the remaining fields are empty
// when the file carries no such tag.
type Metadata struct {
	Container   database.ContainerKind
	Duration    time.Duration
	Title       string
	Description string
	Artist      string
}

// formatNames maps the probe tool's format_name values onto the closed
// container enumeration. Client-supplied file extensions play no part
// here.
var formatNames = map[string]database.ContainerKind{
	"mov,mp4,m4a,3gp,3g2,mj2": database.ContainerMP4,
	"matroska,webm":           database.ContainerWebM,
	"avi":                     database.ContainerAVI,
	"ogg":                     database.ContainerOgg,
}

// Prober extracts media metadata via ffprobe.
type Prober struct {
	runner Runner
}

// New creates a Prober backed by the given runner.
func New(runner Runner) *Prober {
	return &Prober{runner: runner}
}

// Probe runs ffprobe against the file at path and extracts its metadata.
// An unrecognized container format or a missing/unparsable duration is a
// hard failure; absent descriptive tags are not.
func (p *Prober) Probe(ctx context.Context, path string) (*Metadata, error) {
	out, err := p.runner.Output(ctx, "ffprobe", "-v", "error", "-show_format", path)
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", path, err)
	}

	sections, err := ParseSections(string(out))
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", path, err)
	}

	format := findSection(sections, "FORMAT")
	if format == nil {
		return nil, fmt.Errorf("probing %s: no FORMAT section in probe output", path)
	}

	meta := &Metadata{}

	name, ok := format.Fields["format_name"]
	if !ok {
		return nil, fmt.Errorf("probing %s: probe output carries no format_name", path)
	}
	meta.Container, ok = formatNames[name]
	if !ok {
		return nil, fmt.Errorf("probing %s: unsupported container format %q", path, name)
	}

	rawDuration, ok := format.Fields["duration"]
	if !ok {
		return nil, fmt.Errorf("probing %s: probe output carries no duration", path)
	}
	seconds, err := strconv.ParseFloat(rawDuration, 64)
	if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return nil, fmt.Errorf("probing %s: invalid duration %q", path, rawDuration)
	}
	meta.Duration = time.Duration(seconds * float64(time.Second))

	meta.Title = tagValue(format.Fields, "title")
	meta.Description = tagValue(format.Fields, "comment")
	meta.Artist = tagValue(format.Fields, "artist", "author")

	logging.Debug("Probed %s: container=%s duration=%v title=%q",
		path, meta.Container, meta.Duration, meta.Title)
	return meta, nil
}

func findSection(sections []Section, name string) *Section {
	for i := range sections {
		if sections[i].Name == name {
			return &sections[i]
		}
	}
	return nil
}

// tagValue looks up a descriptive tag under the given names, in order,
// accepting the probe tool's "TAG:" prefix and any key casing.
func tagValue(fields map[string]string, names ...string) string {
	for _, name := range names {
		for key, value := range fields {
			key = strings.ToLower(strings.TrimPrefix(key, "TAG:"))
			if key == name {
				return value
			}
		}
	}
	return ""
}
