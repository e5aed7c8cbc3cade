package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"vidvault/internal/logging"
	"vidvault/internal/metrics"
)

// Extension is the file extension of generated previews. It replaces
// the media file's own extension, so a preview always sits next to its
// video under the same base name.
const Extension = ".webp"

// DefaultQuality is the WebP quality used when none is configured.
const DefaultQuality = 80

const (
	// maxEdge caps the longer edge of the preview.
	maxEdge = 512

	// Videos longer than offsetThreshold are captured at a fixed
	// offset; shorter ones at a third of their duration. The boundary
	// is exclusive: a video of exactly 30s uses the one-third rule.
	offsetThreshold = 30 * time.Second
	longVideoOffset = 10 * time.Second
)

// Runner executes an external command; only the exit status matters.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands with os/exec, bounded by Timeout. A zero
// Timeout means no bound.
type ExecRunner struct {
	Timeout time.Duration
}

// Run implements Runner.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w - %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Generator extracts preview frames via FFmpeg.
type Generator struct {
	runner  Runner
	quality int
}

// New creates a Generator. Quality values outside 1-100 fall back to
// DefaultQuality.
func New(runner Runner, quality int) *Generator {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	return &Generator{runner: runner, quality: quality}
}

// CaptureOffset returns the seek position for a video of the given
// duration.
func CaptureOffset(duration time.Duration) time.Duration {
	if duration > offsetThreshold {
		return longVideoOffset
	}
	return duration / 3
}

// OutputPath returns the preview path for a media file: the media path
// with its extension replaced by Extension.
func OutputPath(mediaPath string) string {
	return strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath)) + Extension
}

// Generate extracts one frame from the video at mediaPath, scales it so
// its longer edge is at most 512 pixels and writes it as WebP next to
// the video. It returns the preview path and true on success, or "" and
// false when generation failed. Failures are logged, partial output is
// removed, and the caller is expected to carry on without a preview.
func (g *Generator) Generate(ctx context.Context, mediaPath string, duration time.Duration) (string, bool) {
	outPath := OutputPath(mediaPath)
	offset := CaptureOffset(duration)

	err := g.runner.Run(ctx, "ffmpeg",
		"-y",
		"-ss", fmt.Sprintf("%.3f", offset.Seconds()),
		"-i", mediaPath,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", maxEdge, maxEdge),
		"-c:v", "libwebp",
		"-quality", strconv.Itoa(g.quality),
		outPath,
	)
	if err != nil {
		removeOutput(outPath)
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		logging.Warn("Thumbnail generation failed for %s: %v", mediaPath, err)
		return "", false
	}

	// A zero-byte file counts as failed output even on exit status 0.
	if info, statErr := os.Stat(outPath); statErr != nil || info.Size() == 0 {
		removeOutput(outPath)
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		logging.Warn("Thumbnail generation produced no output for %s", mediaPath)
		return "", false
	}

	metrics.ThumbnailGenerationsTotal.WithLabelValues("success").Inc()
	logging.Debug("Thumbnail written: %s (offset %v)", outPath, offset)
	return outPath, true
}

func removeOutput(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Warn("Failed to remove partial thumbnail %s: %v", path, err)
	}
}
