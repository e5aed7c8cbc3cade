package media

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"

	"vidvault/internal/logging"
	"vidvault/internal/metrics"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	// previewQuality is the JPEG quality of re-encoded previews.
	previewQuality = 85

	// MaxPreviewEdge caps client-requested preview sizes.
	MaxPreviewEdge = 1024

	// DefaultPreviewEdge is used when the client does not ask for a
	// specific size.
	DefaultPreviewEdge = 320
)

// PreviewCache produces and caches scaled JPEG previews of stored
// thumbnail images.
type PreviewCache struct {
	cacheDir string
	mu       sync.Mutex
}

// NewPreviewCache creates the cache directory if needed.
func NewPreviewCache(cacheDir string) *PreviewCache {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		logging.Warn("Failed to create preview cache dir %s: %v", cacheDir, err)
	}
	return &PreviewCache{cacheDir: cacheDir}
}

// Preview returns a JPEG of sourcePath scaled to fit within edge by
// edge pixels, serving from the cache when possible.
func (c *PreviewCache) Preview(sourcePath string, edge int) ([]byte, error) {
	if edge <= 0 || edge > MaxPreviewEdge {
		edge = DefaultPreviewEdge
	}

	if _, err := os.Stat(sourcePath); err != nil {
		metrics.PreviewCacheRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("preview source not accessible: %w", err)
	}

	cachePath := c.cachePath(sourcePath, edge)
	if data, err := os.ReadFile(cachePath); err == nil {
		metrics.PreviewCacheRequests.WithLabelValues("hit").Inc()
		logging.Debug("Preview cache hit: %s @%d", sourcePath, edge)
		return data, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another request may have rendered it while we waited.
	if data, err := os.ReadFile(cachePath); err == nil {
		metrics.PreviewCacheRequests.WithLabelValues("hit").Inc()
		return data, nil
	}

	data, err := renderPreview(sourcePath, edge)
	if err != nil {
		metrics.PreviewCacheRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.PreviewCacheRequests.WithLabelValues("miss").Inc()

	if err := os.WriteFile(cachePath, data, 0o644); err != nil {
		logging.Warn("Failed to cache preview %s: %v", cachePath, err)
	}
	return data, nil
}

func (c *PreviewCache) cachePath(sourcePath string, edge int) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s|%d", sourcePath, edge)))
	return filepath.Join(c.cacheDir, fmt.Sprintf("%x-%d.jpg", sum, edge))
}

// renderPreview decodes, scales and JPEG-encodes the source. The vips
// path shrinks at decode time; the fallback decodes fully and resizes
// with the pure-Go pipeline.
func renderPreview(sourcePath string, edge int) ([]byte, error) {
	var img image.Image
	var err error

	if vipsAvailable() {
		img, err = loadWithVips(sourcePath, edge)
		if err != nil {
			logging.Debug("vips decode failed for %s, falling back: %v", sourcePath, err)
		}
	}
	if img == nil {
		img, err = decodeFallback(sourcePath)
		if err != nil {
			return nil, fmt.Errorf("preview decode failed for %s: %w", sourcePath, err)
		}
	}

	scaled := imaging.Fit(img, edge, edge, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: previewQuality}); err != nil {
		return nil, fmt.Errorf("preview encode failed: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeFallback tries the imaging loader first (it handles EXIF
// orientation), then the registered stdlib decoders, which cover the
// webp sources the imaging loader does not.
func decodeFallback(sourcePath string) (image.Image, error) {
	img, err := imaging.Open(sourcePath, imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}

	f, err := os.Open(sourcePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	logging.Debug("Decoded %s preview source as %s", sourcePath, format)
	return img, nil
}
