package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// writeTestImage writes a PNG of the given size and returns its path.
func writeTestImage(t *testing.T, dir string, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	path := filepath.Join(dir, "source.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create test image: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close test image: %v", err)
	}
	return path
}

func decodePreview(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("preview is not a valid JPEG: %v", err)
	}
	return img
}

func TestPreviewScalesWithinBounds(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cache := NewPreviewCache(filepath.Join(dir, "cache"))
	source := writeTestImage(t, dir, 800, 400)

	data, err := cache.Preview(source, 200)
	if err != nil {
		t.Fatalf("Preview() error: %v", err)
	}

	img := decodePreview(t, data)
	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w != 200 || h != 100 {
		t.Errorf("preview size = %dx%d, want 200x100", w, h)
	}
}

func TestPreviewNeverUpscales(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cache := NewPreviewCache(filepath.Join(dir, "cache"))
	source := writeTestImage(t, dir, 64, 48)

	data, err := cache.Preview(source, 320)
	if err != nil {
		t.Fatalf("Preview() error: %v", err)
	}
	img := decodePreview(t, data)
	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w != 64 || h != 48 {
		t.Errorf("preview size = %dx%d, want original 64x48", w, h)
	}
}

func TestPreviewCacheReuse(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	cache := NewPreviewCache(cacheDir)
	source := writeTestImage(t, dir, 300, 300)

	first, err := cache.Preview(source, 100)
	if err != nil {
		t.Fatalf("first Preview() error: %v", err)
	}
	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("cache has %d entries, want 1", len(entries))
	}

	second, err := cache.Preview(source, 100)
	if err != nil {
		t.Fatalf("second Preview() error: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("cached preview differs from first render")
	}
}

func TestPreviewDistinctSizesDistinctEntries(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	cache := NewPreviewCache(cacheDir)
	source := writeTestImage(t, dir, 300, 300)

	if _, err := cache.Preview(source, 100); err != nil {
		t.Fatalf("Preview(100) error: %v", err)
	}
	if _, err := cache.Preview(source, 200); err != nil {
		t.Fatalf("Preview(200) error: %v", err)
	}

	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("cache has %d entries, want 2", len(entries))
	}
}

func TestPreviewSizeClamped(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cache := NewPreviewCache(filepath.Join(dir, "cache"))
	source := writeTestImage(t, dir, 2048, 2048)

	for _, edge := range []int{0, -5, MaxPreviewEdge + 1} {
		data, err := cache.Preview(source, edge)
		if err != nil {
			t.Fatalf("Preview(%d) error: %v", edge, err)
		}
		img := decodePreview(t, data)
		if w := img.Bounds().Dx(); w != DefaultPreviewEdge {
			t.Errorf("Preview(%d) width = %d, want %d", edge, w, DefaultPreviewEdge)
		}
	}
}

func TestPreviewMissingSource(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cache := NewPreviewCache(filepath.Join(dir, "cache"))

	if _, err := cache.Preview(filepath.Join(dir, "nope.webp"), 100); err == nil {
		t.Fatal("expected error for missing source")
	}
}
