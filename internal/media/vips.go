package media

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"vidvault/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

var (
	vipsMu          sync.Mutex
	vipsInitialized bool
)

// InitVips starts libvips with conservative memory settings. Call once
// at startup; preview scaling works without it, just slower.
func InitVips() {
	vipsMu.Lock()
	defer vipsMu.Unlock()

	if vipsInitialized {
		return
	}

	// Route vips diagnostics through our logger, filtered to roughly
	// the application's own level.
	threshold := vips.LogLevelWarning
	if logging.IsDebugEnabled() {
		threshold = vips.LogLevelInfo
	}
	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch {
		case level <= vips.LogLevelError:
			logging.Error("[vips/%s] %s", domain, msg)
		case level == vips.LogLevelWarning:
			logging.Warn("[vips/%s] %s", domain, msg)
		default:
			logging.Debug("[vips/%s] %s", domain, msg)
		}
	}, threshold)

	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsMu.Lock()
	defer vipsMu.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		logging.Info("libvips shutdown complete")
	}
}

func vipsAvailable() bool {
	vipsMu.Lock()
	defer vipsMu.Unlock()
	return vipsInitialized
}

// loadWithVips decodes path shrunk to fit within edge pixels. Shrinking
// happens at decode time, so large sources never inflate to full size
// in memory.
func loadWithVips(path string, edge int) (image.Image, error) {
	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load %s: %w", filepath.Base(path), err)
	}
	defer ref.Close()

	if err := ref.Thumbnail(edge, edge, vips.InterestingNone); err != nil {
		return nil, fmt.Errorf("vips resize failed: %w", err)
	}

	data, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        95,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}
	return img, nil
}
