package ingest

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"vidvault/internal/logging"
	"vidvault/internal/metrics"
)

// tempCreateAttempts caps the exclusive-create retry loop. Name
// collisions need 64 random bits to collide, so hitting the cap means
// something is wrong with the temp directory, not bad luck.
const tempCreateAttempts = 100

// rawAsset is a fully received upload: a temp file on the library
// volume plus the digest of its content. It owns the temp file until
// the address stage relocates or deletes it.
type rawAsset struct {
	tempPath     string
	digest       []byte
	originalName string
	size         int64
}

// receive streams the upload into a freshly created temp file while
// computing its SHA-256 digest incrementally, so the payload is never
// held in memory. On any read or write error the temp file is removed
// before the error is surfaced.
func (p *Pipeline) receive(stream io.Reader, filename string) (rawAsset, error) {
	f, err := createExclusive(p.tempDir)
	if err != nil {
		return rawAsset{}, err
	}
	tempPath := f.Name()

	hasher := sha256.New()
	n, err := io.Copy(io.MultiWriter(hasher, f), stream)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		removeFile(tempPath)
		return rawAsset{}, fmt.Errorf("failed to receive upload %q: %w", filename, err)
	}

	metrics.IngestBytesReceived.Add(float64(n))
	logging.Debug("Received %d bytes of %q into %s", n, filename, tempPath)

	return rawAsset{
		tempPath:     tempPath,
		digest:       hasher.Sum(nil),
		originalName: filename,
		size:         n,
	}, nil
}

// createExclusive opens a new temp file in dir, probing random names
// until one does not exist yet.
func createExclusive(dir string) (*os.File, error) {
	for i := 0; i < tempCreateAttempts; i++ {
		suffix := make([]byte, 8)
		if _, err := rand.Read(suffix); err != nil {
			return nil, fmt.Errorf("failed to generate temp name: %w", err)
		}

		name := filepath.Join(dir, "upload-"+hex.EncodeToString(suffix)+".part")
		f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("failed to create temp file in %s: %w", dir, err)
		}
	}
	return nil, fmt.Errorf("could not allocate a temp file in %s after %d attempts", dir, tempCreateAttempts)
}

// removeFile is a best-effort cleanup delete.
func removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Warn("Cleanup failed to remove %s: %v", path, err)
	}
}
