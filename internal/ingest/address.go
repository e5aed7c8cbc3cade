package ingest

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"vidvault/internal/logging"
)

// idBytes is the digest prefix length used for the library identifier:
// 6 bytes, 12 hex characters, a 48-bit address space. Collisions land
// on the index's uniqueness constraint rather than being detected here.
const idBytes = 6

// storedAsset is an upload at its permanent location: addressed by id,
// not yet probed. It owns the library file until a later stage commits
// or deletes it.
type storedAsset struct {
	id           string
	absPath      string
	relPath      string
	originalName string
}

// assetID derives the library identifier from a content digest.
func assetID(digest []byte) string {
	return hex.EncodeToString(digest[:idBytes])
}

// address relocates the temp file to <library>/<id><ext>. The move is a
// link+unlink rather than a rename so an existing destination fails
// loudly instead of being overwritten; both legs require the temp dir
// and the library to share a filesystem volume, which the configuration
// guarantees by nesting one inside the other. The extension is copied
// verbatim from the client-supplied name and is purely cosmetic.
func (p *Pipeline) address(raw rawAsset) (storedAsset, error) {
	id := assetID(raw.digest)
	dest := filepath.Join(p.libraryDir, id+filepath.Ext(raw.originalName))

	if err := os.Link(raw.tempPath, dest); err != nil {
		removeFile(raw.tempPath)
		if errors.Is(err, fs.ErrExist) {
			return storedAsset{}, fmt.Errorf("%w: id %s", ErrDuplicateContent, id)
		}
		return storedAsset{}, fmt.Errorf("failed to place %s into library: %w", id, err)
	}
	removeFile(raw.tempPath)

	rel, err := filepath.Rel(p.libraryDir, dest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		// Cannot happen for a Join-built destination; treat as a broken
		// invariant, not a user error.
		removeFile(dest)
		return storedAsset{}, fmt.Errorf("library path %s escapes root %s", dest, p.libraryDir)
	}

	logging.Debug("Addressed upload %q as %s", raw.originalName, rel)
	return storedAsset{
		id:           id,
		absPath:      dest,
		relPath:      rel,
		originalName: raw.originalName,
	}, nil
}
