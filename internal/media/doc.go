// Package media serves scaled preview images for library entries. The
// sources are the webp stills the ingest pipeline captured; previews
// are re-encoded as JPEG at the requested bounding size and cached on
// disk, keyed by source path and size.
//
// Decoding prefers libvips when it has been initialized and falls back
// to pure-Go decoders otherwise. The cache is safe for concurrent use.
package media
