package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"vidvault/internal/database"
	"vidvault/internal/logging"
	"vidvault/internal/metrics"
	"vidvault/internal/probe"
)

var (
	// ErrMissingFilename rejects uploads without a client-supplied
	// filename. This is a user-correctable input error.
	ErrMissingFilename = errors.New("upload is missing a filename")

	// ErrDuplicateContent is returned when byte-identical content is
	// already in the library. Only one of two racing identical uploads
	// can win; the other observes this error at the address or commit
	// step.
	ErrDuplicateContent = errors.New("identical content already in library")

	// ErrInvalidMedia is returned when the uploaded bytes cannot be
	// analyzed as a supported media file. Like a missing filename this
	// is a user-correctable input error.
	ErrInvalidMedia = errors.New("upload is not a supported media file")
)

// RecordStore is the durable index the pipeline commits into.
type RecordStore interface {
	AddVideo(ctx context.Context, v *database.Video) error
}

// Prober extracts media metadata from a file at an absolute path.
type Prober interface {
	Probe(ctx context.Context, path string) (*probe.Metadata, error)
}

// Thumbnailer produces a best-effort preview image for a media file.
type Thumbnailer interface {
	Generate(ctx context.Context, mediaPath string, duration time.Duration) (string, bool)
}

// Pipeline ingests uploads into the library. It is safe for concurrent
// use; concurrent runs share no state beyond the index and the library
// directory namespace, where the no-overwrite link and the insert
// uniqueness constraint arbitrate races.
type Pipeline struct {
	store      RecordStore
	prober     Prober
	thumbs     Thumbnailer
	libraryDir string
	tempDir    string
}

// Config carries the pipeline's collaborators and directories. TempDir
// must live on the same filesystem volume as LibraryDir.
type Config struct {
	Store       RecordStore
	Prober      Prober
	Thumbnailer Thumbnailer
	LibraryDir  string
	TempDir     string
}

// New creates a Pipeline and ensures its temp directory exists.
func New(cfg Config) (*Pipeline, error) {
	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload temp directory: %w", err)
	}
	return &Pipeline{
		store:      cfg.Store,
		prober:     cfg.Prober,
		thumbs:     cfg.Thumbnailer,
		libraryDir: cfg.LibraryDir,
		tempDir:    cfg.TempDir,
	}, nil
}

// probedAsset carries the populated record alongside the library file
// it describes, preview still pending.
type probedAsset struct {
	record  *database.Video
	absPath string
}

// finishedAsset is ready to commit: record complete, preview either
// present on disk or skipped.
type finishedAsset struct {
	record       *database.Video
	absPath      string
	thumbAbsPath string
}

// Run ingests one upload and returns the committed record. The stream
// is drained exactly once; on failure every artifact created so far has
// already been removed by the stage that owned it. Duplicate content is
// reported via ErrDuplicateContent (possibly wrapping the index's
// uniqueness violation).
func (p *Pipeline) Run(ctx context.Context, stream io.Reader, filename string) (*database.Video, error) {
	if filename == "" {
		metrics.IngestUploadsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrMissingFilename
	}

	stageStart := time.Now()
	raw, err := p.receive(stream, filename)
	if err != nil {
		return nil, p.fail("receive", err)
	}
	observeStage("receive", stageStart)

	stageStart = time.Now()
	stored, err := p.address(raw)
	if err != nil {
		return nil, p.fail("address", err)
	}
	observeStage("address", stageStart)

	stageStart = time.Now()
	probed, err := p.extract(ctx, stored)
	if err != nil {
		return nil, p.fail("probe", err)
	}
	observeStage("probe", stageStart)

	stageStart = time.Now()
	finished := p.preview(ctx, probed)
	observeStage("thumbnail", stageStart)

	stageStart = time.Now()
	if err := p.commit(ctx, finished); err != nil {
		return nil, p.fail("commit", err)
	}
	observeStage("commit", stageStart)

	metrics.IngestUploadsTotal.WithLabelValues("committed").Inc()
	logging.Info("Ingested %q as %s (%s, %v)",
		filename, finished.record.ID, finished.record.Container, finished.record.Duration)
	return finished.record, nil
}

// extract probes the stored file and builds the library record. A probe
// failure deletes the library file: this is the last point before the
// record could become visible, so removing the file fully reverts the
// upload.
func (p *Pipeline) extract(ctx context.Context, stored storedAsset) (probedAsset, error) {
	meta, err := p.prober.Probe(ctx, stored.absPath)
	if err != nil {
		removeFile(stored.absPath)
		return probedAsset{}, fmt.Errorf("%w: %v", ErrInvalidMedia, err)
	}

	return probedAsset{
		record: &database.Video{
			ID:               stored.id,
			Path:             stored.relPath,
			Title:            meta.Title,
			Description:      meta.Description,
			Artist:           meta.Artist,
			UploadTime:       time.Now().UTC(),
			Container:        meta.Container,
			OriginalFilename: stored.originalName,
			Duration:         meta.Duration,
		},
		absPath: stored.absPath,
	}, nil
}

// preview attaches a thumbnail when the generator manages to produce
// one. This stage cannot fail: a record without a preview is still a
// complete record.
func (p *Pipeline) preview(ctx context.Context, probed probedAsset) finishedAsset {
	finished := finishedAsset{record: probed.record, absPath: probed.absPath}

	thumbAbs, ok := p.thumbs.Generate(ctx, probed.absPath, probed.record.Duration)
	if !ok {
		return finished
	}

	rel, err := filepath.Rel(p.libraryDir, thumbAbs)
	if err != nil {
		logging.Warn("Discarding thumbnail outside library root: %s", thumbAbs)
		removeFile(thumbAbs)
		return finished
	}

	finished.record.ThumbnailPath = rel
	finished.thumbAbsPath = thumbAbs
	return finished
}

// commit inserts the record. On failure the media file (and preview, if
// any) is deleted so the filesystem and the index stay consistent: no
// file may exist without a matching record.
func (p *Pipeline) commit(ctx context.Context, finished finishedAsset) error {
	if err := p.store.AddVideo(ctx, finished.record); err != nil {
		removeFile(finished.absPath)
		if finished.thumbAbsPath != "" {
			removeFile(finished.thumbAbsPath)
		}
		if errors.Is(err, database.ErrVideoExists) {
			return fmt.Errorf("%w: %v", ErrDuplicateContent, err)
		}
		return err
	}
	return nil
}

// fail classifies a stage failure for metrics and hands the error back.
func (p *Pipeline) fail(stage string, err error) error {
	status := "failed"
	switch {
	case errors.Is(err, ErrDuplicateContent):
		status = "duplicate"
	case errors.Is(err, ErrInvalidMedia):
		status = "rejected"
	}
	metrics.IngestUploadsTotal.WithLabelValues(status).Inc()
	logging.Error("Upload pipeline failed at %s stage: %v", stage, err)
	return err
}

func observeStage(stage string, start time.Time) {
	metrics.IngestStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
