package handlers

import (
	"context"
	"io"
	"time"

	"vidvault/internal/database"
	"vidvault/internal/media"
)

// Ingestor admits an upload stream into the library.
type Ingestor interface {
	Run(ctx context.Context, stream io.Reader, filename string) (*database.Video, error)
}

type Handlers struct {
	db         *database.Database
	pipeline   Ingestor
	previews   *media.PreviewCache
	libraryDir string
	startTime  time.Time
}

func New(db *database.Database, pipeline Ingestor, previews *media.PreviewCache, libraryDir string) *Handlers {
	return &Handlers{
		db:         db,
		pipeline:   pipeline,
		previews:   previews,
		libraryDir: libraryDir,
		startTime:  time.Now(),
	}
}
