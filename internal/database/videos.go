package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

// AddVideo inserts a library record as a single atomic operation keyed by
// id. The record's view count always starts at zero regardless of the
// Views field. Inserting an id (or path) that already exists returns
// ErrVideoExists and leaves the index untouched.
func (d *Database) AddVideo(ctx context.Context, v *Video) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("add_video", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var thumbnail sql.NullString
	if v.ThumbnailPath != "" {
		thumbnail = sql.NullString{String: v.ThumbnailPath, Valid: true}
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO videos (id, path, title, description, artist, views,
			upload_time, container_kind, original_filename, duration, thumbnail_path)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?)
	`,
		v.ID,
		v.Path,
		v.Title,
		v.Description,
		v.Artist,
		v.UploadTime.UTC().Unix(),
		string(v.Container),
		v.OriginalFilename,
		v.Duration.Seconds(),
		thumbnail,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			err = fmt.Errorf("%w: %s", ErrVideoExists, v.ID)
			return err
		}
		err = fmt.Errorf("failed to add video %s: %w", v.ID, err)
		return err
	}

	return nil
}

// GetVideo retrieves a single record by id. Returns ErrVideoNotFound if
// the id is absent.
func (d *Database) GetVideo(ctx context.Context, id string) (*Video, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_video", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx, `
		SELECT id, path, title, description, artist, views, upload_time,
			container_kind, original_filename, duration, thumbnail_path
		FROM videos WHERE id = ?
	`, id)

	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("%w: %s", ErrVideoNotFound, id)
		return nil, err
	}
	if err != nil {
		err = fmt.Errorf("failed to look up video %s: %w", id, err)
		return nil, err
	}
	return v, nil
}

// ListVideos retrieves up to limit records starting at offset, sorted
// from newest to oldest upload time.
func (d *Database) ListVideos(ctx context.Context, offset, limit int) ([]Video, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_videos", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, path, title, description, artist, views, upload_time,
			container_kind, original_filename, duration, thumbnail_path
		FROM videos ORDER BY upload_time DESC, id LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		err = fmt.Errorf("failed to list videos: %w", err)
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	videos := make([]Video, 0, limit)
	for rows.Next() {
		v, scanErr := scanVideo(rows)
		if scanErr != nil {
			err = fmt.Errorf("failed to scan video row: %w", scanErr)
			return nil, err
		}
		videos = append(videos, *v)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return videos, nil
}

// IncrementViews adds one to a record's view count. Returns
// ErrVideoNotFound if the id is absent.
func (d *Database) IncrementViews(ctx context.Context, id string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("increment_views", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx,
		"UPDATE videos SET views = views + 1 WHERE id = ?", id)
	if err != nil {
		err = fmt.Errorf("failed to increment views for %s: %w", id, err)
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected != 1 {
		err = fmt.Errorf("%w: %s", ErrVideoNotFound, id)
		return err
	}
	return nil
}

// CountVideos returns the number of records in the library.
func (d *Database) CountVideos(ctx context.Context) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("count_videos", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int64
	if err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM videos").Scan(&count); err != nil {
		err = fmt.Errorf("failed to count videos: %w", err)
		return 0, err
	}
	return count, nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanVideo(s scanner) (*Video, error) {
	var (
		v           Video
		uploadTime  int64
		container   string
		durationSec float64
		thumbnail   sql.NullString
	)

	err := s.Scan(
		&v.ID, &v.Path, &v.Title, &v.Description, &v.Artist, &v.Views,
		&uploadTime, &container, &v.OriginalFilename, &durationSec, &thumbnail,
	)
	if err != nil {
		return nil, err
	}

	v.UploadTime = time.Unix(uploadTime, 0).UTC()
	v.Container = ContainerKind(container)
	v.Duration = time.Duration(durationSec * float64(time.Second))
	if thumbnail.Valid {
		v.ThumbnailPath = thumbnail.String
	}
	return &v, nil
}
