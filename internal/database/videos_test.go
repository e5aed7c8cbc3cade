package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()

	db, err := New(context.Background(), filepath.Join(t.TempDir(), "vidvault.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})
	return db
}

func testVideo(id string) *Video {
	return &Video{
		ID:               id,
		Path:             id + ".webm",
		Title:            "T",
		Description:      "C",
		Artist:           "A",
		UploadTime:       time.Now().UTC(),
		Container:        ContainerWebM,
		OriginalFilename: "clip.webm",
		Duration:         10 * time.Second,
	}
}

func TestAddAndGetVideo(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	want := testVideo("a1b2c3d4e5f6")
	want.ThumbnailPath = "a1b2c3d4e5f6.webp"
	if err := db.AddVideo(ctx, want); err != nil {
		t.Fatalf("AddVideo failed: %v", err)
	}

	got, err := db.GetVideo(ctx, want.ID)
	if err != nil {
		t.Fatalf("GetVideo failed: %v", err)
	}

	if got.ID != want.ID {
		t.Errorf("ID = %q, want %q", got.ID, want.ID)
	}
	if got.Path != want.Path {
		t.Errorf("Path = %q, want %q", got.Path, want.Path)
	}
	if got.Title != "T" || got.Description != "C" || got.Artist != "A" {
		t.Errorf("metadata = (%q, %q, %q), want (T, C, A)", got.Title, got.Description, got.Artist)
	}
	if got.Views != 0 {
		t.Errorf("Views = %d, want 0 on a fresh record", got.Views)
	}
	if got.Container != ContainerWebM {
		t.Errorf("Container = %q, want %q", got.Container, ContainerWebM)
	}
	if got.Duration != 10*time.Second {
		t.Errorf("Duration = %v, want 10s", got.Duration)
	}
	if got.ThumbnailPath != want.ThumbnailPath {
		t.Errorf("ThumbnailPath = %q, want %q", got.ThumbnailPath, want.ThumbnailPath)
	}
}

func TestAddVideoViewsAlwaysZero(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	v := testVideo("1111aaaa2222")
	v.Views = 99
	if err := db.AddVideo(ctx, v); err != nil {
		t.Fatalf("AddVideo failed: %v", err)
	}

	got, err := db.GetVideo(ctx, v.ID)
	if err != nil {
		t.Fatalf("GetVideo failed: %v", err)
	}
	if got.Views != 0 {
		t.Errorf("Views = %d, want 0 regardless of insert payload", got.Views)
	}
}

func TestAddVideoDuplicateID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.AddVideo(ctx, testVideo("deadbeef0000")); err != nil {
		t.Fatalf("first AddVideo failed: %v", err)
	}

	err := db.AddVideo(ctx, testVideo("deadbeef0000"))
	if !errors.Is(err, ErrVideoExists) {
		t.Fatalf("second AddVideo error = %v, want ErrVideoExists", err)
	}
}

func TestAddVideoNilThumbnail(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	v := testVideo("cafebabe1234")
	v.ThumbnailPath = ""
	if err := db.AddVideo(ctx, v); err != nil {
		t.Fatalf("AddVideo failed: %v", err)
	}

	got, err := db.GetVideo(ctx, v.ID)
	if err != nil {
		t.Fatalf("GetVideo failed: %v", err)
	}
	if got.ThumbnailPath != "" {
		t.Errorf("ThumbnailPath = %q, want empty", got.ThumbnailPath)
	}
}

func TestGetVideoNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetVideo(context.Background(), "missing000000")
	if !errors.Is(err, ErrVideoNotFound) {
		t.Fatalf("GetVideo error = %v, want ErrVideoNotFound", err)
	}
}

func TestListVideosNewestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"000000000001", "000000000002", "000000000003"} {
		v := testVideo(id)
		v.Path = id + ".mp4"
		v.UploadTime = base.Add(time.Duration(i) * time.Hour)
		if err := db.AddVideo(ctx, v); err != nil {
			t.Fatalf("AddVideo(%s) failed: %v", id, err)
		}
	}

	videos, err := db.ListVideos(ctx, 0, 10)
	if err != nil {
		t.Fatalf("ListVideos failed: %v", err)
	}
	if len(videos) != 3 {
		t.Fatalf("got %d videos, want 3", len(videos))
	}

	wantOrder := []string{"000000000003", "000000000002", "000000000001"}
	for i, id := range wantOrder {
		if videos[i].ID != id {
			t.Errorf("videos[%d].ID = %q, want %q", i, videos[i].ID, id)
		}
	}

	// Paging is offset based.
	page, err := db.ListVideos(ctx, 1, 1)
	if err != nil {
		t.Fatalf("ListVideos with offset failed: %v", err)
	}
	if len(page) != 1 || page[0].ID != "000000000002" {
		t.Errorf("offset page = %+v, want single entry 000000000002", page)
	}
}

func TestIncrementViews(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	v := testVideo("feedface5678")
	if err := db.AddVideo(ctx, v); err != nil {
		t.Fatalf("AddVideo failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := db.IncrementViews(ctx, v.ID); err != nil {
			t.Fatalf("IncrementViews failed: %v", err)
		}
	}

	got, err := db.GetVideo(ctx, v.ID)
	if err != nil {
		t.Fatalf("GetVideo failed: %v", err)
	}
	if got.Views != 3 {
		t.Errorf("Views = %d, want 3", got.Views)
	}
}

func TestIncrementViewsMissingID(t *testing.T) {
	db := newTestDB(t)

	err := db.IncrementViews(context.Background(), "missing000000")
	if !errors.Is(err, ErrVideoNotFound) {
		t.Fatalf("IncrementViews error = %v, want ErrVideoNotFound", err)
	}
}
