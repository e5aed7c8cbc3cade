package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vidvault/internal/database"
	"vidvault/internal/ingest"
	"vidvault/internal/media"

	"github.com/gorilla/mux"
)

// fakeIngestor records the upload it received and returns a canned
// result, standing in for the real pipeline.
type fakeIngestor struct {
	video        *database.Video
	err          error
	lastFilename string
	lastContent  []byte
}

func (f *fakeIngestor) Run(_ context.Context, stream io.Reader, filename string) (*database.Video, error) {
	f.lastFilename = filename
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, err
	}
	f.lastContent = data
	if f.err != nil {
		return nil, f.err
	}
	return f.video, nil
}

type testEnv struct {
	handlers *Handlers
	db       *database.Database
	ingestor *fakeIngestor
	library  string
	router   *mux.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	base := t.TempDir()
	library := filepath.Join(base, "library")
	if err := os.MkdirAll(library, 0o755); err != nil {
		t.Fatalf("mkdir library: %v", err)
	}

	db, err := database.New(context.Background(), filepath.Join(base, "test.db"))
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ingestor := &fakeIngestor{video: &database.Video{ID: "abcdefabcdef"}}
	previews := media.NewPreviewCache(filepath.Join(base, "cache"))
	h := New(db, ingestor, previews, library)

	r := mux.NewRouter()
	r.HandleFunc("/api/upload", h.Upload).Methods("POST")
	r.HandleFunc("/api/videos", h.ListVideos).Methods("GET")
	r.HandleFunc("/api/videos/{id}", h.GetVideo).Methods("GET")
	r.HandleFunc("/api/thumbnails/{id}", h.GetThumbnail).Methods("GET")
	r.HandleFunc("/videos/{id}/stream", h.StreamVideo).Methods("GET")
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")

	return &testEnv{handlers: h, db: db, ingestor: ingestor, library: library, router: r}
}

// seedVideo inserts a record and, when content is non-empty, its media
// file under the library root.
func (e *testEnv) seedVideo(t *testing.T, id string, content []byte) *database.Video {
	t.Helper()
	v := &database.Video{
		ID:         id,
		Path:       id + ".webm",
		Title:      "Seeded",
		UploadTime: time.Now().UTC().Truncate(time.Second),
		Container:  database.ContainerWebM,
		Duration:   10 * time.Second,
	}
	if err := e.db.AddVideo(context.Background(), v); err != nil {
		t.Fatalf("AddVideo: %v", err)
	}
	if len(content) > 0 {
		if err := os.WriteFile(filepath.Join(e.library, v.Path), content, 0o644); err != nil {
			t.Fatalf("write media: %v", err)
		}
	}
	return v
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadSuccess(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	body, contentType := multipartBody(t, "file", "clip.webm", []byte("video bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if env.ingestor.lastFilename != "clip.webm" {
		t.Errorf("pipeline saw filename %q", env.ingestor.lastFilename)
	}
	if string(env.ingestor.lastContent) != "video bytes" {
		t.Errorf("pipeline saw content %q", env.ingestor.lastContent)
	}

	var video database.Video
	if err := json.Unmarshal(rec.Body.Bytes(), &video); err != nil {
		t.Fatalf("response is not a video record: %v", err)
	}
	if video.ID != "abcdefabcdef" {
		t.Errorf("response ID = %q", video.ID)
	}
}

func TestUploadErrorMapping(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"missing filename", ingest.ErrMissingFilename, http.StatusBadRequest},
		{"invalid media", ingest.ErrInvalidMedia, http.StatusBadRequest},
		{"duplicate", ingest.ErrDuplicateContent, http.StatusConflict},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t)
			env.ingestor.err = tc.err

			body, contentType := multipartBody(t, "file", "clip.webm", []byte("x"))
			req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}

func TestUploadRejectsNonMultipart(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", bytes.NewBufferString("raw"))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUploadMissingFileField(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	body, contentType := multipartBody(t, "document", "clip.webm", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestListVideos(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.seedVideo(t, "aaaaaaaaaaaa", nil)
	env.seedVideo(t, "bbbbbbbbbbbb", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/videos", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp VideoListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Videos) != 2 {
		t.Errorf("got %d videos, want 2", len(resp.Videos))
	}
	if resp.Page != 1 || resp.PageSize != defaultPageSize {
		t.Errorf("paging = (%d, %d)", resp.Page, resp.PageSize)
	}
}

func TestGetVideo(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	seeded := env.seedVideo(t, "aaaaaaaaaaaa", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/videos/aaaaaaaaaaaa", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var video database.Video
	if err := json.Unmarshal(rec.Body.Bytes(), &video); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if video.ID != seeded.ID || video.Title != "Seeded" {
		t.Errorf("video = %+v", video)
	}
}

func TestGetVideoNotFound(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/videos/000000000000", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestStreamVideoCountsView(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	content := []byte("webm media payload")
	env.seedVideo(t, "aaaaaaaaaaaa", content)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/videos/aaaaaaaaaaaa/stream", nil)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !bytes.Equal(rec.Body.Bytes(), content) {
			t.Errorf("streamed payload differs from media file")
		}
		if got := rec.Header().Get("Content-Type"); got != "video/webm" {
			t.Errorf("Content-Type = %q", got)
		}
	}

	video, err := env.db.GetVideo(context.Background(), "aaaaaaaaaaaa")
	if err != nil {
		t.Fatalf("GetVideo: %v", err)
	}
	if video.Views != 2 {
		t.Errorf("views = %d, want 2", video.Views)
	}
}

func TestStreamVideoRangeRequest(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	content := []byte("0123456789")
	env.seedVideo(t, "aaaaaaaaaaaa", content)

	req := httptest.NewRequest(http.MethodGet, "/videos/aaaaaaaaaaaa/stream", nil)
	req.Header.Set("Range", "bytes=2-5")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rec.Code)
	}
	if rec.Body.String() != "2345" {
		t.Errorf("range body = %q", rec.Body.String())
	}
}

func TestStreamVideoMissingFile(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.seedVideo(t, "aaaaaaaaaaaa", nil) // record without media file

	req := httptest.NewRequest(http.MethodGet, "/videos/aaaaaaaaaaaa/stream", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	// A failed stream must not count as a view.
	video, err := env.db.GetVideo(context.Background(), "aaaaaaaaaaaa")
	if err != nil {
		t.Fatalf("GetVideo: %v", err)
	}
	if video.Views != 0 {
		t.Errorf("views = %d, want 0", video.Views)
	}
}

func TestGetThumbnailNoThumbnail(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.seedVideo(t, "aaaaaaaaaaaa", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/thumbnails/aaaaaaaaaaaa", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.seedVideo(t, "aaaaaaaaaaaa", nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.TotalVideos != 1 {
		t.Errorf("totalVideos = %d, want 1", resp.TotalVideos)
	}
}
