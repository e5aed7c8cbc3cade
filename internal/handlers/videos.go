package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"vidvault/internal/database"
	"vidvault/internal/logging"

	"github.com/gorilla/mux"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// containerMIMETypes maps container kinds to their media types for the
// streaming endpoint.
var containerMIMETypes = map[database.ContainerKind]string{
	database.ContainerMP4:  "video/mp4",
	database.ContainerWebM: "video/webm",
	database.ContainerAVI:  "video/x-msvideo",
	database.ContainerOgg:  "video/ogg",
}

// VideoListResponse is the paged listing payload.
type VideoListResponse struct {
	Videos   []database.Video `json:"videos"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

// ListVideos returns a page of library records, newest first.
func (h *Handlers) ListVideos(w http.ResponseWriter, r *http.Request) {
	page := 1
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	pageSize := defaultPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("pageSize")); err == nil && v > 0 && v <= maxPageSize {
		pageSize = v
	}

	videos, err := h.db.ListVideos(r.Context(), (page-1)*pageSize, pageSize)
	if err != nil {
		logging.Error("Failed to list videos: %v", err)
		writeJSONError(w, "failed to list videos", http.StatusInternalServerError)
		return
	}

	writeJSON(w, VideoListResponse{Videos: videos, Page: page, PageSize: pageSize})
}

// GetVideo returns a single record by id.
func (h *Handlers) GetVideo(w http.ResponseWriter, r *http.Request) {
	video, ok := h.lookupVideo(w, r)
	if !ok {
		return
	}
	writeJSON(w, video)
}

// StreamVideo serves the media file for a record, counting the view.
// Range requests are honored so clients can seek.
func (h *Handlers) StreamVideo(w http.ResponseWriter, r *http.Request) {
	video, ok := h.lookupVideo(w, r)
	if !ok {
		return
	}

	fullPath, ok := h.libraryPath(video.Path)
	if !ok {
		logging.Error("Record %s has path escaping the library: %q", video.ID, video.Path)
		writeJSONError(w, "invalid media path", http.StatusInternalServerError)
		return
	}
	if _, err := os.Stat(fullPath); err != nil {
		logging.Error("Media file missing for record %s: %v", video.ID, err)
		writeJSONError(w, "media file missing", http.StatusNotFound)
		return
	}

	// The view counts even if the client never finishes the stream.
	if err := h.db.IncrementViews(r.Context(), video.ID); err != nil {
		logging.Warn("Failed to count view for %s: %v", video.ID, err)
	}

	if mime, ok := containerMIMETypes[video.Container]; ok {
		w.Header().Set("Content-Type", mime)
	}
	http.ServeFile(w, r, fullPath)
}

// GetThumbnail serves a scaled preview of a record's thumbnail. The
// optional size query parameter bounds the longer edge.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	video, ok := h.lookupVideo(w, r)
	if !ok {
		return
	}
	if video.ThumbnailPath == "" {
		writeJSONError(w, "video has no thumbnail", http.StatusNotFound)
		return
	}

	fullPath, ok := h.libraryPath(video.ThumbnailPath)
	if !ok {
		logging.Error("Record %s has thumbnail path escaping the library: %q", video.ID, video.ThumbnailPath)
		writeJSONError(w, "invalid thumbnail path", http.StatusInternalServerError)
		return
	}

	size := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil {
		size = v
	}

	data, err := h.previews.Preview(fullPath, size)
	if err != nil {
		logging.Error("Preview failed for %s: %v", video.ID, err)
		writeJSONError(w, "failed to render thumbnail", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := w.Write(data); err != nil {
		logging.Debug("thumbnail write aborted: %v", err)
	}
}

// lookupVideo resolves the {id} route variable to a record, writing
// the error response itself when the id is unknown.
func (h *Handlers) lookupVideo(w http.ResponseWriter, r *http.Request) (*database.Video, bool) {
	id := mux.Vars(r)["id"]
	video, err := h.db.GetVideo(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrVideoNotFound) {
			writeJSONError(w, "video not found", http.StatusNotFound)
		} else {
			logging.Error("Failed to load video %s: %v", id, err)
			writeJSONError(w, "failed to load video", http.StatusInternalServerError)
		}
		return nil, false
	}
	return video, true
}

// libraryPath joins a stored relative path onto the library root and
// rejects anything that escapes it.
func (h *Handlers) libraryPath(rel string) (string, bool) {
	full := filepath.Join(h.libraryDir, rel)
	resolved, err := filepath.Rel(h.libraryDir, full)
	if err != nil || resolved == ".." || strings.HasPrefix(resolved, ".."+string(filepath.Separator)) {
		return "", false
	}
	return full, true
}
