package handlers

import (
	"errors"
	"io"
	"net/http"

	"vidvault/internal/ingest"
	"vidvault/internal/logging"
)

// Upload admits a multipart upload into the library. The file part is
// streamed straight into the ingest pipeline without buffering the
// payload, so uploads of any size cost constant memory.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	reader, err := r.MultipartReader()
	if err != nil {
		writeJSONError(w, "request must be multipart/form-data", http.StatusBadRequest)
		return
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			writeJSONError(w, "malformed multipart body", http.StatusBadRequest)
			return
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}

		video, err := h.pipeline.Run(r.Context(), part, part.FileName())
		part.Close()
		if err != nil {
			h.writeUploadError(w, err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		writeJSON(w, video)
		return
	}

	writeJSONError(w, "missing file field", http.StatusBadRequest)
}

func (h *Handlers) writeUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ingest.ErrMissingFilename), errors.Is(err, ingest.ErrInvalidMedia):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ingest.ErrDuplicateContent):
		writeJSONError(w, err.Error(), http.StatusConflict)
	default:
		logging.Error("Upload failed: %v", err)
		writeJSONError(w, "upload failed", http.StatusInternalServerError)
	}
}
