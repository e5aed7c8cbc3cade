package handlers

import (
	"net/http"
	"runtime"
	"time"

	"vidvault/internal/logging"
	"vidvault/internal/startup"
)

// HealthResponse contains the health check response.
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Uptime       string `json:"uptime"`
	TotalVideos  int64  `json:"totalVideos"`
	GoVersion    string `json:"goVersion"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck reports service health. The database is the only hard
// dependency, so a failing count query degrades the status.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:       "healthy",
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	count, err := h.db.CountVideos(r.Context())
	if err != nil {
		logging.Warn("Health check database error: %v", err)
		response.Status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	response.TotalVideos = count

	writeJSON(w, response)
}

// LivenessCheck always returns 200 while the process is running.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, map[string]string{"status": "alive"})
}

// Version returns build information.
func (h *Handlers) Version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, startup.GetBuildInfo())
}
