package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vidvault/internal/database"
	"vidvault/internal/handlers"
	"vidvault/internal/ingest"
	"vidvault/internal/logging"
	"vidvault/internal/media"
	"vidvault/internal/memory"
	"vidvault/internal/metrics"
	"vidvault/internal/middleware"
	"vidvault/internal/probe"
	"vidvault/internal/startup"
	"vidvault/internal/sweeper"
	"vidvault/internal/thumbnail"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	if err := startup.CheckTools(); err != nil {
		logging.Fatal("Tool check failed: %v", err)
	}

	memory.ConfigureFromEnv()

	media.InitVips()
	defer media.ShutdownVips()

	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		logging.Fatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Periodic housekeeping: expired sessions and DB pool gauges.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.CleanExpiredSessions(); err != nil {
				logging.Warn("Session cleanup failed: %v", err)
			}
			db.UpdateDBMetrics()
		}
	}()

	pipeline, err := ingest.New(ingest.Config{
		Store:       db,
		Prober:      probe.New(&probe.ExecRunner{Timeout: config.ProbeTimeout}),
		Thumbnailer: thumbnail.New(&thumbnail.ExecRunner{Timeout: config.ThumbnailTimeout}, config.ThumbnailQuality),
		LibraryDir:  config.LibraryDir,
		TempDir:     config.IncomingDir,
	})
	if err != nil {
		logging.Fatal("Failed to initialize ingest pipeline: %v", err)
	}

	janitor := sweeper.New(db, config.LibraryDir, config.IncomingDir, 6*time.Hour)
	janitor.Start()
	defer janitor.Stop()

	previews := media.NewPreviewCache(config.PreviewDir)
	h := handlers.New(db, pipeline, previews, config.LibraryDir)

	router := setupRouter(h)
	startup.LogHTTPRoutes(router)

	if config.MetricsEnabled {
		metrics.InitializeMetrics()
		go serveMetrics(config.MetricsPort)
	}

	handler := middleware.Compression(
		middleware.AccessLog(
			middleware.Metrics(
				h.AuthMiddleware(router))))

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  0, // uploads may stream for a long time
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go handleShutdown(srv)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health and version (no auth required)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/api/version", h.Version).Methods("GET")

	// Auth
	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/setup-required", h.CheckSetupRequired).Methods("GET")
	auth.HandleFunc("/setup", h.Setup).Methods("POST")
	auth.HandleFunc("/login", h.Login).Methods("POST")
	auth.HandleFunc("/logout", h.Logout).Methods("POST")
	auth.HandleFunc("/check", h.CheckAuth).Methods("GET")
	auth.HandleFunc("/password", h.ChangePassword).Methods("POST")

	// Library API
	r.HandleFunc("/api/upload", h.Upload).Methods("POST")
	r.HandleFunc("/api/videos", h.ListVideos).Methods("GET")
	r.HandleFunc("/api/videos/{id}", h.GetVideo).Methods("GET")
	r.HandleFunc("/api/thumbnails/{id}", h.GetThumbnail).Methods("GET")
	r.HandleFunc("/videos/{id}/stream", h.StreamVideo).Methods("GET", "HEAD")

	// Static files
	r.PathPrefix("/").Handler(http.FileServer(http.Dir("./static")))

	return r
}

func serveMetrics(port string) {
	m := http.NewServeMux()
	m.Handle("/metrics", promhttp.Handler())
	logging.Info("Metrics listening on :%s", port)
	if err := http.ListenAndServe(":"+port, m); err != nil {
		logging.Error("Metrics server error: %v", err)
	}
}

func handleShutdown(srv *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStep("HTTP server stopped")
	}
	startup.LogShutdownComplete()
}
