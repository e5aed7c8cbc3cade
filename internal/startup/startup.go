package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"vidvault/internal/logging"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// BuildInfo contains version and build information.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration.
type Config struct {
	LibraryDir       string
	DataDir          string
	CacheDir         string
	Port             string
	MetricsPort      string
	MetricsEnabled   bool
	ThumbnailQuality int
	ProbeTimeout     time.Duration
	ThumbnailTimeout time.Duration

	// Derived paths
	DatabasePath string
	IncomingDir  string
	PreviewDir   string
}

// LoadConfig loads and validates configuration from environment
// variables. The library and data directories must exist (or be
// creatable) and be writable; the cache directory is best effort.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	cfg := &Config{
		LibraryDir:       getEnv("LIBRARY_DIR", "/library"),
		DataDir:          getEnv("DATA_DIR", "/data"),
		CacheDir:         getEnv("CACHE_DIR", "/cache"),
		Port:             getEnv("PORT", "8080"),
		MetricsPort:      getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:   getEnvBool("METRICS_ENABLED", true),
		ThumbnailQuality: getEnvInt("THUMBNAIL_QUALITY", 80),
		ProbeTimeout:     getEnvDuration("PROBE_TIMEOUT", 30*time.Second),
		ThumbnailTimeout: getEnvDuration("THUMBNAIL_TIMEOUT", 60*time.Second),
	}

	logging.Info("  LIBRARY_DIR:        %s", cfg.LibraryDir)
	logging.Info("  DATA_DIR:           %s", cfg.DataDir)
	logging.Info("  CACHE_DIR:          %s", cfg.CacheDir)
	logging.Info("  PORT:               %s", cfg.Port)
	logging.Info("  METRICS_PORT:       %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED:    %v", cfg.MetricsEnabled)
	logging.Info("  THUMBNAIL_QUALITY:  %d", cfg.ThumbnailQuality)
	logging.Info("  PROBE_TIMEOUT:      %s", cfg.ProbeTimeout)
	logging.Info("  THUMBNAIL_TIMEOUT:  %s", cfg.ThumbnailTimeout)
	logging.Info("  LOG_LEVEL:          %s", logging.GetLevel())

	var err error
	if cfg.LibraryDir, err = filepath.Abs(cfg.LibraryDir); err != nil {
		return nil, fmt.Errorf("failed to resolve library directory: %w", err)
	}
	if cfg.DataDir, err = filepath.Abs(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}
	if cfg.CacheDir, err = filepath.Abs(cfg.CacheDir); err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory: %w", err)
	}

	// The incoming dir sits inside the library so uploads land on the
	// same filesystem volume as their final location.
	cfg.DatabasePath = filepath.Join(cfg.DataDir, "vidvault.db")
	cfg.IncomingDir = filepath.Join(cfg.LibraryDir, ".incoming")
	cfg.PreviewDir = filepath.Join(cfg.CacheDir, "previews")

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	if err := ensureWritableDir(cfg.LibraryDir, "library"); err != nil {
		return nil, fmt.Errorf("library directory error: %w", err)
	}
	if err := ensureWritableDir(cfg.DataDir, "data"); err != nil {
		return nil, fmt.Errorf("data directory error: %w", err)
	}
	if err := ensureWritableDir(cfg.PreviewDir, "preview cache"); err != nil {
		logging.Warn("  Preview cache unavailable, previews will be re-rendered per request: %v", err)
	}

	return cfg, nil
}

// CheckTools verifies ffprobe and ffmpeg are on PATH and runnable.
// ffprobe is required; without it no upload can be admitted. A missing
// ffmpeg only costs thumbnails.
func CheckTools() error {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("EXTERNAL TOOLS")
	logging.Info("------------------------------------------------------------")

	if err := checkTool("ffprobe"); err != nil {
		return fmt.Errorf("ffprobe is required: %w", err)
	}
	logging.Info("  [OK] ffprobe is available")

	if err := checkTool("ffmpeg"); err != nil {
		logging.Warn("  ffmpeg check failed: %v", err)
		logging.Warn("  Thumbnail generation will not work")
	} else {
		logging.Info("  [OK] ffmpeg is available")
	}
	return nil
}

func checkTool(name string) error {
	path, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", name)
	}
	logging.Debug("  %s path: %s", name, path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, name, "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to run %s -version: %w", name, err)
	}
	if lines := strings.Split(string(out), "\n"); len(lines) > 0 {
		logging.Debug("  %s version: %s", name, strings.TrimSpace(lines[0]))
	}
	return nil
}

// LogDatabaseInit logs database initialization.
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogHTTPRoutes logs the registered routes at debug level.
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if !logging.IsDebugEnabled() {
		return
	}

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		tmpl, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}
		logging.Debug("  %-18s %s", strings.Join(methods, ","), tmpl)
		return nil
	})
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}
}

// ServerConfig holds configuration for the server startup log.
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with endpoint info.
func LogServerStarted(cfg ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:  %v", cfg.StartupDuration)
	logging.Info("")
	logging.Info("  Application:   http://localhost:%s", cfg.Port)
	if cfg.MetricsEnabled {
		logging.Info("  Metrics:       http://localhost:%s/metrics", cfg.MetricsPort)
	} else {
		logging.Info("  Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated logs shutdown start.
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a completed shutdown step.
func LogShutdownStep(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion.
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

func printBanner() {
	banner := `
------------------------------------------------------------
 _    ___    ___  __           ____
| |  / (_)__/ / |/ /___ ___  __/ / /_
| | / / / __  /| / / __ '/ / / / / __/
| |/ / / /_/ / | / /_/ / /_/ / / /_
|___/_/\__,_/|_|\__,_/\__,_/_/\__/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))
	logging.Info("")
}

// ensureWritableDir creates the directory if needed and proves write
// access with a probe file.
func ensureWritableDir(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", name, err)
		}
	case err != nil:
		return fmt.Errorf("failed to stat %s directory: %w", name, err)
	case !info.IsDir():
		return fmt.Errorf("%s path exists but is not a directory", name)
	}

	probe := filepath.Join(path, ".write-test")
	if err := os.WriteFile(probe, []byte("test"), 0o644); err != nil {
		return fmt.Errorf("%s directory is not writable: %w", name, err)
	}
	if err := os.Remove(probe); err != nil {
		logging.Warn("  failed to remove write probe %s: %v", probe, err)
	}

	logging.Info("  [OK] %s directory is writable", name)
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logging.Warn("Invalid duration value for %s: %q, using default: %s", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
